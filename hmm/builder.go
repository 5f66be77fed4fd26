package hmm

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/tw7649116/markov/wdag"
)

// Graph builds a fresh trellis for the current parameters and the
// observed sequence. The graph has exactly 2*N*M + 2 nodes for N
// states and M timepoints: per timepoint, N "reached state" nodes fed
// by the previous layer and N "emitted" nodes fed by their own state,
// plus the global start and end nodes. Edge weights are the model's
// log probabilities; edge tags identify the parameter each weight came
// from.
func (m *Model) Graph() (*wdag.WDAG, error) {

	if !m.HasAllData() {
		return nil, ErrMissingData
	}

	T := m.NTimepoints()
	g := wdag.New()
	g.Reserve(2*m.ns*T + 2)

	// reached[i]: the chain is in state i at the current timepoint.
	// emitted[i]: state i has produced the current observation.
	reached := make([]int, m.ns)
	emitted := make([]int, m.ns)

	start := g.AddNode()
	if err := g.SetReqStart(start); err != nil {
		return nil, err
	}

	for t := 0; t < T; t++ {

		for i := 0; i < m.ns; i++ {
			reached[i] = g.AddNode()

			if t == 0 {
				// First layer connects to the global start; the
				// initial state probabilities are the edge weights.
				g.AddEdge(reached[i], start, wdag.StartTag(i), m.initProbs[i])
				continue
			}
			// Full fan-in from the previous layer's emitted nodes:
			// N^2 transition edges per timepoint.
			for prev := 0; prev < m.ns; prev++ {
				g.AddEdge(reached[i], emitted[prev], wdag.TransTag(prev, i), m.transProbs[prev][i])
			}
		}

		for i := 0; i < m.ns; i++ {
			// The emission weight is looked up by symbol for discrete
			// models and by table entry for continuous models. The
			// symbol operand on the tag is informational only in the
			// continuous case.
			symbol := -1
			var weight float64
			if m.IsDiscrete() {
				symbol = m.observations[t]
				weight = m.symbolEmissProbs[i][symbol]
			} else {
				weight = m.timeEmissProbs[t][i]
			}

			emitted[i] = g.AddNode()
			g.AddEdge(emitted[i], reached[i], wdag.EmitTag(i, symbol), weight)
		}
	}

	// The end node collects the last layer with certain edges.
	end := g.AddNode()
	for i := 0; i < m.ns; i++ {
		g.AddEdge(end, emitted[i], wdag.FinishTag(), 0)
	}
	if err := g.SetReqEnd(end); err != nil {
		return nil, err
	}

	if n := g.N(); n != 2*m.ns*T+2 {
		return nil, fmt.Errorf("trellis has [%d] nodes, expected [%d]", n, 2*m.ns*T+2)
	}
	glog.V(2).Infof("model %q: built trellis with %d nodes, %d edges over %d timepoints",
		m.name, g.N(), g.NumEdges(), T)
	return g, nil
}

// nodeLabel names a trellis node for rendering: START, END, or
// t_i_R / t_i_E for the reached and emitted node of state i at
// timepoint t.
func (m *Model) nodeLabel(id int) string {

	last := 2*m.ns*m.NTimepoints() + 1
	switch id {
	case 0:
		return "START"
	case last:
		return "END"
	}
	t := (id - 1) / (2 * m.ns)
	off := (id - 1) % (2 * m.ns)
	if off < m.ns {
		return fmt.Sprintf("%d_%d_R", t, off)
	}
	return fmt.Sprintf("%d_%d_E", t, off-m.ns)
}

// DOTAtTimepoint renders the trellis neighborhood around timepoint t
// (depth layers in each direction) in graphviz DOT format. The model
// is read, never mutated. Edges with probability zero are not drawn.
func (m *Model) DOTAtTimepoint(t, depth int) ([]byte, error) {

	if !m.HasAllData() {
		return nil, ErrMissingData
	}
	T := m.NTimepoints()
	if t < 0 || t >= T {
		return nil, fmt.Errorf("timepoint [%d] out of range [0,%d)", t, T)
	}

	g, err := m.Graph()
	if err != nil {
		return nil, err
	}

	minT := 0
	if t > depth {
		minT = t - depth
	}
	maxT := t + depth
	if maxT > T-1 {
		maxT = T - 1
	}

	include := func(id int) bool {
		switch id {
		case 0:
			return minT == 0
		case g.N() - 1:
			return maxT == T-1
		}
		layer := (id - 1) / (2 * m.ns)
		return layer >= minT && layer <= maxT
	}

	name := fmt.Sprintf("%s_at_timepoint_%d", m.name, t)
	return g.DOT(name, m.nodeLabel, include)
}
