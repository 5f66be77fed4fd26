/*
Package wdag implements a weighted directed acyclic graph for dynamic
programming over layered probability models.

Nodes are stored in a flat arena and addressed by index. Each node owns
its incoming edges; an edge references its parent node by index only.
Nodes must be added in topological order (every edge points from a
lower index to a higher index) so the forward and backward passes can
consume the arena in insertion order without a topological sort.

All edge weights are log probabilities. floatx.LogZero marks an
impossible event.
*/
package wdag

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"github.com/tw7649116/markov/floatx"
)

type Error string

func (err Error) Error() string { return string(err) }

const (
	// ErrInfeasiblePath means no finite-weight path connects the start
	// node to the end node: the model parameters cannot explain the
	// observed sequence at all.
	ErrInfeasiblePath = Error("wdag: no finite-weight path from start to end")

	// ErrNumericFailure means a NaN appeared during forward/backward
	// accumulation.
	ErrNumericFailure = Error("wdag: NaN in forward/backward accumulation")

	// ErrNotSolved means posterior probabilities were requested before
	// FindPosteriorProbs ran.
	ErrNotSolved = Error("wdag: posterior probabilities have not been computed")

	errEdgeOrder  = Error("wdag: edge parent must precede child in insertion order")
	errEdgeRange  = Error("wdag: node index out of range")
	errSelfEdge   = Error("wdag: self edge not allowed")
	errStartTwice = Error("wdag: required start node already set")
	errEndTwice   = Error("wdag: required end node already set")
)

// Kind discriminates the semantic role of an edge.
type Kind uint8

const (
	// Start is an edge from the global start node into the first layer.
	// Operand: State.
	Start Kind = iota
	// Trans is a state transition between adjacent layers.
	// Operands: State (source), To (target).
	Trans
	// Emit is an emission within a layer. Operands: State, To (emitted
	// symbol, or -1 when the model has no discrete symbols).
	Emit
	// Finish is an edge from the last layer into the global end node.
	// No operands.
	Finish
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "S"
	case Trans:
		return "T"
	case Emit:
		return "E"
	case Finish:
		return "F"
	}
	return "?"
}

// Tag carries the semantic identity of an edge. Re-estimation recovers
// which model parameter an edge contributes to solely from its tag.
type Tag struct {
	Kind  Kind
	State int
	To    int
}

// StartTag tags the initiation edge for a state.
func StartTag(state int) Tag { return Tag{Kind: Start, State: state, To: -1} }

// TransTag tags a transition edge between two states.
func TransTag(from, to int) Tag { return Tag{Kind: Trans, State: from, To: to} }

// EmitTag tags an emission edge. symbol is -1 for continuous models.
func EmitTag(state, symbol int) Tag { return Tag{Kind: Emit, State: state, To: symbol} }

// FinishTag tags a termination edge.
func FinishTag() Tag { return Tag{Kind: Finish, State: -1, To: -1} }

func (t Tag) String() string {
	switch t.Kind {
	case Start:
		return fmt.Sprintf("S %d", t.State)
	case Trans, Emit:
		return fmt.Sprintf("%v %d %d", t.Kind, t.State, t.To)
	}
	return "F"
}

type edge struct {
	parent int
	weight float64
	tag    Tag
}

type node struct {
	in []edge

	// Forward and backward log probabilities (sum over all paths).
	fw, bw float64

	// Viterbi quantities: weight of the best path from start, and the
	// index into in of the chosen edge (-1 when unreachable).
	best   float64
	bestIn int
}

// WDAG is a weighted DAG with one required start and one required end
// node. The zero value is not usable; call New.
type WDAG struct {
	nodes  []node
	nedges int
	start  int
	end    int
	solved bool
}

// New creates an empty graph.
func New() *WDAG {
	return &WDAG{start: -1, end: -1}
}

// Reserve preallocates the node arena.
func (g *WDAG) Reserve(n int) {
	if cap(g.nodes) < n {
		nodes := make([]node, len(g.nodes), n)
		copy(nodes, g.nodes)
		g.nodes = nodes
	}
}

// N returns the number of nodes.
func (g *WDAG) N() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *WDAG) NumEdges() int { return g.nedges }

// AddNode appends a node to the arena and returns its index.
func (g *WDAG) AddNode() int {
	g.nodes = append(g.nodes, node{bestIn: -1})
	g.solved = false
	return len(g.nodes) - 1
}

// AddEdge connects parent to child with a tagged log weight. The child
// owns the edge. Panics if the edge would violate insertion order,
// which is how the graph stays acyclic by construction.
func (g *WDAG) AddEdge(child, parent int, tag Tag, weight float64) {

	if child < 0 || child >= len(g.nodes) || parent < 0 || parent >= len(g.nodes) {
		panic(errEdgeRange)
	}
	if child == parent {
		panic(errSelfEdge)
	}
	if parent > child {
		panic(errEdgeOrder)
	}
	n := &g.nodes[child]
	n.in = append(n.in, edge{parent: parent, weight: weight, tag: tag})
	g.nedges++
	g.solved = false
}

// SetReqStart designates the unique start node. Its forward probability
// is seeded with certainty (0 in log space).
func (g *WDAG) SetReqStart(id int) error {
	if g.start >= 0 {
		return errStartTwice
	}
	if id < 0 || id >= len(g.nodes) {
		return errEdgeRange
	}
	g.start = id
	return nil
}

// SetReqEnd designates the unique end node.
func (g *WDAG) SetReqEnd(id int) error {
	if g.end >= 0 {
		return errEndTwice
	}
	if id < 0 || id >= len(g.nodes) {
		return errEdgeRange
	}
	g.end = id
	return nil
}

func (g *WDAG) checkEndpoints() error {
	if g.start < 0 {
		return fmt.Errorf("wdag: missing required start node")
	}
	if g.end < 0 {
		return fmt.Errorf("wdag: missing required end node")
	}
	return nil
}

// FindBestPath computes the max-weight path from start to end and
// returns its edge tags in path order together with the path weight.
// Returns ErrInfeasiblePath when every start-to-end path has weight
// LogZero.
func (g *WDAG) FindBestPath() ([]Tag, float64, error) {

	if err := g.checkEndpoints(); err != nil {
		return nil, floatx.LogZero, err
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		n.best = floatx.LogZero
		n.bestIn = -1
	}
	g.nodes[g.start].best = 0

	// Nodes are stored in topological order, so a single ascending
	// sweep sees every parent before its children.
	for i := range g.nodes {
		n := &g.nodes[i]
		for k, e := range n.in {
			w := g.nodes[e.parent].best + e.weight
			if math.IsNaN(w) {
				return nil, floatx.LogZero, fmt.Errorf("best path at node %d edge %v: %w", i, e.tag, ErrNumericFailure)
			}
			if n.bestIn < 0 || w > n.best {
				n.best = w
				n.bestIn = k
			}
		}
	}

	endNode := &g.nodes[g.end]
	if endNode.bestIn < 0 || math.IsInf(endNode.best, -1) {
		return nil, floatx.LogZero, ErrInfeasiblePath
	}

	// Back-track from the end node, then reverse into path order.
	var path []Tag
	for i := g.end; i != g.start; {
		n := &g.nodes[i]
		if n.bestIn < 0 {
			return nil, floatx.LogZero, ErrInfeasiblePath
		}
		e := n.in[n.bestIn]
		path = append(path, e.tag)
		i = e.parent
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	if glog.V(3) {
		glog.Infof("best path: weight %e over %d edges", endNode.best, len(path))
	}
	return path, endNode.best, nil
}

// FindPosteriorProbs runs the forward and backward passes. After a
// successful call, Alpha returns the total sequence log likelihood and
// EdgePosteriors can visit per-edge posterior probabilities.
func (g *WDAG) FindPosteriorProbs() error {

	if err := g.checkEndpoints(); err != nil {
		return err
	}

	for i := range g.nodes {
		g.nodes[i].fw = floatx.LogZero
		g.nodes[i].bw = floatx.LogZero
	}
	g.nodes[g.start].fw = 0
	g.nodes[g.end].bw = 0

	// Forward: gather from parents in topological order.
	for i := range g.nodes {
		n := &g.nodes[i]
		for _, e := range n.in {
			n.fw = floatx.LogAdd(n.fw, g.nodes[e.parent].fw+e.weight)
		}
		if math.IsNaN(n.fw) {
			return fmt.Errorf("forward pass at node %d: %w", i, ErrNumericFailure)
		}
	}

	// Backward: scatter to parents in reverse topological order. A
	// child's in-edges are the parents' out-edges, so no out-edge list
	// is needed.
	for i := len(g.nodes) - 1; i >= 0; i-- {
		n := &g.nodes[i]
		if n.bw == floatx.LogZero {
			continue
		}
		for _, e := range n.in {
			p := &g.nodes[e.parent]
			p.bw = floatx.LogAdd(p.bw, n.bw+e.weight)
			if math.IsNaN(p.bw) {
				return fmt.Errorf("backward pass at node %d: %w", e.parent, ErrNumericFailure)
			}
		}
	}

	if g.nodes[g.end].fw == floatx.LogZero {
		return ErrInfeasiblePath
	}

	g.solved = true
	if glog.V(3) {
		glog.Infof("posterior pass done: alpha %e, %d nodes, %d edges",
			g.Alpha(), len(g.nodes), g.nedges)
	}
	return nil
}

// Alpha returns the total log likelihood of all start-to-end paths,
// i.e. the forward probability of the end node. Valid after
// FindPosteriorProbs.
func (g *WDAG) Alpha() float64 {
	return g.nodes[g.end].fw
}

// Beta returns the backward probability of the start node. It equals
// Alpha up to rounding and is useful as a consistency check.
func (g *WDAG) Beta() float64 {
	return g.nodes[g.start].bw
}

// EdgePosteriors visits every edge with its tag and posterior log
// probability: the log probability that a path drawn from the model
// passes through that edge, given the whole observed sequence.
func (g *WDAG) EdgePosteriors(fn func(tag Tag, logProb float64)) error {

	if !g.solved {
		return ErrNotSolved
	}
	alpha := g.Alpha()
	for i := range g.nodes {
		n := &g.nodes[i]
		for _, e := range n.in {
			p := g.nodes[e.parent].fw + n.bw + e.weight - alpha
			if math.IsNaN(p) {
				return fmt.Errorf("posterior of edge %v into node %d: %w", e.tag, i, ErrNumericFailure)
			}
			fn(e.tag, p)
		}
	}
	return nil
}
