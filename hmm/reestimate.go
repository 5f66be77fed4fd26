package hmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tw7649116/markov/floatx"
	"github.com/tw7649116/markov/wdag"
)

// adjustToPath applies a best path to the parameters by hard counting
// (the Viterbi re-estimation step). Transition and, for discrete
// models, emission tag occurrences are tallied and each row of counts
// is normalized into a new log distribution. A state with zero counts
// gets a uniform row instead: a LogZero row would make the state
// unreachable on every later iteration. Returns whether any parameter
// moved by more than the comparison tolerance, and the emitted-state
// sequence recovered from the path.
func (m *Model) adjustToPath(path []wdag.Tag) (changed bool, states []int, err error) {

	if len(path) == 0 {
		return false, nil, wdag.ErrInfeasiblePath
	}

	transCounts := make([][]int, m.ns)
	for i := range transCounts {
		transCounts[i] = make([]int, m.ns)
	}
	var emissCounts [][]int
	if m.IsDiscrete() {
		emissCounts = make([][]int, m.ns)
		for i := range emissCounts {
			emissCounts[i] = make([]int, m.nsym)
		}
	}
	stateCounts := make([]int, m.ns)
	states = make([]int, 0, m.NTimepoints())

	for _, tag := range path {
		switch tag.Kind {
		case wdag.Trans:
			transCounts[tag.State][tag.To]++
		case wdag.Emit:
			if m.IsDiscrete() {
				emissCounts[tag.State][tag.To]++
			}
			stateCounts[tag.State]++
			states = append(states, tag.State)
		}
	}

	T := m.NTimepoints()
	if len(states) != T {
		return false, nil, fmt.Errorf(
			"best path has [%d] emission edges, expected [%d]", len(states), T)
	}

	// State frequencies along the best path, for diagnostics.
	m.stateFreqs = make([]float64, m.ns)
	for i := 0; i < m.ns; i++ {
		m.stateFreqs[i] = float64(stateCounts[i]) / float64(T)
	}

	changed = m.setCountRows(m.transProbs, transCounts) || changed
	if m.IsDiscrete() {
		changed = m.setCountRows(m.symbolEmissProbs, emissCounts) || changed
	}
	return changed, states, nil
}

// setCountRows normalizes each row of counts into a log distribution
// and stores it, reporting whether any value moved. Zero-total rows
// get the uniform pseudocount distribution.
func (m *Model) setCountRows(dst [][]float64, counts [][]int) (changed bool) {

	for i := range counts {
		total := 0
		for _, c := range counts[i] {
			total += c
		}
		uniform := -math.Log(float64(len(counts[i])))

		for j, c := range counts[i] {
			newProb := uniform
			if total != 0 {
				newProb = math.Log(float64(c) / float64(total))
			}
			if !floatx.Comparef64Tol(dst[i][j], newProb, changeTol) {
				changed = true
			}
			dst[i][j] = newProb
		}
	}
	return changed
}

// adjustToPosteriors applies the per-edge posterior probabilities of a
// solved trellis to the parameters by soft expectation (the Baum-Welch
// re-estimation step). Edge posteriors are accumulated per tag group
// in the log domain and each group is normalized by its own log-sum-exp
// denominator. No pseudocounts are needed: data loading guarantees
// every state receives nonzero expected mass wherever a denominator is
// finite.
func (m *Model) adjustToPosteriors(g *wdag.WDAG) (changed bool, err error) {

	newInit := make([]float64, m.ns)
	floatx.Fill(newInit, floatx.LogZero)
	newTrans := floatx.MakeFloat2D(m.ns, m.ns)
	floatx.Fill2D(newTrans, floatx.LogZero)
	var newEmiss [][]float64
	if m.IsDiscrete() {
		newEmiss = floatx.MakeFloat2D(m.ns, m.nsym)
		floatx.Fill2D(newEmiss, floatx.LogZero)
	}
	newFreqs := make([]float64, m.ns)
	floatx.Fill(newFreqs, floatx.LogZero)

	nEmissions := 0
	err = g.EdgePosteriors(func(tag wdag.Tag, p float64) {
		switch tag.Kind {
		case wdag.Start:
			// Exactly one initiation edge per state.
			newInit[tag.State] = p
		case wdag.Trans:
			newTrans[tag.State][tag.To] = floatx.LogAdd(newTrans[tag.State][tag.To], p)
		case wdag.Emit:
			if m.IsDiscrete() {
				newEmiss[tag.State][tag.To] = floatx.LogAdd(newEmiss[tag.State][tag.To], p)
			}
			newFreqs[tag.State] = floatx.LogAdd(newFreqs[tag.State], p)
			nEmissions++
		}
	})
	if err != nil {
		return false, err
	}

	if want := m.ns * m.NTimepoints(); nEmissions != want {
		return false, fmt.Errorf("trellis has [%d] emission edges, expected [%d]", nEmissions, want)
	}

	// State occupancy frequencies, for diagnostics.
	denom := floats.LogSumExp(newFreqs)
	m.stateFreqs = make([]float64, m.ns)
	for i := 0; i < m.ns; i++ {
		m.stateFreqs[i] = math.Exp(newFreqs[i] - denom)
	}

	changed = m.setPosteriorRow(m.initProbs, newInit) || changed
	for i := 0; i < m.ns; i++ {
		changed = m.setPosteriorRow(m.transProbs[i], newTrans[i]) || changed
	}
	if m.IsDiscrete() {
		for i := 0; i < m.ns; i++ {
			changed = m.setPosteriorRow(m.symbolEmissProbs[i], newEmiss[i]) || changed
		}
	}
	return changed, nil
}

// setPosteriorRow normalizes one accumulator row by its log-sum-exp
// denominator and stores it, reporting whether any value moved. A row
// with no mass at all carries no evidence and leaves the old
// distribution in place; this happens only for transition rows when
// the sequence has a single timepoint.
func (m *Model) setPosteriorRow(dst, acc []float64) (changed bool) {

	denom := floats.LogSumExp(acc)
	if denom == floatx.LogZero {
		return false
	}
	for j := range acc {
		newProb := acc[j] - denom
		if !floatx.Comparef64Tol(dst[j], newProb, changeTol) {
			changed = true
		}
		dst[j] = newProb
	}
	return changed
}
