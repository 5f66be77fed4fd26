package hmm

import (
	"math"

	"github.com/golang/glog"
)

// TrainViterbi runs one Viterbi training step: build a fresh trellis,
// find the max-weight path through it, and re-estimate the parameters
// from the path by hard counting. The model is mutated in place
// exactly once. Returns whether any parameter changed and the
// predicted hidden state for each timepoint.
//
// Callers own the convergence loop: call repeatedly until changed is
// false or an iteration cap is reached. wdag.ErrInfeasiblePath means
// the current parameters cannot explain the observations at all.
func (m *Model) TrainViterbi() (changed bool, states []int, err error) {

	if !m.HasAllData() {
		return false, nil, ErrMissingData
	}

	g, err := m.Graph()
	if err != nil {
		return false, nil, err
	}

	path, weight, err := g.FindBestPath()
	if err != nil {
		return false, nil, err
	}
	glog.V(2).Infof("model %q: viterbi path weight %e", m.name, weight)

	return m.adjustToPath(path)
}

// TrainBaumWelch runs one Baum-Welch training step: build a fresh
// trellis, run the forward-backward pass, and re-estimate the
// parameters from the per-edge posterior probabilities by soft
// expectation. The model is mutated in place exactly once. Returns
// whether any parameter changed and the total sequence log likelihood
// as a base-2 logarithm.
//
// Callers own the convergence loop, as with TrainViterbi.
func (m *Model) TrainBaumWelch() (changed bool, logLike2 float64, err error) {

	if !m.HasAllData() {
		return false, 0, ErrMissingData
	}

	g, err := m.Graph()
	if err != nil {
		return false, 0, err
	}

	if err = g.FindPosteriorProbs(); err != nil {
		return false, 0, err
	}
	logLike2 = g.Alpha() / math.Ln2
	glog.V(2).Infof("model %q: sequence log2 likelihood %e", m.name, logLike2)

	changed, err = m.adjustToPosteriors(g)
	if err != nil {
		return false, 0, err
	}
	return changed, logLike2, nil
}
