/*
Package hmm trains hidden Markov model parameters against a single
observation sequence.

A Model is either discrete (states emit symbols from a finite alphabet)
or continuous (per-timepoint emission log likelihoods are precomputed
by the caller); the variant is fixed at construction. All distributions
are stored in the log domain. Training reduces the model plus the
observations to a weighted DAG (package wdag) and re-estimates the
parameters from either the best path (Viterbi) or the per-edge
posterior probabilities (Baum-Welch).
*/
package hmm

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/floats"

	"github.com/tw7649116/markov/floatx"
)

type Error string

func (err Error) Error() string { return string(err) }

const (
	// ErrInvalidDistribution means a loaded probability row does not
	// sum to one, or a continuous emission entry is LogZero.
	ErrInvalidDistribution = Error("hmm: invalid probability distribution")

	// ErrMissingData means training was attempted before all required
	// parameters and observations were loaded.
	ErrMissingData = Error("hmm: missing parameters or observations")

	errNotDiscrete   = Error("hmm: operation applies to discrete models only")
	errNotContinuous = Error("hmm: operation applies to continuous models only")
)

// changeTol is the tolerance used to decide whether re-estimation
// changed a parameter. Exact float comparison would report spurious
// changes when a value is recomputed by a different summation order.
const changeTol = floatx.SmallNumber

// Model holds HMM parameters in log scale.
type Model struct {

	// Model name.
	name string

	// Number of hidden states N. States are labeled {0,1,...,N-1}.
	ns int

	// Number of observable symbols K. Zero for continuous models.
	nsym int

	// Initial state distribution. [ns]
	// π(i) = log P[q(0) = i]
	initProbs []float64

	// State transition distribution. [ns x ns]
	// a(i,j) = log P[q(t+1) = j | q(t) = i]
	transProbs [][]float64

	// Symbol emission distribution, discrete models. [ns x nsym]
	// b(i,k) = log P[o(t) = k | q(t) = i]
	symbolEmissProbs [][]float64

	// Per-timepoint emission log likelihoods, continuous models.
	// [T x ns]; entry (t,i) is the log likelihood of the data at
	// timepoint t being generated by state i.
	timeEmissProbs [][]float64

	// Observed symbol sequence, discrete models. [T]
	observations []int

	// Frequency of each state in the last training pass (linear
	// scale). Diagnostics only, never fed back into training.
	stateFreqs []float64

	hasInitProbs        bool
	hasTransProbs       bool
	hasSymbolEmissProbs bool
	hasObservations     bool
	hasTimeEmissProbs   bool
}

// Option type is used to pass options to NewModel().
type Option func(*Model)

// Name is an option to set the model name.
func Name(name string) Option {
	return func(m *Model) { m.name = name }
}

// NewModel creates an HMM with nstates hidden states. A positive
// nsymbols selects the discrete variant with that alphabet size;
// nsymbols == 0 selects the continuous variant.
func NewModel(nstates, nsymbols int, options ...Option) (*Model, error) {

	if nstates < 1 {
		return nil, fmt.Errorf("num states must be at least 1, got [%d]", nstates)
	}
	if nsymbols < 0 {
		return nil, fmt.Errorf("num symbols must not be negative, got [%d]", nsymbols)
	}

	m := &Model{
		name: "HMM",
		ns:   nstates,
		nsym: nsymbols,
	}
	for _, option := range options {
		option(m)
	}

	kind := "continuous"
	if m.IsDiscrete() {
		kind = "discrete"
	}
	glog.V(2).Infof("new %s model %q: %d states, %d symbols", kind, m.name, nstates, nsymbols)
	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// NStates returns the number of hidden states.
func (m *Model) NStates() int { return m.ns }

// NSymbols returns the alphabet size, zero for continuous models.
func (m *Model) NSymbols() int { return m.nsym }

// IsDiscrete reports whether states emit symbols from a finite
// alphabet.
func (m *Model) IsDiscrete() bool { return m.nsym > 0 }

// checkProbVector validates a linear-scale distribution row: expected
// length, entries in [0,1], sum equal to one within tolerance.
func checkProbVector(probs []float64, n int) error {

	if len(probs) != n {
		return fmt.Errorf("wrong distribution length. expected [%d], got [%d]: %w",
			n, len(probs), ErrInvalidDistribution)
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("entry %d is not a probability: [%f]: %w", i, p, ErrInvalidDistribution)
		}
	}
	if sum := floats.Sum(probs); !floatx.Comparef64(sum, 1.0) {
		return fmt.Errorf("distribution sums to [%f], not 1: %w", sum, ErrInvalidDistribution)
	}
	return nil
}

// SetInitProbs loads the initial state distribution as linear
// probabilities. The row must sum to one.
func (m *Model) SetInitProbs(probs []float64) error {

	if err := checkProbVector(probs, m.ns); err != nil {
		return fmt.Errorf("init probs: %w", err)
	}
	m.initProbs = floatx.Apply(floatx.Log, probs, make([]float64, m.ns))
	m.hasInitProbs = true
	glog.V(3).Infof("model %q: loaded init probs %v", m.name, probs)
	return nil
}

// SetTransProbs loads the state transition matrix as linear
// probabilities. Each of the ns rows must sum to one.
func (m *Model) SetTransProbs(probs [][]float64) error {

	if len(probs) != m.ns {
		return fmt.Errorf("trans probs: expected [%d] rows, got [%d]: %w",
			m.ns, len(probs), ErrInvalidDistribution)
	}
	var result *multierror.Error
	for i := range probs {
		if err := checkProbVector(probs[i], m.ns); err != nil {
			result = multierror.Append(result, fmt.Errorf("trans probs row %d: %w", i, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	m.transProbs = floatx.Apply2D(
		func(i, j int, v float64) float64 { return math.Log(v) },
		probs, floatx.MakeFloat2D(m.ns, m.ns))
	m.hasTransProbs = true
	return nil
}

// SetSymbolEmissProbs loads the symbol emission matrix as linear
// probabilities; row i is the emission distribution of state i over
// the alphabet. Discrete models only.
func (m *Model) SetSymbolEmissProbs(probs [][]float64) error {

	if !m.IsDiscrete() {
		return errNotDiscrete
	}
	if len(probs) != m.ns {
		return fmt.Errorf("symbol emiss probs: expected [%d] rows, got [%d]: %w",
			m.ns, len(probs), ErrInvalidDistribution)
	}
	var result *multierror.Error
	for i := range probs {
		if err := checkProbVector(probs[i], m.nsym); err != nil {
			result = multierror.Append(result, fmt.Errorf("symbol emiss probs row %d: %w", i, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	m.symbolEmissProbs = floatx.Apply2D(
		func(i, j int, v float64) float64 { return math.Log(v) },
		probs, floatx.MakeFloat2D(m.ns, m.nsym))
	m.hasSymbolEmissProbs = true
	return nil
}

// SetTimeEmissProbs loads per-timepoint emission log likelihoods for
// continuous models; row t holds the log likelihood of the data at
// timepoint t under each state. Entries arrive already in log scale.
// No entry may be LogZero: a state that cannot generate some timepoint
// makes every path through that layer impossible and the model
// ill-posed. Rows are shifted by their max to guard against underflow;
// the shift cancels out during re-estimation.
func (m *Model) SetTimeEmissProbs(logProbs [][]float64) error {

	if m.IsDiscrete() {
		return errNotContinuous
	}
	if len(logProbs) == 0 {
		return fmt.Errorf("time emiss probs: empty matrix: %w", ErrInvalidDistribution)
	}

	var result *multierror.Error
	for t := range logProbs {
		if len(logProbs[t]) != m.ns {
			result = multierror.Append(result, fmt.Errorf(
				"time emiss probs row %d: expected [%d] entries, got [%d]: %w",
				t, m.ns, len(logProbs[t]), ErrInvalidDistribution))
			continue
		}
		for i, v := range logProbs[t] {
			if math.IsNaN(v) || math.IsInf(v, 1) || v == floatx.LogZero {
				result = multierror.Append(result, fmt.Errorf(
					"time emiss probs row %d state %d: entry [%f] not a finite log likelihood: %w",
					t, i, v, ErrInvalidDistribution))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	m.timeEmissProbs = floatx.MakeFloat2D(len(logProbs), m.ns)
	for t := range logProbs {
		max := floats.Max(logProbs[t])
		for i, v := range logProbs[t] {
			m.timeEmissProbs[t][i] = v - max
		}
	}
	m.hasTimeEmissProbs = true
	return nil
}

// SetObservations loads the observed symbol sequence. Discrete models
// only; every symbol must be in [0, NSymbols).
func (m *Model) SetObservations(observations []int) error {

	if !m.IsDiscrete() {
		return errNotDiscrete
	}
	if len(observations) == 0 {
		return fmt.Errorf("observations: empty sequence")
	}
	for t, o := range observations {
		if o < 0 || o >= m.nsym {
			return fmt.Errorf("observations: symbol [%d] at timepoint %d out of range [0,%d)",
				o, t, m.nsym)
		}
	}
	m.observations = observations
	m.hasObservations = true
	return nil
}

// HasAllData reports whether the model has loaded everything training
// needs: init and transition probabilities, plus symbol emission
// probabilities and an observation sequence (discrete) or a time
// emission matrix (continuous).
func (m *Model) HasAllData() bool {

	if !m.hasInitProbs || !m.hasTransProbs {
		return false
	}
	if m.IsDiscrete() {
		return m.hasSymbolEmissProbs && m.hasObservations
	}
	return m.hasTimeEmissProbs
}

// NTimepoints returns the observed sequence length M, or zero when the
// observations are not loaded yet.
func (m *Model) NTimepoints() int {
	if m.IsDiscrete() {
		return len(m.observations)
	}
	return len(m.timeEmissProbs)
}

// InitProbs returns the initial state distribution in log scale. The
// slice is owned by the model; callers must not modify it.
func (m *Model) InitProbs() []float64 { return m.initProbs }

// TransProbs returns the transition matrix in log scale. The slices
// are owned by the model; callers must not modify them.
func (m *Model) TransProbs() [][]float64 { return m.transProbs }

// SymbolEmissProbs returns the symbol emission matrix in log scale,
// or nil for continuous models.
func (m *Model) SymbolEmissProbs() [][]float64 { return m.symbolEmissProbs }

// TimeEmissProbs returns the per-timepoint emission log likelihoods,
// or nil for discrete models.
func (m *Model) TimeEmissProbs() [][]float64 { return m.timeEmissProbs }

// Observations returns the observed symbol sequence, or nil for
// continuous models.
func (m *Model) Observations() []int { return m.observations }

// StateFreqs returns the frequency of each state measured during the
// last training call, in linear scale. Nil before the first call.
func (m *Model) StateFreqs() []float64 { return m.stateFreqs }
