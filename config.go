// Package markov loads hidden Markov models from TOML files and drives
// iterative training to convergence. The numeric core lives in the hmm
// and wdag packages; this package is the thin caller layer around it.
package markov

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/tw7649116/markov/hmm"
)

// ModelSpec is the TOML representation of a model. Probabilities are
// linear except time_emiss_probs, which holds log likelihoods.
type ModelSpec struct {
	Name    string `toml:"name"`
	States  int    `toml:"states"`
	Symbols int    `toml:"symbols"`

	InitProbs  []float64   `toml:"init_probs"`
	TransProbs [][]float64 `toml:"trans_probs"`

	// Discrete models.
	SymbolEmissProbs [][]float64 `toml:"symbol_emiss_probs,omitempty"`
	Observations     []int       `toml:"observations,omitempty"`

	// Continuous models.
	TimeEmissProbs [][]float64 `toml:"time_emiss_probs,omitempty"`
}

// Model builds an hmm.Model from the decoded file, applying every
// loaded section. All validation failures are collected and reported
// together.
func (s *ModelSpec) Model() (*hmm.Model, error) {

	name := s.Name
	if name == "" {
		name = "HMM"
	}
	m, err := hmm.NewModel(s.States, s.Symbols, hmm.Name(name))
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	if s.InitProbs != nil {
		result = multierror.Append(result, m.SetInitProbs(s.InitProbs))
	}
	if s.TransProbs != nil {
		result = multierror.Append(result, m.SetTransProbs(s.TransProbs))
	}
	if s.SymbolEmissProbs != nil {
		result = multierror.Append(result, m.SetSymbolEmissProbs(s.SymbolEmissProbs))
	}
	if s.Observations != nil {
		result = multierror.Append(result, m.SetObservations(s.Observations))
	}
	if s.TimeEmissProbs != nil {
		result = multierror.Append(result, m.SetTimeEmissProbs(s.TimeEmissProbs))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadModel decodes a ModelSpec from TOML and builds the model.
func ReadModel(r io.Reader) (*hmm.Model, error) {

	var spec ModelSpec
	if _, err := toml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	return spec.Model()
}

// ReadModelFile reads a model from a TOML file.
func ReadModelFile(fn string) (*hmm.Model, error) {

	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadModel(f)
}

// Spec exports the model back into its TOML representation, converting
// stored log probabilities to linear scale.
func Spec(m *hmm.Model) *ModelSpec {

	spec := &ModelSpec{
		Name:    m.Name(),
		States:  m.NStates(),
		Symbols: m.NSymbols(),
	}
	spec.InitProbs = expSlice(m.InitProbs())
	spec.TransProbs = expMatrix(m.TransProbs())
	if m.IsDiscrete() {
		spec.SymbolEmissProbs = expMatrix(m.SymbolEmissProbs())
		spec.Observations = m.Observations()
	} else {
		// Already log likelihoods; exported as stored.
		spec.TimeEmissProbs = m.TimeEmissProbs()
	}
	return spec
}

// WriteModel encodes the model as TOML.
func WriteModel(w io.Writer, m *hmm.Model) error {
	return toml.NewEncoder(w).Encode(Spec(m))
}

// WriteModelFile writes a model to a TOML file.
func WriteModelFile(fn string, m *hmm.Model) error {

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := WriteModel(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func expSlice(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = math.Exp(v)
	}
	return out
}

func expMatrix(in [][]float64) [][]float64 {
	if in == nil {
		return nil
	}
	out := make([][]float64, len(in))
	for i := range in {
		out[i] = expSlice(in[i])
	}
	return out
}
