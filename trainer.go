package markov

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/tw7649116/markov/hmm"
)

// Method selects the re-estimation algorithm for a training run.
type Method int

const (
	// Viterbi re-estimates from hard counts along the best path.
	Viterbi Method = iota
	// BaumWelch re-estimates from per-edge posterior probabilities.
	BaumWelch
)

func (m Method) String() string {
	switch m {
	case Viterbi:
		return "viterbi"
	case BaumWelch:
		return "baum-welch"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod converts a method name to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "viterbi":
		return Viterbi, nil
	case "baum-welch":
		return BaumWelch, nil
	}
	return 0, fmt.Errorf("unknown training method %q", s)
}

// DefaultMaxIterations caps a training run when the parameters keep
// moving.
const DefaultMaxIterations = 100

// TrainConfig controls a training run.
type TrainConfig struct {
	Method Method

	// MaxIterations caps the run; DefaultMaxIterations when zero.
	MaxIterations int
}

// TrainResult describes a finished training run.
type TrainResult struct {

	// Iterations actually performed.
	Iterations int

	// Converged is true when the last iteration changed no parameter,
	// false when the iteration cap stopped the run.
	Converged bool

	// States is the predicted hidden state sequence from the last
	// iteration. Viterbi method only.
	States []int

	// LogLike2 holds the sequence log2 likelihood of each iteration.
	// Baum-Welch method only.
	LogLike2 []float64
}

// Train runs training steps on the model until the parameters stop
// changing or the iteration cap is hit. The model is mutated in place.
func Train(m *hmm.Model, config TrainConfig) (*TrainResult, error) {

	if !m.HasAllData() {
		return nil, hmm.ErrMissingData
	}

	maxIter := config.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	glog.Infof("training model %q: method %v, max %d iterations, %d states, %d timepoints",
		m.Name(), config.Method, maxIter, m.NStates(), m.NTimepoints())

	result := &TrainResult{}
	for i := 0; i < maxIter; i++ {

		var changed bool
		var err error
		switch config.Method {
		case Viterbi:
			changed, result.States, err = m.TrainViterbi()
		case BaumWelch:
			var ll float64
			changed, ll, err = m.TrainBaumWelch()
			if err == nil {
				result.LogLike2 = append(result.LogLike2, ll)
				glog.V(1).Infof("iteration %d: log2 likelihood %f", i, ll)
			}
		default:
			err = fmt.Errorf("unknown training method %v", config.Method)
		}
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}

		result.Iterations = i + 1
		if !changed {
			result.Converged = true
			break
		}
	}

	glog.Infof("training done: %d iterations, converged=%v", result.Iterations, result.Converged)
	return result, nil
}
