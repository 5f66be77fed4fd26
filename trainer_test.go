package markov

import (
	"errors"
	"strings"
	"testing"

	"github.com/tw7649116/markov/floatx"
	"github.com/tw7649116/markov/hmm"
)

func TestParseMethod(t *testing.T) {

	for _, c := range []struct {
		in       string
		expected Method
	}{
		{"viterbi", Viterbi},
		{"baum-welch", BaumWelch},
	} {
		m, e := ParseMethod(c.in)
		if e != nil {
			t.Fatal(e)
		}
		if m != c.expected {
			t.Errorf("wrong method for %q: %v", c.in, m)
		}
		if m.String() != c.in {
			t.Errorf("method string round trip failed for %q, got %q", c.in, m.String())
		}
	}
	if _, e := ParseMethod("gibbs"); e == nil {
		t.Error("expected error for unknown method")
	}
}

func TestTrainViterbi(t *testing.T) {

	m, e := ReadModel(strings.NewReader(testModelTOML))
	if e != nil {
		t.Fatal(e)
	}

	result, e := Train(m, TrainConfig{Method: Viterbi, MaxIterations: 20})
	if e != nil {
		t.Fatal(e)
	}
	if !result.Converged {
		t.Fatalf("viterbi training did not converge in %d iterations", result.Iterations)
	}

	expected := []int{0, 0, 0, 1, 1, 1}
	if len(result.States) != len(expected) {
		t.Fatalf("wrong predicted length: %d", len(result.States))
	}
	for i := range expected {
		if result.States[i] != expected[i] {
			t.Errorf("wrong state at %d. expected %d, got %d", i, expected[i], result.States[i])
		}
	}
}

func TestTrainBaumWelch(t *testing.T) {

	m, e := ReadModel(strings.NewReader(testModelTOML))
	if e != nil {
		t.Fatal(e)
	}

	result, e := Train(m, TrainConfig{Method: BaumWelch, MaxIterations: 50})
	if e != nil {
		t.Fatal(e)
	}
	if len(result.LogLike2) != result.Iterations {
		t.Fatalf("expected one likelihood per iteration, got %d for %d iterations",
			len(result.LogLike2), result.Iterations)
	}
	for i := 1; i < len(result.LogLike2); i++ {
		if result.LogLike2[i] < result.LogLike2[i-1]-floatx.SmallNumber {
			t.Errorf("log likelihood decreased at iteration %d: %f -> %f",
				i, result.LogLike2[i-1], result.LogLike2[i])
		}
	}
}

func TestTrainMissingData(t *testing.T) {

	m, e := hmm.NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	_, e = Train(m, TrainConfig{Method: Viterbi})
	if !errors.Is(e, hmm.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", e)
	}
}

func TestTrainIterationCap(t *testing.T) {

	m, e := ReadModel(strings.NewReader(testModelTOML))
	if e != nil {
		t.Fatal(e)
	}
	result, e := Train(m, TrainConfig{Method: BaumWelch, MaxIterations: 1})
	if e != nil {
		t.Fatal(e)
	}
	if result.Iterations != 1 {
		t.Errorf("expected exactly 1 iteration, got %d", result.Iterations)
	}
	if result.Converged {
		t.Error("a single capped iteration on these parameters must not report convergence")
	}
}
