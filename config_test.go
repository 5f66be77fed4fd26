package markov

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tw7649116/markov/floatx"
	"github.com/tw7649116/markov/hmm"
)

const testModelTOML = `
name = "weather"
states = 2
symbols = 2
init_probs = [0.5, 0.5]
trans_probs = [[0.9, 0.1], [0.1, 0.9]]
symbol_emiss_probs = [[0.9, 0.1], [0.1, 0.9]]
observations = [0, 0, 0, 1, 1, 1]
`

func TestReadModel(t *testing.T) {

	m, e := ReadModel(strings.NewReader(testModelTOML))
	if e != nil {
		t.Fatal(e)
	}
	if !m.HasAllData() {
		t.Fatal("model must be ready after load")
	}
	if m.Name() != "weather" {
		t.Errorf("wrong name: %q", m.Name())
	}
	if m.NStates() != 2 || m.NSymbols() != 2 || m.NTimepoints() != 6 {
		t.Errorf("wrong shape: %d states, %d symbols, %d timepoints",
			m.NStates(), m.NSymbols(), m.NTimepoints())
	}
}

func TestReadModelInvalidDistribution(t *testing.T) {

	bad := strings.Replace(testModelTOML, "init_probs = [0.5, 0.5]", "init_probs = [0.4, 0.4]", 1)
	_, e := ReadModel(strings.NewReader(bad))
	if !errors.Is(e, hmm.ErrInvalidDistribution) {
		t.Fatalf("expected ErrInvalidDistribution, got %v", e)
	}
}

func TestReadModelContinuous(t *testing.T) {

	src := `
name = "cn"
states = 2
symbols = 0
init_probs = [0.5, 0.5]
trans_probs = [[0.9, 0.1], [0.1, 0.9]]
time_emiss_probs = [[-1.0, -2.0], [-2.0, -1.0]]
`
	m, e := ReadModel(strings.NewReader(src))
	if e != nil {
		t.Fatal(e)
	}
	if m.IsDiscrete() {
		t.Fatal("expected continuous model")
	}
	if !m.HasAllData() {
		t.Fatal("continuous model must be ready")
	}
}

func TestModelRoundTrip(t *testing.T) {

	m, e := ReadModel(strings.NewReader(testModelTOML))
	if e != nil {
		t.Fatal(e)
	}

	var buf bytes.Buffer
	if e := WriteModel(&buf, m); e != nil {
		t.Fatal(e)
	}
	m2, e := ReadModel(&buf)
	if e != nil {
		t.Fatal(e)
	}

	for i, v := range m.InitProbs() {
		if !floatx.Comparef64(v, m2.InitProbs()[i]) {
			t.Errorf("init prob %d changed in round trip: %f vs %f", i, v, m2.InitProbs()[i])
		}
	}
	for i, row := range m.TransProbs() {
		for j, v := range row {
			if !floatx.Comparef64(v, m2.TransProbs()[i][j]) {
				t.Errorf("trans prob (%d,%d) changed in round trip", i, j)
			}
		}
	}
	for i, o := range m.Observations() {
		if m2.Observations()[i] != o {
			t.Errorf("observation %d changed in round trip", i)
		}
	}
}
