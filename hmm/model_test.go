package hmm

import (
	"errors"
	"math"
	"testing"

	"github.com/tw7649116/markov/floatx"
)

// MakeDiscreteModel returns the reference 2-state/2-symbol model used
// across the training tests.
func MakeDiscreteModel(t *testing.T, obs []int) *Model {

	m, e := NewModel(2, 2, Name("test-discrete"))
	if e != nil {
		t.Fatal(e)
	}
	if e := m.SetInitProbs([]float64{0.5, 0.5}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetTransProbs([][]float64{{0.9, 0.1}, {0.1, 0.9}}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetSymbolEmissProbs([][]float64{{0.9, 0.1}, {0.1, 0.9}}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObservations(obs); e != nil {
		t.Fatal(e)
	}
	return m
}

func TestNewModelArgs(t *testing.T) {

	if _, e := NewModel(0, 2); e == nil {
		t.Error("expected error for zero states")
	}
	if _, e := NewModel(2, -1); e == nil {
		t.Error("expected error for negative symbol count")
	}
}

func TestInitProbsMustSumToOne(t *testing.T) {

	m, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	e = m.SetInitProbs([]float64{0.4, 0.4})
	if !errors.Is(e, ErrInvalidDistribution) {
		t.Fatalf("expected ErrInvalidDistribution, got %v", e)
	}
	if m.HasAllData() {
		t.Error("model must not be ready after a rejected distribution")
	}
}

func TestTransProbsRowValidation(t *testing.T) {

	m, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}

	// Both bad rows must be reported.
	e = m.SetTransProbs([][]float64{{0.5, 0.4}, {1.5, -0.5}})
	if !errors.Is(e, ErrInvalidDistribution) {
		t.Fatalf("expected ErrInvalidDistribution, got %v", e)
	}

	e = m.SetTransProbs([][]float64{{0.9, 0.1}})
	if !errors.Is(e, ErrInvalidDistribution) {
		t.Fatalf("expected ErrInvalidDistribution for wrong row count, got %v", e)
	}
}

func TestVariantExclusive(t *testing.T) {

	discrete, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	if e := discrete.SetTimeEmissProbs([][]float64{{-1, -2}}); e == nil {
		t.Error("discrete model must reject a time emission matrix")
	}

	continuous, e := NewModel(2, 0)
	if e != nil {
		t.Fatal(e)
	}
	if e := continuous.SetSymbolEmissProbs([][]float64{{0.5, 0.5}, {0.5, 0.5}}); e == nil {
		t.Error("continuous model must reject a symbol emission matrix")
	}
	if e := continuous.SetObservations([]int{0, 1}); e == nil {
		t.Error("continuous model must reject a symbol sequence")
	}
}

func TestTimeEmissProbsRejectLogZero(t *testing.T) {

	m, e := NewModel(2, 0)
	if e != nil {
		t.Fatal(e)
	}
	e = m.SetTimeEmissProbs([][]float64{
		{-1.0, -2.0},
		{-0.5, floatx.LogZero},
	})
	if !errors.Is(e, ErrInvalidDistribution) {
		t.Fatalf("expected ErrInvalidDistribution, got %v", e)
	}
}

func TestTimeEmissProbsRowShift(t *testing.T) {

	m, e := NewModel(2, 0)
	if e != nil {
		t.Fatal(e)
	}
	if e := m.SetTimeEmissProbs([][]float64{{-10, -12}, {-300, -280}}); e != nil {
		t.Fatal(e)
	}

	// Every row is shifted so its max entry is 0.
	for t_, row := range m.TimeEmissProbs() {
		max := math.Inf(-1)
		for _, v := range row {
			if v > max {
				max = v
			}
		}
		if max != 0 {
			t.Errorf("row %d not shifted by its max, max is %f", t_, max)
		}
	}
}

func TestObservationsRange(t *testing.T) {

	m, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	if e := m.SetObservations([]int{0, 2}); e == nil {
		t.Error("expected error for out-of-range symbol")
	}
	if e := m.SetObservations([]int{}); e == nil {
		t.Error("expected error for empty sequence")
	}
}

func TestHasAllData(t *testing.T) {

	m, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	if m.HasAllData() {
		t.Fatal("empty model must not be ready")
	}
	if e := m.SetInitProbs([]float64{0.5, 0.5}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetTransProbs([][]float64{{0.9, 0.1}, {0.1, 0.9}}); e != nil {
		t.Fatal(e)
	}
	if m.HasAllData() {
		t.Fatal("discrete model must not be ready without emissions and observations")
	}
	if e := m.SetSymbolEmissProbs([][]float64{{0.9, 0.1}, {0.1, 0.9}}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObservations([]int{0, 1}); e != nil {
		t.Fatal(e)
	}
	if !m.HasAllData() {
		t.Fatal("discrete model must be ready")
	}

	c, e := NewModel(2, 0)
	if e != nil {
		t.Fatal(e)
	}
	if e := c.SetInitProbs([]float64{0.5, 0.5}); e != nil {
		t.Fatal(e)
	}
	if e := c.SetTransProbs([][]float64{{0.9, 0.1}, {0.1, 0.9}}); e != nil {
		t.Fatal(e)
	}
	if c.HasAllData() {
		t.Fatal("continuous model must not be ready without a time emission matrix")
	}
	if e := c.SetTimeEmissProbs([][]float64{{-1, -2}, {-2, -1}}); e != nil {
		t.Fatal(e)
	}
	if !c.HasAllData() {
		t.Fatal("continuous model must be ready")
	}
}

// CheckRowsNormalized verifies that every loaded distribution row
// exponentiates and sums to one within tolerance.
func CheckRowsNormalized(t *testing.T, m *Model, context string) {
	t.Helper()

	sumExp := func(row []float64) float64 {
		sum := 0.0
		for _, v := range row {
			sum += math.Exp(v)
		}
		return sum
	}

	if s := sumExp(m.InitProbs()); !floatx.Comparef64(s, 1.0) {
		t.Errorf("[%s] init probs sum to %f", context, s)
	}
	for i, row := range m.TransProbs() {
		if s := sumExp(row); !floatx.Comparef64(s, 1.0) {
			t.Errorf("[%s] trans probs row %d sums to %f", context, i, s)
		}
	}
	if m.IsDiscrete() {
		for i, row := range m.SymbolEmissProbs() {
			if s := sumExp(row); !floatx.Comparef64(s, 1.0) {
				t.Errorf("[%s] emiss probs row %d sums to %f", context, i, s)
			}
		}
	}
}

func TestRowsNormalizedAfterLoad(t *testing.T) {

	m := MakeDiscreteModel(t, []int{0, 0, 1})
	CheckRowsNormalized(t, m, "after load")
}
