package hmm

import (
	"errors"
	"strings"
	"testing"
)

func TestGraphNodeCount(t *testing.T) {

	obs := []int{0, 0, 0, 1, 1, 1}
	m := MakeDiscreteModel(t, obs)

	g, e := m.Graph()
	if e != nil {
		t.Fatal(e)
	}

	N, M := m.NStates(), m.NTimepoints()
	if want := 2*N*M + 2; g.N() != want {
		t.Errorf("wrong node count. expected %d, got %d", want, g.N())
	}
	// N start + N^2 per transition layer + N*M emissions + N finish.
	if want := N + N*N*(M-1) + N*M + N; g.NumEdges() != want {
		t.Errorf("wrong edge count. expected %d, got %d", want, g.NumEdges())
	}
}

func TestGraphNodeCountContinuous(t *testing.T) {

	m, e := NewModel(3, 0)
	if e != nil {
		t.Fatal(e)
	}
	if e := m.SetInitProbs([]float64{0.4, 0.3, 0.3}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetTransProbs([][]float64{
		{0.8, 0.1, 0.1},
		{0.1, 0.8, 0.1},
		{0.1, 0.1, 0.8},
	}); e != nil {
		t.Fatal(e)
	}
	if e := m.SetTimeEmissProbs([][]float64{
		{-1, -2, -3},
		{-2, -1, -3},
		{-3, -2, -1},
		{-1, -1, -1},
	}); e != nil {
		t.Fatal(e)
	}

	g, e := m.Graph()
	if e != nil {
		t.Fatal(e)
	}
	if want := 2*3*4 + 2; g.N() != want {
		t.Errorf("wrong node count. expected %d, got %d", want, g.N())
	}
}

func TestGraphMissingData(t *testing.T) {

	m, e := NewModel(2, 2)
	if e != nil {
		t.Fatal(e)
	}
	_, e = m.Graph()
	if !errors.Is(e, ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", e)
	}
}

func TestNodeLabels(t *testing.T) {

	m := MakeDiscreteModel(t, []int{0, 1})

	cases := []struct {
		id       int
		expected string
	}{
		{0, "START"},
		{1, "0_0_R"},
		{2, "0_1_R"},
		{3, "0_0_E"},
		{4, "0_1_E"},
		{5, "1_0_R"},
		{8, "1_1_E"},
		{9, "END"},
	}
	for _, c := range cases {
		if got := m.nodeLabel(c.id); got != c.expected {
			t.Errorf("wrong label for node %d. expected %q, got %q", c.id, c.expected, got)
		}
	}
}

func TestDOTAtTimepoint(t *testing.T) {

	m := MakeDiscreteModel(t, []int{0, 0, 1, 1})

	b, e := m.DOTAtTimepoint(0, 1)
	if e != nil {
		t.Fatal(e)
	}
	s := string(b)
	if !strings.Contains(s, "START") {
		t.Errorf("window covering timepoint 0 must include the start node:\n%s", s)
	}
	if strings.Contains(s, "END") {
		t.Errorf("window not reaching the last timepoint must exclude the end node:\n%s", s)
	}

	if _, e := m.DOTAtTimepoint(7, 1); e == nil {
		t.Error("expected error for out-of-range timepoint")
	}
}
