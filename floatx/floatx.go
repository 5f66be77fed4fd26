// Package floatx provides float64 slice helpers and log-domain scalar
// arithmetic shared by the markov packages.
package floatx

import (
	"math"
)

type Error string

func (err Error) Error() string { return string(err) }

const ErrZeroLength = Error("floatx: zero length in slice definition")

// SmallNumber is the default tolerance for probability comparisons.
const SmallNumber = 0.000001

// LogZero represents probability zero in the log domain. math.Log(0)
// returns this value, so converting an impossible event to log scale
// produces the sentinel without special casing.
var LogZero = math.Inf(-1)

// LogAdd returns log(exp(a) + exp(b)) computed without leaving the log
// domain. Adding LogZero returns the other value unchanged.
func LogAdd(a, b float64) float64 {

	if a == LogZero {
		return b
	}
	if b == LogZero {
		return a
	}
	// Factor out the max so the remaining exp cannot underflow.
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// Comparef64 returns true if the values are equal within SmallNumber.
func Comparef64(f1, f2 float64) bool {
	return Comparef64Tol(f1, f2, SmallNumber)
}

// Comparef64Tol returns true if the values are equal within tol.
// Equal infinities compare equal.
func Comparef64Tol(f1, f2, tol float64) bool {
	if f1 == f2 {
		return true
	}
	return math.Abs(f1-f2) < tol
}

var Log = func(r int, v float64) float64 { return math.Log(v) }

func SetValueFunc(f float64) ApplyFunc {
	return func(r int, v float64) float64 { return f }
}

func MakeFloat2D(n1, n2 int) [][]float64 {

	s := make([][]float64, n1)
	for i := 0; i < n1; i++ {
		s[i] = make([]float64, n2)
	}

	return s
}

func Check2D(s [][]float64) (n1, n2 int) {

	n1 = len(s)
	if n1 == 0 {
		panic(ErrZeroLength)
	}

	n2 = len(s[0])
	if n2 == 0 {
		panic(ErrZeroLength)
	}

	return n1, n2
}

type ApplyFunc func(n int, v float64) float64
type ApplyFunc2D func(n1, n2 int, v float64) float64

// Apply function to 1D slice. If out slice is empty, the function is applied in place.
func Apply(fn ApplyFunc, in, out []float64) []float64 {

	n := len(in)
	if n == 0 {
		panic(ErrZeroLength)
	}
	if len(out) == 0 {
		out = in
	}
	for i := 0; i < n; i++ {
		out[i] = fn(i, in[i])
	}

	return out
}

// Apply function to 2D slice. If out slice is empty, the function is applied in place.
func Apply2D(fn ApplyFunc2D, in, out [][]float64) [][]float64 {

	n1, n2 := Check2D(in)
	if len(out) == 0 {
		out = in
	}
	for i := 0; i < n1; i++ {
		for j := 0; j < n2; j++ {
			out[i][j] = fn(i, j, in[i][j])
		}
	}

	return out
}

// Set all values to zero.
func Clear(s []float64) {

	Apply(SetValueFunc(0), s, nil)
}

// Set all values to zero.
func Clear2D(s [][]float64) {

	for _, slice := range s {
		Clear(slice)
	}
}

// Fill sets all values to v.
func Fill(s []float64, v float64) {

	Apply(SetValueFunc(v), s, nil)
}

// Fill2D sets all values to v.
func Fill2D(s [][]float64, v float64) {

	for _, slice := range s {
		Fill(slice, v)
	}
}
