// Package optimizationtest holds numeric assertions and reference problems
// shared by the solver tests.
package optimizationtest

import (
	"math"
	"testing"
)

// AssertFloat64SlicesEqual checks if two float64 slices are approximately equal
func AssertFloat64SlicesEqual(t testing.TB, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// AssertFinite fails the test if any element is NaN or infinite.
func AssertFinite(t testing.TB, got []float64) {
	t.Helper()

	for i, v := range got {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("at index %d: got non-finite value %v", i, v)
		}
	}
}

// SumOfSquares returns sum(x_i - c_i)^2. Its root is x = c.
func SumOfSquares(variables, constants []float64) float64 {
	sum := 0.0
	for i, v := range variables {
		d := v - constants[i]
		sum += d * d
	}
	return sum
}

// SumOfSquaresGradient is the analytic gradient of SumOfSquares.
func SumOfSquaresGradient(variables, constants []float64) []float64 {
	g := make([]float64, len(variables))
	for i, v := range variables {
		g[i] = 2 * (v - constants[i])
	}
	return g
}

// Plane returns sum(w_i * x_i) with weights taken from constants.
// It is linear, so a unit-attenuation step reaches any target in one iteration.
func Plane(variables, constants []float64) float64 {
	sum := 0.0
	for i, v := range variables {
		sum += constants[i] * v
	}
	return sum
}

// PlaneGradient is the analytic gradient of Plane.
func PlaneGradient(variables, constants []float64) []float64 {
	return append([]float64(nil), constants[:len(variables)]...)
}
