// Package numdiff approximates derivatives by central finite differences.
//
// The stencils come from gonum's diff/fd package. Every function here takes an
// explicit spread (the step h) because first and second derivatives need very
// different steps: a second derivative estimated with the 1e-6 step that suits
// a first derivative is dominated by cancellation error.
package numdiff

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/copyleftdev/newtonkit/internal/optimization"
)

const (
	// DefaultSpread is the step for first-derivative estimates.
	DefaultSpread = 1e-6
	// DefaultSecondSpread is the step for second-derivative estimates.
	DefaultSecondSpread = 1e-3
)

// ValidateSpread rejects steps that cannot produce a finite difference.
func ValidateSpread(h float64) error {
	if !(h > 0) || math.IsInf(h, 0) {
		return optimization.WrapErrorf(optimization.ErrInvalidSpread, "spread must be positive and finite, got %v", h).
			WithComponent("numdiff")
	}
	return nil
}

// Derivative returns (f(x+h) - f(x-h)) / 2h.
func Derivative(f func(float64) float64, x, h float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Central,
		Step:    h,
	})
}

// SecondDerivative returns the three-point estimate
// ((f(x+h) - f(x)) - (f(x) - f(x-h))) / h^2.
func SecondDerivative(f func(float64) float64, x, h float64) float64 {
	return fd.Derivative(f, x, &fd.Settings{
		Formula: fd.Central2nd,
		Step:    h,
	})
}

// DerivativeOfDerivative estimates f'' as the central difference of an
// already available first derivative fp, using its own step h2.
func DerivativeOfDerivative(fp func(float64) float64, x, h2 float64) float64 {
	return Derivative(fp, x, h2)
}

// Partial returns the central-difference partial derivative of f with respect
// to x[i]. x[i] is perturbed in place and restored before returning, even if
// f panics.
func Partial(f func([]float64) float64, x []float64, i int, h float64) float64 {
	orig := x[i]
	defer func() { x[i] = orig }()

	return Derivative(func(t float64) float64 {
		x[i] = t
		return f(x)
	}, orig, h)
}

// Gradient fills dst with one Partial per coordinate of x and returns it.
// A nil dst is allocated. It panics if dst and x differ in length.
func Gradient(dst []float64, f func([]float64) float64, x []float64, h float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	if len(dst) != len(x) {
		panic("numdiff: slice length mismatch")
	}
	for i := range x {
		dst[i] = Partial(f, x, i, h)
	}
	return dst
}
