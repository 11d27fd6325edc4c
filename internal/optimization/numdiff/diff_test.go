package numdiff

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/newtonkit/internal/optimization"
)

func square(x float64) float64 { return x * x }

func TestDerivative(t *testing.T) {
	tests := []struct {
		name     string
		f        func(float64) float64
		x        float64
		h        float64
		expected float64
		tol      float64
	}{
		{name: "square at 3", f: square, x: 3, h: 1e-6, expected: 6, tol: 1e-5},
		{name: "cube at 2", f: func(x float64) float64 { return x * x * x }, x: 2, h: 1e-6, expected: 12, tol: 1e-5},
		{name: "sin at 0", f: math.Sin, x: 0, h: 1e-5, expected: 1, tol: 1e-8},
		{name: "exp at 1", f: math.Exp, x: 1, h: 1e-5, expected: math.E, tol: 1e-7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derivative(tt.f, tt.x, tt.h)
			assert.InDelta(t, tt.expected, got, tt.tol)
		})
	}
}

func TestDerivativeIsCentral(t *testing.T) {
	// A central difference is exact for quadratics regardless of step.
	f := func(x float64) float64 { return 3*x*x - 2*x + 1 }
	got := Derivative(f, 2, 0.5)
	assert.InDelta(t, 10.0, got, 1e-12)
}

func TestSecondDerivative(t *testing.T) {
	tests := []struct {
		name     string
		f        func(float64) float64
		x        float64
		expected float64
	}{
		{name: "square", f: square, x: 3, expected: 2},
		{name: "cube", f: func(x float64) float64 { return x * x * x }, x: 2, expected: 12},
		{name: "cos at 0", f: math.Cos, x: 0, expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SecondDerivative(tt.f, tt.x, DefaultSecondSpread)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestDerivativeOfDerivative(t *testing.T) {
	fp := func(x float64) float64 { return Derivative(func(y float64) float64 { return y * y * y }, x, DefaultSpread) }
	got := DerivativeOfDerivative(fp, 2, DefaultSecondSpread)
	assert.InDelta(t, 12.0, got, 1e-4)
}

func TestPartialRestoresCoordinate(t *testing.T) {
	x := []float64{1, 2, 3}
	f := func(v []float64) float64 { return v[0] * v[1] * v[2] }

	got := Partial(f, x, 1, DefaultSpread)

	assert.InDelta(t, 3.0, got, 1e-6)
	assert.Equal(t, []float64{1, 2, 3}, x)
}

func TestPartialRestoresOnPanic(t *testing.T) {
	x := []float64{1, 2}
	f := func(v []float64) float64 { panic("boom") }

	assert.Panics(t, func() { Partial(f, x, 0, DefaultSpread) })
	assert.Equal(t, []float64{1, 2}, x)
}

func TestGradient(t *testing.T) {
	x := []float64{1, -2}
	f := func(v []float64) float64 { return v[0]*v[0] + 3*v[0]*v[1] }

	got := Gradient(nil, f, x, DefaultSpread)

	require.Len(t, got, 2)
	assert.InDelta(t, 2*1+3*-2, got[0], 1e-5)
	assert.InDelta(t, 3*1, got[1], 1e-5)
	assert.Equal(t, []float64{1, -2}, x)

	assert.Panics(t, func() { Gradient(make([]float64, 3), f, x, DefaultSpread) })
}

func TestValidateSpread(t *testing.T) {
	tests := []struct {
		name    string
		h       float64
		wantErr bool
	}{
		{name: "default", h: DefaultSpread},
		{name: "zero", h: 0, wantErr: true},
		{name: "negative", h: -1e-6, wantErr: true},
		{name: "nan", h: math.NaN(), wantErr: true},
		{name: "inf", h: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpread(tt.h)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, optimization.ErrInvalidSpread))
				return
			}
			assert.NoError(t, err)
		})
	}
}
