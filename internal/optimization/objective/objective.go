// Package objective binds a scalar function of (variables, constants) with
// the way its gradient is obtained.
package objective

import (
	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/numdiff"
	"github.com/copyleftdev/newtonkit/internal/optimization/vector"
)

// Function maps (variables, constants) to a scalar. It must not keep or
// modify either slice.
type Function func(variables, constants []float64) float64

// GradientFunc returns the gradient of a Function; the result must have the
// same length as variables.
type GradientFunc func(variables, constants []float64) []float64

// Differentiation selects how gradients are produced. It is either Analytic
// or Approximate.
type Differentiation interface {
	differentiation()
}

// Analytic uses a caller-supplied gradient.
type Analytic struct {
	Gradient GradientFunc
}

// Approximate uses central finite differences. A zero Spread defers to the
// spread requested by the solver.
type Approximate struct {
	Spread float64
}

func (Analytic) differentiation()    {}
func (Approximate) differentiation() {}

// Objective is a Function together with its Differentiation and a scale
// applied to both value and gradient.
type Objective struct {
	f     Function
	diff  Differentiation
	scale float64
}

// Option configures an Objective.
type Option func(*Objective)

// WithAnalyticGradient supplies an exact gradient.
func WithAnalyticGradient(g GradientFunc) Option {
	return func(o *Objective) {
		o.diff = Analytic{Gradient: g}
	}
}

// WithApproximateGradient forces finite differences with a fixed spread.
func WithApproximateGradient(spread float64) Option {
	return func(o *Objective) {
		o.diff = Approximate{Spread: spread}
	}
}

// WithScale multiplies the objective and its gradient by s.
func WithScale(s float64) Option {
	return func(o *Objective) {
		o.scale = s
	}
}

// New creates an Objective. Without options the gradient is approximated and
// the scale is 1.
func New(f Function, opts ...Option) (*Objective, error) {
	if f == nil {
		return nil, optimization.WrapError(optimization.ErrNilFunction, "objective function is required").
			WithComponent("objective")
	}

	o := &Objective{
		f:     f,
		diff:  Approximate{},
		scale: 1,
	}
	for _, opt := range opts {
		opt(o)
	}

	switch d := o.diff.(type) {
	case Analytic:
		if d.Gradient == nil {
			return nil, optimization.WrapError(optimization.ErrNilFunction, "analytic gradient is nil").
				WithComponent("objective")
		}
	case Approximate:
		if d.Spread != 0 {
			if err := numdiff.ValidateSpread(d.Spread); err != nil {
				return nil, err
			}
		}
	}

	return o, nil
}

// IsAnalytic reports whether the gradient is caller-supplied.
func (o *Objective) IsAnalytic() bool {
	_, ok := o.diff.(Analytic)
	return ok
}

// Scale returns the multiplier applied to value and gradient.
func (o *Objective) Scale() float64 {
	return o.scale
}

// Eval evaluates the scaled objective.
func (o *Objective) Eval(variables, constants []float64) float64 {
	return o.scale * o.f(variables, constants)
}

// Gradient returns the scaled gradient at variables in a new slice the caller
// owns. spread is used only by an Approximate objective without its own
// spread. variables holds the same values on return as on entry.
func (o *Objective) Gradient(variables, constants []float64, spread float64) ([]float64, error) {
	switch d := o.diff.(type) {
	case Analytic:
		g := d.Gradient(variables, constants)
		if len(g) != len(variables) {
			return nil, optimization.WrapErrorf(optimization.ErrDimensionMismatch,
				"gradient has %d components for %d variables", len(g), len(variables)).
				WithComponent("objective").WithOperation("gradient")
		}
		return vector.Scaled(g, o.scale), nil

	case Approximate:
		h := spread
		if d.Spread != 0 {
			h = d.Spread
		}
		if err := numdiff.ValidateSpread(h); err != nil {
			return nil, err
		}
		eval := func(x []float64) float64 { return o.Eval(x, constants) }
		return numdiff.Gradient(nil, eval, variables, h), nil
	}

	return nil, optimization.NewErrorf("unknown differentiation %T", o.diff).WithComponent("objective")
}
