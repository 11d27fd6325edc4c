package univariate

import (
	"fmt"
	"math"

	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/numdiff"
)

// Function is a scalar function of one variable.
type Function func(x float64) float64

// Strategy computes the step of one root-finding method.
type Strategy interface {
	// Name identifies the method in logs and metrics.
	Name() string
	// Value evaluates the function being solved.
	Value(x float64) float64
	// Step returns the displacement from x given residual = f(x) - target.
	// It returns an error wrapping optimization.ErrDegenerateDirection when
	// no finite step exists.
	Step(x, residual float64) (float64, error)
	// Derivative returns f'(x), analytic or approximated.
	Derivative(x float64) float64
}

// SecondDerivativeMode selects how f'' is approximated when no analytic
// second derivative is given.
type SecondDerivativeMode int

const (
	// DerivativeOfDerivative differentiates f' with the second spread.
	DerivativeOfDerivative SecondDerivativeMode = iota
	// ThreePoint uses (f(x+h) - 2f(x) + f(x-h)) / h^2 with the second spread.
	ThreePoint
)

func (m SecondDerivativeMode) String() string {
	switch m {
	case DerivativeOfDerivative:
		return "derivative_of_derivative"
	case ThreePoint:
		return "three_point"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// derivatives resolves f' and f'' for a strategy, analytic where given and
// by finite differences otherwise.
type derivatives struct {
	f, d, dd     Function
	spread       float64
	secondSpread float64
	mode         SecondDerivativeMode
}

// Option configures a Strategy.
type Option func(*derivatives)

// WithDerivative supplies an analytic first derivative.
func WithDerivative(d Function) Option {
	return func(ds *derivatives) {
		ds.d = d
	}
}

// WithSecondDerivative supplies an analytic second derivative. Only Halley
// uses it.
func WithSecondDerivative(dd Function) Option {
	return func(ds *derivatives) {
		ds.dd = dd
	}
}

// WithDerivativeSpread sets the step for approximating f'.
func WithDerivativeSpread(h float64) Option {
	return func(ds *derivatives) {
		ds.spread = h
	}
}

// WithSecondDerivativeSpread sets the step for approximating f''.
func WithSecondDerivativeSpread(h float64) Option {
	return func(ds *derivatives) {
		ds.secondSpread = h
	}
}

// WithSecondDerivativeMode selects the f'' approximation.
func WithSecondDerivativeMode(m SecondDerivativeMode) Option {
	return func(ds *derivatives) {
		ds.mode = m
	}
}

func newDerivatives(component string, f Function, opts []Option) (*derivatives, error) {
	if f == nil {
		return nil, optimization.WrapError(optimization.ErrNilFunction, "function is required").
			WithComponent(component)
	}

	ds := &derivatives{
		f:            f,
		spread:       numdiff.DefaultSpread,
		secondSpread: numdiff.DefaultSecondSpread,
		mode:         DerivativeOfDerivative,
	}
	for _, opt := range opts {
		opt(ds)
	}

	if err := numdiff.ValidateSpread(ds.spread); err != nil {
		return nil, err
	}
	if err := numdiff.ValidateSpread(ds.secondSpread); err != nil {
		return nil, err
	}
	if ds.mode != DerivativeOfDerivative && ds.mode != ThreePoint {
		return nil, optimization.NewErrorf("unknown second derivative mode %v", ds.mode).WithComponent(component)
	}
	return ds, nil
}

func (ds *derivatives) first(x float64) float64 {
	if ds.d != nil {
		return ds.d(x)
	}
	return numdiff.Derivative(ds.f, x, ds.spread)
}

func (ds *derivatives) second(x float64) float64 {
	if ds.dd != nil {
		return ds.dd(x)
	}
	if ds.mode == ThreePoint {
		return numdiff.SecondDerivative(ds.f, x, ds.secondSpread)
	}
	return numdiff.DerivativeOfDerivative(ds.first, x, ds.secondSpread)
}

func degenerate(component, format string, args ...interface{}) error {
	return optimization.WrapErrorf(optimization.ErrDegenerateDirection, format, args...).
		WithComponent(component).WithOperation("step")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewtonRaphson steps by -(f(x) - target) / f'(x). Convergence is quadratic
// near a simple root.
type NewtonRaphson struct {
	ds *derivatives
}

// NewNewtonRaphson creates a Newton-Raphson strategy for f.
func NewNewtonRaphson(f Function, opts ...Option) (*NewtonRaphson, error) {
	ds, err := newDerivatives("newton_raphson", f, opts)
	if err != nil {
		return nil, err
	}
	return &NewtonRaphson{ds: ds}, nil
}

func (n *NewtonRaphson) Name() string { return "newton_raphson" }

func (n *NewtonRaphson) Value(x float64) float64 { return n.ds.f(x) }

func (n *NewtonRaphson) Derivative(x float64) float64 { return n.ds.first(x) }

func (n *NewtonRaphson) Step(x, residual float64) (float64, error) {
	d := n.ds.first(x)
	if d == 0 || !finite(d) {
		return 0, degenerate(n.Name(), "derivative is %v at x=%v", d, x)
	}
	dx := -residual / d
	if !finite(dx) {
		return 0, degenerate(n.Name(), "step is %v at x=%v", dx, x)
	}
	return dx, nil
}

// Halley steps by -2 f f' / (2 f'^2 - f f'') with f = f(x) - target.
// Convergence is cubic when f' is non-zero at the root.
type Halley struct {
	ds *derivatives
}

// NewHalley creates a Halley strategy for f.
func NewHalley(f Function, opts ...Option) (*Halley, error) {
	ds, err := newDerivatives("halley", f, opts)
	if err != nil {
		return nil, err
	}
	return &Halley{ds: ds}, nil
}

func (h *Halley) Name() string { return "halley" }

func (h *Halley) Value(x float64) float64 { return h.ds.f(x) }

func (h *Halley) Derivative(x float64) float64 { return h.ds.first(x) }

// SecondDerivative returns f''(x), analytic or approximated.
func (h *Halley) SecondDerivative(x float64) float64 { return h.ds.second(x) }

func (h *Halley) Step(x, residual float64) (float64, error) {
	fd := h.ds.first(x)
	fdd := h.ds.second(x)
	denom := 2*fd*fd - residual*fdd
	if denom == 0 || !finite(denom) {
		return 0, degenerate(h.Name(), "denominator is %v at x=%v", denom, x)
	}
	dx := -2 * residual * fd / denom
	if !finite(dx) {
		return 0, degenerate(h.Name(), "step is %v at x=%v", dx, x)
	}
	return dx, nil
}
