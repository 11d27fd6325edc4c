// Package univariate finds x such that f(x) equals a target, using
// interchangeable step strategies over a shared stopping policy.
package univariate

import (
	"errors"

	"github.com/copyleftdev/newtonkit/internal/optimization"
)

// Solution is the outcome of a Solve.
type Solution struct {
	// Value is the final iterate.
	Value float64 `json:"value"`
	// Satisfied reports whether f(Value) is within tolerance of the target.
	Satisfied bool `json:"satisfied"`
	// Derivative is f'(Value).
	Derivative float64 `json:"derivative"`
	// Iterations is the number of steps taken.
	Iterations int `json:"iterations"`
	// Status tells why the loop stopped.
	Status optimization.Status `json:"-"`
	// History holds every visited point when recording is enabled.
	History []optimization.Evaluation `json:"history,omitempty"`
}

// Finder runs a Strategy under a stopping policy.
type Finder struct {
	strategy Strategy
	settings optimization.Settings
	observer optimization.Observer
	history  bool
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithObserver registers a callback invoked after every iteration.
func WithObserver(o optimization.Observer) FinderOption {
	return func(f *Finder) {
		f.observer = o
	}
}

// WithHistory records every visited point in the Solution.
func WithHistory() FinderOption {
	return func(f *Finder) {
		f.history = true
	}
}

// NewFinder creates a Finder.
func NewFinder(strategy Strategy, settings optimization.Settings, opts ...FinderOption) (*Finder, error) {
	if strategy == nil {
		return nil, optimization.WrapError(optimization.ErrNilFunction, "strategy is required").
			WithComponent("univariate")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	f := &Finder{
		strategy: strategy,
		settings: settings,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Strategy returns the step strategy.
func (f *Finder) Strategy() Strategy {
	return f.strategy
}

// Settings returns the stopping policy.
func (f *Finder) Settings() optimization.Settings {
	return f.settings
}

// Solve iterates from initialGuess while the target is not met and the cap
// allows, or while use-all-iterations demands more steps.
//
// Without a cap Solve only returns once the target is met or no step can be
// taken. A degenerate step ends the loop with Status DegenerateStep.
func (f *Finder) Solve(initialGuess float64) (Solution, error) {
	x := initialGuess
	fx := f.strategy.Value(x)

	var sol Solution
	if f.history {
		sol.History = append(sol.History, f.evaluation(0, x, fx))
	}

	degenerate := false
	iters := 0
	for f.settings.Continue(fx, iters) {
		dx, err := f.strategy.Step(x, fx-f.settings.TargetValue)
		if err != nil {
			if errors.Is(err, optimization.ErrDegenerateDirection) {
				degenerate = true
				break
			}
			return Solution{}, err
		}

		x += dx
		fx = f.strategy.Value(x)
		iters++

		if f.history || f.observer != nil {
			ev := f.evaluation(iters, x, fx)
			if f.history {
				sol.History = append(sol.History, ev)
			}
			if f.observer != nil {
				f.observer(ev)
			}
		}
	}

	sol.Value = x
	sol.Iterations = iters
	sol.Satisfied = f.settings.AtTarget(fx)
	sol.Derivative = f.strategy.Derivative(x)

	switch {
	case sol.Satisfied:
		sol.Status = optimization.Success
	case degenerate:
		sol.Status = optimization.DegenerateStep
	default:
		sol.Status = optimization.IterationLimit
	}
	return sol, nil
}

func (f *Finder) evaluation(iter int, x, fx float64) optimization.Evaluation {
	return optimization.Evaluation{
		Iteration: iter,
		Point:     []float64{x},
		Value:     fx,
		Residual:  f.settings.Residual(fx),
	}
}
