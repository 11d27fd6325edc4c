// Package multivariate drives a vector of unknowns toward a point where a
// scalar objective equals a target.
//
// Each iteration takes a single Newton step along the gradient: with
// residual f = objective(x) - target and gradient g, the displacement is
//
//	-(f * attenuation / |g|) * (g / |g|)
//
// Under a linear model of the objective, an attenuation of 1 lands exactly
// on the target. Smaller values under-relax, larger values over-relax.
// This is not a full Jacobian Newton method: the whole system is reduced to
// one scalar equation and one direction per step.
package multivariate

import (
	"errors"
	"fmt"
	"math"

	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/numdiff"
	"github.com/copyleftdev/newtonkit/internal/optimization/objective"
	"github.com/copyleftdev/newtonkit/internal/optimization/vector"
)

// Settings configures a Solver.
type Settings struct {
	optimization.Settings

	// Attenuation multiplies every step. 1 is a plain Newton step.
	Attenuation float64

	// Spread is the finite-difference step used when the objective has no
	// analytic gradient and no spread of its own.
	Spread float64

	// RecordHistory keeps every visited point in Result.History.
	RecordHistory bool
}

// DefaultSettings returns an uncapped, unattenuated configuration.
func DefaultSettings() Settings {
	return Settings{
		Settings:    optimization.DefaultSettings(),
		Attenuation: 1,
		Spread:      numdiff.DefaultSpread,
	}
}

// Validate reports every problem with the settings at once.
func (s Settings) Validate() error {
	problems := s.Settings.Problems()
	if !(s.Attenuation > 0) || math.IsInf(s.Attenuation, 0) {
		problems = append(problems, fmt.Errorf("attenuation must be positive and finite, got %v", s.Attenuation))
	}
	if !(s.Spread > 0) || math.IsInf(s.Spread, 0) {
		problems = append(problems, fmt.Errorf("spread must be positive and finite, got %v", s.Spread))
	}
	return optimization.JoinProblems(problems...)
}

// Result is the outcome of a Run.
type Result struct {
	// Best is the visited point with the lowest residual, the initial guess included.
	Best []float64
	// BestError is |objective(Best) - target|.
	BestError float64
	// Final is the last iterate. It may be worse than Best.
	Final []float64
	// FinalError is |objective(Final) - target|.
	FinalError float64
	// Iterations is the number of steps taken.
	Iterations int
	// Satisfied reports whether BestError is within tolerance.
	Satisfied bool
	// Status tells why the loop stopped.
	Status optimization.Status
	// History holds every visited point when RecordHistory is set.
	History []optimization.Evaluation
}

// Solver runs the gradient-direction Newton iteration on one objective.
// A Solver holds no per-run state and may be reused.
type Solver struct {
	objective *objective.Objective
	settings  Settings
	observer  optimization.Observer
}

// Option configures a Solver.
type Option func(*Solver)

// WithObserver registers a callback invoked after every iteration.
func WithObserver(o optimization.Observer) Option {
	return func(s *Solver) {
		s.observer = o
	}
}

// New creates a Solver. The settings are validated here so that Run fails
// only on input problems.
func New(obj *objective.Objective, settings Settings, opts ...Option) (*Solver, error) {
	if obj == nil {
		return nil, optimization.WrapError(optimization.ErrNilFunction, "objective is required").
			WithComponent("multivariate")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		objective: obj,
		settings:  settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns the solver configuration.
func (s *Solver) Settings() Settings {
	return s.settings
}

// Run iterates from initialGuess until the stopping policy ends the loop.
// initialGuess is copied and never modified; constants are passed unchanged
// to every evaluation.
//
// Without an iteration cap Run does not return until the target is reached.
// A zero gradient ends the run with Status DegenerateStep instead of an error;
// errors are reserved for malformed input.
func (s *Solver) Run(initialGuess, constants []float64) (*Result, error) {
	if len(initialGuess) == 0 {
		return nil, optimization.WrapError(optimization.ErrEmptyVector, "initial guess is empty").
			WithComponent("multivariate").WithOperation("run")
	}

	guess := vector.Copy(initialGuess)
	if s.objective.IsAnalytic() {
		if _, err := s.objective.Gradient(guess, constants, s.settings.Spread); err != nil {
			return nil, err
		}
	}
	value := s.objective.Eval(guess, constants)

	res := &Result{
		Best:      vector.Copy(guess),
		BestError: s.settings.Residual(value),
	}
	if s.settings.RecordHistory {
		res.History = append(res.History, s.evaluation(0, guess, value))
	}

	degenerate := false
	iters := 0
	for s.settings.Continue(value, iters) {
		if err := s.step(guess, constants, value); err != nil {
			if errors.Is(err, optimization.ErrDegenerateDirection) {
				degenerate = true
				break
			}
			return nil, err
		}

		value = s.objective.Eval(guess, constants)
		iters++

		if e := s.settings.Residual(value); e < res.BestError {
			res.BestError = e
			res.Best = vector.Copy(guess)
		}

		if s.settings.RecordHistory || s.observer != nil {
			ev := s.evaluation(iters, guess, value)
			if s.settings.RecordHistory {
				res.History = append(res.History, ev)
			}
			if s.observer != nil {
				s.observer(ev)
			}
		}
	}

	res.Final = guess
	res.FinalError = s.settings.Residual(value)
	res.Iterations = iters
	res.Satisfied = res.BestError <= s.settings.TargetTolerance

	switch {
	case res.Satisfied:
		res.Status = optimization.Success
	case degenerate:
		res.Status = optimization.DegenerateStep
	default:
		res.Status = optimization.IterationLimit
	}
	return res, nil
}

// step moves guess in place by one attenuated Newton step. value is the
// objective at guess. guess is left untouched when no finite step exists.
func (s *Solver) step(guess, constants []float64, value float64) error {
	grad, err := s.objective.Gradient(guess, constants, s.settings.Spread)
	if err != nil {
		return err
	}

	f := value - s.settings.TargetValue
	magnitude := vector.Magnitude(grad)
	if math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return optimization.WrapErrorf(optimization.ErrDegenerateDirection, "gradient magnitude is %v", magnitude).
			WithComponent("multivariate").WithOperation("step")
	}
	if err := vector.Normalize(grad); err != nil {
		return err
	}

	vector.Scale(grad, -f*s.settings.Attenuation/magnitude)
	for _, d := range grad {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return optimization.WrapError(optimization.ErrDegenerateDirection, "step is not finite").
				WithComponent("multivariate").WithOperation("step")
		}
	}

	vector.Add(guess, grad)
	return nil
}

func (s *Solver) evaluation(iter int, point []float64, value float64) optimization.Evaluation {
	return optimization.Evaluation{
		Iteration: iter,
		Point:     vector.Copy(point),
		Value:     value,
		Residual:  s.settings.Residual(value),
	}
}
