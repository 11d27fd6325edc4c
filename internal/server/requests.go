package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/copyleftdev/newtonkit/internal/config"
	apierrors "github.com/copyleftdev/newtonkit/internal/errors"
	"github.com/copyleftdev/newtonkit/internal/geometry"
	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/multivariate"
)

// Float is a float64 that encodes non-finite values as the strings "NaN",
// "+Inf" and "-Inf" instead of failing.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

// Evaluation is one history entry of a solve.
type Evaluation struct {
	Iteration int     `json:"iteration"`
	Point     []Float `json:"point"`
	Value     Float   `json:"value"`
	Residual  Float   `json:"residual"`
}

func history(evs []optimization.Evaluation) []Evaluation {
	if len(evs) == 0 {
		return nil
	}
	out := make([]Evaluation, len(evs))
	for i, ev := range evs {
		out[i] = Evaluation{
			Iteration: ev.Iteration,
			Point:     floats(ev.Point),
			Value:     Float(ev.Value),
			Residual:  Float(ev.Residual),
		}
	}
	return out
}

// Triple names the three values of a base or apex.
type Triple struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// StoppingParams are the optional stopping fields shared by every request.
// Unset fields fall back to the configured defaults.
type StoppingParams struct {
	MaxIterations    *int     `json:"max_iterations,omitempty"`
	Tolerance        *float64 `json:"tolerance,omitempty"`
	UseAllIterations bool     `json:"use_all_iterations,omitempty"`
}

// apply fills s from the params and the configured defaults.
func (p StoppingParams) apply(cfg *config.Config, s *optimization.Settings) error {
	maxIter := cfg.Solver.MaxIterations
	if p.MaxIterations != nil {
		maxIter = *p.MaxIterations
	}
	if maxIter <= 0 {
		return apierrors.BadRequest("max_iterations must be positive, got %d", maxIter)
	}
	if maxIter > cfg.Solver.IterationLimit {
		return apierrors.BadRequest("max_iterations %d exceeds the limit of %d", maxIter, cfg.Solver.IterationLimit)
	}
	s.SetMaxIterations(maxIter)

	s.TargetTolerance = cfg.Solver.Tolerance
	if p.Tolerance != nil {
		s.TargetTolerance = *p.Tolerance
	}
	s.UseAllIterations = p.UseAllIterations
	return nil
}

// TetrahedronRequest asks for the apex edges of a tetrahedron.
type TetrahedronRequest struct {
	Base         Triple    `json:"base"`
	ApexDegrees  Triple    `json:"apex_degrees"`
	InitialGuess []float64 `json:"initial_guess,omitempty"`
	Attenuation  *float64  `json:"attenuation,omitempty"`
	History      bool      `json:"history,omitempty"`
	StoppingParams
}

func (r TetrahedronRequest) problem() (geometry.Base, geometry.Apex, []float64) {
	base := geometry.Base{A: r.Base.A, B: r.Base.B, C: r.Base.C}
	apex := geometry.Apex{
		A: geometry.Radians(r.ApexDegrees.A),
		B: geometry.Radians(r.ApexDegrees.B),
		C: geometry.Radians(r.ApexDegrees.C),
	}
	guess := r.InitialGuess
	if len(guess) == 0 {
		guess = []float64{1, 1, 1}
	}
	return base, apex, guess
}

func (r TetrahedronRequest) settings(cfg *config.Config) (multivariate.Settings, error) {
	s := geometry.DefaultSettings()
	if err := r.StoppingParams.apply(cfg, &s.Settings); err != nil {
		return s, err
	}
	s.Attenuation = cfg.Solver.Attenuation
	if r.Attenuation != nil {
		s.Attenuation = *r.Attenuation
	}
	s.Spread = cfg.Solver.Spread
	s.RecordHistory = r.History
	return s, nil
}

// TetrahedronResponse is the outcome of a tetrahedron solve.
type TetrahedronResponse struct {
	SolveID    string       `json:"solve_id"`
	Edges      []Float      `json:"edges"`
	Residual   Float        `json:"residual"`
	Iterations int          `json:"iterations"`
	Satisfied  bool         `json:"satisfied"`
	Status     string       `json:"status"`
	History    []Evaluation `json:"history,omitempty"`
}

// Root-finding methods.
const (
	MethodNewton = "newton"
	MethodHalley = "halley"
)

// RootRequest asks for x with f(x) = target.
type RootRequest struct {
	Function         string  `json:"function"`
	Derivative       string  `json:"derivative,omitempty"`
	SecondDerivative string  `json:"second_derivative,omitempty"`
	Method           string  `json:"method,omitempty"`
	InitialGuess     float64 `json:"initial_guess"`
	Target           float64 `json:"target,omitempty"`
	History          bool    `json:"history,omitempty"`
	StoppingParams
}

func (r RootRequest) method() (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(r.Method)); m {
	case "", MethodNewton, "newton_raphson":
		return MethodNewton, nil
	case MethodHalley:
		return MethodHalley, nil
	default:
		return "", apierrors.BadRequest("unknown method %q, want newton or halley", r.Method)
	}
}

func (r RootRequest) settings(cfg *config.Config) (optimization.Settings, error) {
	s := optimization.DefaultSettings()
	if err := r.StoppingParams.apply(cfg, &s); err != nil {
		return s, err
	}
	s.TargetValue = r.Target
	return s, nil
}

// RootResponse is the outcome of a root-finding solve.
type RootResponse struct {
	SolveID    string       `json:"solve_id"`
	Method     string       `json:"method"`
	Value      Float        `json:"value"`
	Satisfied  bool         `json:"satisfied"`
	Derivative Float        `json:"derivative"`
	Iterations int          `json:"iterations"`
	Status     string       `json:"status"`
	History    []Evaluation `json:"history,omitempty"`
}
