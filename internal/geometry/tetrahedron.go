// Package geometry recovers the three unknown edge lengths of a tetrahedron
// from its base triangle and the three angles at its apex.
//
// With base sides a, b, c and apex edges i, j, k, each face meeting the apex
// must satisfy the law of cosines:
//
//	a² = i² + j² − 2ij·cos θa
//	b² = j² + k² − 2jk·cos θb
//	c² = k² + i² − 2ki·cos θc
//
// The three residuals are squared and summed into a single objective that
// the multivariate solver drives to zero.
package geometry

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/multivariate"
	"github.com/copyleftdev/newtonkit/internal/optimization/objective"
)

const (
	DefaultMaxIterations = 5000
	DefaultTolerance     = 1e-10
	DefaultAttenuation   = 1.5
)

// Base holds the side lengths of the base triangle. Side A faces apex angle A.
type Base struct {
	A, B, C float64
}

// Apex holds the angles at the apex in radians.
type Apex struct {
	A, B, C float64
}

// Constants packs the problem into the solver's constants vector
// [a, b, c, θa, θb, θc].
func Constants(base Base, apex Apex) []float64 {
	return []float64{base.A, base.B, base.C, apex.A, apex.B, apex.C}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// LawOfCosines returns a² + b² − c² − 2ab·cos θ for absolute lengths a and b.
// It is zero when c is the side opposite θ.
func LawOfCosines(c, a, b, theta float64) float64 {
	a = math.Abs(a)
	b = math.Abs(b)
	return a*a + b*b - c*c - 2*a*b*math.Cos(theta)
}

// LeastSquares is the sum of squared law-of-cosines residuals over the three
// apex faces. sides is [i, j, k].
func LeastSquares(sides, constants []float64) float64 {
	i, j, k := math.Abs(sides[0]), math.Abs(sides[1]), math.Abs(sides[2])
	a, b, c := constants[0], constants[1], constants[2]
	ta, tb, tc := constants[3], constants[4], constants[5]

	fa := LawOfCosines(a, i, j, ta)
	fb := LawOfCosines(b, j, k, tb)
	fc := LawOfCosines(c, k, i, tc)
	return fa*fa + fb*fb + fc*fc
}

// LeastSquaresGradient is the analytic gradient of LeastSquares for
// positive sides.
func LeastSquaresGradient(sides, constants []float64) []float64 {
	i, j, k := math.Abs(sides[0]), math.Abs(sides[1]), math.Abs(sides[2])
	a, b, c := constants[0], constants[1], constants[2]
	ca, cb, cc := math.Cos(constants[3]), math.Cos(constants[4]), math.Cos(constants[5])

	fa := LawOfCosines(a, i, j, constants[3])
	fb := LawOfCosines(b, j, k, constants[4])
	fc := LawOfCosines(c, k, i, constants[5])

	return []float64{
		4*fa*(i-j*ca) + 4*fc*(i-k*cc),
		4*fa*(j-i*ca) + 4*fb*(j-k*cb),
		4*fb*(k-j*cb) + 4*fc*(k-i*cc),
	}
}

// Result holds the resolved apex edges.
type Result struct {
	// Edges are the apex edge lengths [i, j, k].
	Edges []float64
	// Residual is the least-squares objective at Edges.
	Residual   float64
	Iterations int
	Satisfied  bool
	Status     optimization.Status
	History    []optimization.Evaluation
}

// TetrahedronSolver wraps a multivariate solver configured for the edge problem.
type TetrahedronSolver struct {
	solver *multivariate.Solver
}

// DefaultSettings returns the solver policy used for the edge problem:
// 5000 iterations, tolerance 1e-10, attenuation 1.5, analytic gradient.
func DefaultSettings() multivariate.Settings {
	s := multivariate.DefaultSettings()
	s.SetMaxIterations(DefaultMaxIterations)
	s.TargetTolerance = DefaultTolerance
	s.Attenuation = DefaultAttenuation
	return s
}

// NewTetrahedronSolver creates a solver with the given policy. The target
// value is always zero.
func NewTetrahedronSolver(settings multivariate.Settings, opts ...multivariate.Option) (*TetrahedronSolver, error) {
	settings.TargetValue = 0

	obj, err := objective.New(LeastSquares, objective.WithAnalyticGradient(LeastSquaresGradient))
	if err != nil {
		return nil, err
	}
	solver, err := multivariate.New(obj, settings, opts...)
	if err != nil {
		return nil, err
	}
	return &TetrahedronSolver{solver: solver}, nil
}

// Validate checks that the base is a set of positive lengths and that every
// apex angle lies strictly between 0 and π.
func Validate(base Base, apex Apex) error {
	var problems *multierror.Error
	names := [3]string{"a", "b", "c"}
	for n, v := range [3]float64{base.A, base.B, base.C} {
		if !(v > 0) || math.IsInf(v, 0) {
			problems = multierror.Append(problems, fmt.Errorf("base side %s must be positive, got %v", names[n], v))
		}
	}
	for n, v := range [3]float64{apex.A, apex.B, apex.C} {
		if !(v > 0 && v < math.Pi) {
			problems = multierror.Append(problems, fmt.Errorf("apex angle %s must be in (0, π), got %v", names[n], v))
		}
	}
	if err := problems.ErrorOrNil(); err != nil {
		return optimization.WrapError(optimization.ErrInvalidProblem, err.Error()).WithComponent("geometry")
	}
	return nil
}

// Solve finds apex edge lengths starting from initialGuess, which must hold
// three values.
func (t *TetrahedronSolver) Solve(base Base, apex Apex, initialGuess []float64) (*Result, error) {
	if err := Validate(base, apex); err != nil {
		return nil, err
	}
	if len(initialGuess) != 3 {
		return nil, optimization.WrapErrorf(optimization.ErrDimensionMismatch,
			"initial guess needs 3 edges, got %d", len(initialGuess)).WithComponent("geometry")
	}

	res, err := t.solver.Run(initialGuess, Constants(base, apex))
	if err != nil {
		return nil, err
	}

	edges := make([]float64, len(res.Best))
	for i, v := range res.Best {
		edges[i] = math.Abs(v)
	}

	return &Result{
		Edges:      edges,
		Residual:   res.BestError,
		Iterations: res.Iterations,
		Satisfied:  res.Satisfied,
		Status:     res.Status,
		History:    res.History,
	}, nil
}
