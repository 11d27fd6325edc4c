package optimization

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
)

// DefaultTolerance is the absolute target tolerance used when none is configured.
const DefaultTolerance = 1e-8

// Settings holds the stopping configuration shared by every iterative solver.
// The zero value is not useful; start from DefaultSettings.
type Settings struct {
	// TargetValue is the value the objective should reach.
	TargetValue float64

	// TargetTolerance is the absolute distance from TargetValue that counts as reached.
	TargetTolerance float64

	// MaxIterations is the iteration cap. It only applies while Capped is set.
	MaxIterations int

	// Capped reports whether MaxIterations is enforced.
	Capped bool

	// UseAllIterations keeps a capped solver iterating after the target is
	// reached so that the best point can still improve.
	UseAllIterations bool
}

// DefaultSettings returns an uncapped configuration aiming at zero.
func DefaultSettings() Settings {
	return Settings{
		TargetValue:     0,
		TargetTolerance: DefaultTolerance,
	}
}

// SetMaxIterations caps the solver at n iterations.
func (s *Settings) SetMaxIterations(n int) {
	s.Capped = true
	s.MaxIterations = n
}

// Uncap removes the iteration cap. Without a cap UseAllIterations is meaningless,
// so it is cleared too.
func (s *Settings) Uncap() {
	s.Capped = false
	s.UseAllIterations = false
}

// Residual returns |f - TargetValue|.
func (s Settings) Residual(f float64) float64 {
	return math.Abs(f - s.TargetValue)
}

// AtTarget reports whether f is within tolerance of the target.
func (s Settings) AtTarget(f float64) bool {
	return s.Residual(f) <= s.TargetTolerance
}

// CanContinueCapped reports whether iteration i is allowed under the cap.
func (s Settings) CanContinueCapped(i int) bool {
	return i < s.MaxIterations || !s.Capped
}

// CanContinueUsingAllIterations reports whether the solver must keep going
// because every capped iteration was requested.
func (s Settings) CanContinueUsingAllIterations(i int) bool {
	return i < s.MaxIterations && s.UseAllIterations && s.Capped
}

// Continue is the loop condition evaluated before every step, the first included.
func (s Settings) Continue(f float64, i int) bool {
	return (!s.AtTarget(f) && s.CanContinueCapped(i)) || s.CanContinueUsingAllIterations(i)
}

// Problems lists everything wrong with the settings.
func (s Settings) Problems() []error {
	var problems []error

	if math.IsNaN(s.TargetValue) || math.IsInf(s.TargetValue, 0) {
		problems = append(problems, fmt.Errorf("target value must be finite, got %v", s.TargetValue))
	}
	if math.IsNaN(s.TargetTolerance) || s.TargetTolerance < 0 {
		problems = append(problems, fmt.Errorf("target tolerance must be non-negative, got %v", s.TargetTolerance))
	}
	if s.Capped && s.MaxIterations < 0 {
		problems = append(problems, fmt.Errorf("max iterations must be non-negative, got %d", s.MaxIterations))
	}
	return problems
}

// Validate reports every problem with the settings at once.
func (s Settings) Validate() error {
	return JoinProblems(s.Problems()...)
}

// JoinProblems combines validation problems into a single ErrInvalidSettings
// error. It returns nil when there are none.
func JoinProblems(problems ...error) error {
	var result *multierror.Error
	for _, p := range problems {
		result = multierror.Append(result, p)
	}
	if err := result.ErrorOrNil(); err != nil {
		return WrapError(ErrInvalidSettings, err.Error())
	}
	return nil
}

// Status describes why a solve loop stopped. Programs should not rely on the
// underlying numeric value.
type Status int

const (
	NotTerminated Status = iota
	// Success means the returned point is within tolerance of the target.
	Success
	// IterationLimit means the cap was exhausted without satisfying the target.
	IterationLimit
	// DegenerateStep means no finite step could be computed: a zero gradient,
	// a zero derivative or a zero Halley denominator.
	DegenerateStep
)

var statusNames = map[Status]string{
	NotTerminated:  "not_terminated",
	Success:        "success",
	IterationLimit: "iteration_limit",
	DegenerateStep: "degenerate_step",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Early reports whether the solve ended before satisfying the target.
func (s Status) Early() bool {
	return s != Success
}

// Evaluation is one visited point of a solve run.
type Evaluation struct {
	Iteration int       `json:"iteration"`
	Point     []float64 `json:"point"`
	Value     float64   `json:"value"`
	Residual  float64   `json:"residual"`
}

// Observer is called once per completed iteration with a private copy of the point.
type Observer func(Evaluation)
