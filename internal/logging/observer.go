package logging

import (
	"github.com/copyleftdev/newtonkit/internal/optimization"
)

// SolveObserver returns an observer that traces every iteration at debug
// level. It returns nil when debug logging is disabled, so solvers skip the
// callback entirely.
func SolveObserver(l *Logger, solver string) optimization.Observer {
	if l == nil || !l.Enabled(DebugLevel) {
		return nil
	}
	traced := l.WithField("solver", solver)
	return func(ev optimization.Evaluation) {
		traced.Debug("Iteration", map[string]interface{}{
			"iteration": ev.Iteration,
			"point":     ev.Point,
			"value":     ev.Value,
			"residual":  ev.Residual,
		})
	}
}
