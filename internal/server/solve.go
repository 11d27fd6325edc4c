package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/copyleftdev/newtonkit/internal/errors"
	"github.com/copyleftdev/newtonkit/internal/expression"
	"github.com/copyleftdev/newtonkit/internal/geometry"
	"github.com/copyleftdev/newtonkit/internal/logging"
	"github.com/copyleftdev/newtonkit/internal/optimization/multivariate"
	"github.com/copyleftdev/newtonkit/internal/optimization/univariate"
)

// SolveTetrahedron resolves the apex edges described by req.
func (s *Server) SolveTetrahedron(ctx context.Context, req TetrahedronRequest) (*TetrahedronResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, apierrors.Wrap(err, "solve abandoned")
	}
	settings, err := req.settings(s.cfg)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{"solve_id": id, "solver": "tetrahedron"})

	solver, err := geometry.NewTetrahedronSolver(settings,
		multivariate.WithObserver(logging.SolveObserver(log, "tetrahedron")))
	if err != nil {
		return nil, err
	}

	base, apex, guess := req.problem()
	start := time.Now()
	res, err := solver.Solve(base, apex, guess)
	if err != nil {
		return nil, apierrors.Wrap(err, "solving tetrahedron")
	}
	elapsed := time.Since(start)

	s.metrics.Observe("tetrahedron", res.Status, res.Iterations, res.Residual, elapsed)
	log.Info("Solve finished", map[string]interface{}{
		"status":     res.Status.String(),
		"iterations": res.Iterations,
		"residual":   res.Residual,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
	})

	resp := &TetrahedronResponse{
		SolveID:    id,
		Edges:      floats(res.Edges),
		Residual:   Float(res.Residual),
		Iterations: res.Iterations,
		Satisfied:  res.Satisfied,
		Status:     res.Status.String(),
		History:    history(res.History),
	}
	s.solves.put(id, "tetrahedron", start, resp)
	return resp, nil
}

// FindRoot solves f(x) = target for the expression in req.
func (s *Server) FindRoot(ctx context.Context, req RootRequest) (*RootResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, apierrors.Wrap(err, "solve abandoned")
	}
	method, err := req.method()
	if err != nil {
		return nil, err
	}
	settings, err := req.settings(s.cfg)
	if err != nil {
		return nil, err
	}

	strategy, err := s.strategy(method, req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{"solve_id": id, "solver": strategy.Name()})

	opts := []univariate.FinderOption{univariate.WithObserver(logging.SolveObserver(log, strategy.Name()))}
	if req.History {
		opts = append(opts, univariate.WithHistory())
	}
	finder, err := univariate.NewFinder(strategy, settings, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sol, err := finder.Solve(req.InitialGuess)
	if err != nil {
		return nil, apierrors.Wrap(err, "finding root")
	}
	elapsed := time.Since(start)

	residual := settings.Residual(strategy.Value(sol.Value))
	s.metrics.Observe(strategy.Name(), sol.Status, sol.Iterations, residual, elapsed)
	log.Info("Solve finished", map[string]interface{}{
		"status":     sol.Status.String(),
		"iterations": sol.Iterations,
		"residual":   residual,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
	})

	resp := &RootResponse{
		SolveID:    id,
		Method:     method,
		Value:      Float(sol.Value),
		Satisfied:  sol.Satisfied,
		Derivative: Float(sol.Derivative),
		Iterations: sol.Iterations,
		Status:     sol.Status.String(),
		History:    history(sol.History),
	}
	s.solves.put(id, "root", start, resp)
	return resp, nil
}

func (s *Server) strategy(method string, req RootRequest) (univariate.Strategy, error) {
	if req.Function == "" {
		return nil, apierrors.BadRequest("function is required")
	}
	f, err := expression.Parse(req.Function)
	if err != nil {
		return nil, err
	}

	opts := []univariate.Option{
		univariate.WithDerivativeSpread(s.cfg.Solver.Spread),
		univariate.WithSecondDerivativeSpread(s.cfg.Solver.SecondSpread),
	}
	if req.Derivative != "" {
		d, err := expression.Parse(req.Derivative)
		if err != nil {
			return nil, err
		}
		opts = append(opts, univariate.WithDerivative(d.Func()))
	}

	if method == MethodHalley {
		if req.SecondDerivative != "" {
			dd, err := expression.Parse(req.SecondDerivative)
			if err != nil {
				return nil, err
			}
			opts = append(opts, univariate.WithSecondDerivative(dd.Func()))
		}
		return univariate.NewHalley(f.Func(), opts...)
	}
	return univariate.NewNewtonRaphson(f.Func(), opts...)
}

// Solve returns a recorded solve by ID.
func (s *Server) Solve(id string) (*SolveRecord, error) {
	rec, ok := s.solves.get(id)
	if !ok {
		return nil, errNotFound(id)
	}
	return rec, nil
}

func errNotFound(id string) error {
	return &apierrors.Error{
		Message: fmt.Sprintf("solve %q not found", id),
		Status:  http.StatusNotFound,
	}
}
