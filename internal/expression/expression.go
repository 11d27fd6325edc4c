// Package expression compiles textual functions of x, such as
// "x**2 - 4" or "cos(x) - x", into univariate functions.
package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/copyleftdev/newtonkit/internal/optimization"
	"github.com/copyleftdev/newtonkit/internal/optimization/univariate"
)

// Variable is the only free variable an expression may reference.
const Variable = "x"

// ErrInvalidExpression is returned when an expression cannot be compiled.
var ErrInvalidExpression = fmt.Errorf("%w: invalid expression", optimization.ErrInvalidProblem)

// Expression is a compiled function of x. It is safe for concurrent use.
type Expression struct {
	source string
	expr   *govaluate.EvaluableExpression
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(toFloat(args[0])), nil
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		return fn(toFloat(args[0]), toFloat(args[1])), nil
	}
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"sqrt":  unary(math.Sqrt),
	"cbrt":  unary(math.Cbrt),
	"abs":   unary(math.Abs),
	"pow":   binary(math.Pow),
	"atan2": binary(math.Atan2),
}

// Parse compiles expr. The only variable allowed is x; pi and e are
// predefined constants.
func Parse(expr string) (*Expression, error) {
	source := strings.TrimSpace(expr)
	if source == "" {
		return nil, optimization.WrapError(ErrInvalidExpression, "expression is empty").WithComponent("expression")
	}

	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(source, functions)
	if err != nil {
		return nil, optimization.WrapErrorf(ErrInvalidExpression, "%q: %v", source, err).WithComponent("expression")
	}

	for _, v := range parsed.Vars() {
		if v != Variable && v != "pi" && v != "e" {
			return nil, optimization.WrapErrorf(ErrInvalidExpression, "%q: unknown variable %q", source, v).
				WithComponent("expression")
		}
	}

	e := &Expression{source: source, expr: parsed}
	if _, err := e.Eval(1); err != nil {
		return nil, optimization.WrapErrorf(ErrInvalidExpression, "%q: %v", source, err).WithComponent("expression")
	}
	return e, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}

// Eval evaluates the expression at x.
func (e *Expression) Eval(x float64) (float64, error) {
	params := map[string]interface{}{
		Variable: x,
		"pi":     math.Pi,
		"e":      math.E,
	}

	v, err := e.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}

	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN(), err
		}
		return parsed, nil
	default:
		return math.NaN(), fmt.Errorf("expression did not return a number: %T", v)
	}
}

// Func adapts the expression to a univariate.Function. Evaluation errors
// surface as NaN, which the strategies treat as a degenerate step.
func (e *Expression) Func() univariate.Function {
	return func(x float64) float64 {
		v, err := e.Eval(x)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return math.NaN()
	}
}
