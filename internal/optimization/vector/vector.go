// Package vector provides the small set of operations the multivariate solver
// needs on ordered sequences of reals. Lengths are not validated here; callers
// own that check.
package vector

import (
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/newtonkit/internal/optimization"
)

// Dot returns the sum of pairwise products.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Normalize divides v by its magnitude in place. A zero vector has no
// direction; v is left untouched and ErrDegenerateDirection is returned.
func Normalize(v []float64) error {
	m := Magnitude(v)
	if m == 0 {
		return optimization.WrapError(optimization.ErrDegenerateDirection, "cannot normalize a zero vector").
			WithComponent("vector")
	}
	floats.Scale(1/m, v)
	return nil
}

// Scale multiplies every element of v by c in place.
func Scale(v []float64, c float64) {
	floats.Scale(c, v)
}

// Scaled returns c*v as a new slice.
func Scaled(v []float64, c float64) []float64 {
	return floats.ScaleTo(make([]float64, len(v)), c, v)
}

// Add adds s to dst element-wise in place.
func Add(dst, s []float64) {
	floats.Add(dst, s)
}

// Copy returns an independent snapshot of v.
func Copy(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append(make([]float64, 0, len(v)), v...)
}
