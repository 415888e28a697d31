// Package tolerance provides epsilon-aware comparisons for flow values.
//
// Push-relabel repeatedly subtracts residual capacities from excesses. With
// floating-point values an exact zero test would let the solver chase ever
// smaller pushes, so every "is positive" and "is less" question asked by the
// engine goes through a Tolerance. Integer value types use epsilon 0 and get
// exact semantics back. Values are compared, never rounded.
package tolerance

import "math"

// Number is the set of value types a flow network can carry.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// DefaultFloatEpsilon is the epsilon used for floating point value types.
const DefaultFloatEpsilon = 1e-10

// Tolerance compares values of type V with a fixed epsilon.
// The zero value compares exactly.
type Tolerance[V Number] struct {
	eps V
}

// New returns a Tolerance with the given epsilon. A negative epsilon is
// replaced by its absolute value.
func New[V Number](eps V) Tolerance[V] {
	if eps < 0 {
		eps = -eps
	}
	return Tolerance[V]{eps: eps}
}

// Default returns exact comparison for integer types and
// DefaultFloatEpsilon for floating point types.
func Default[V Number]() Tolerance[V] {
	if IsIntegral[V]() {
		return Tolerance[V]{}
	}
	e := DefaultFloatEpsilon
	return Tolerance[V]{eps: V(e)}
}

// IsIntegral reports whether V is an integer type.
func IsIntegral[V Number]() bool {
	one, two := V(1), V(2)
	return one/two == 0
}

// Epsilon returns the configured epsilon.
func (t Tolerance[V]) Epsilon() V {
	return t.eps
}

// Positive reports x > eps.
func (t Tolerance[V]) Positive(x V) bool {
	return x > t.eps
}

// Negative reports x < -eps.
func (t Tolerance[V]) Negative(x V) bool {
	return x < -t.eps
}

// NonZero reports that x is outside [-eps, eps].
func (t Tolerance[V]) NonZero(x V) bool {
	return t.Positive(x) || t.Negative(x)
}

// Less reports x < y - eps.
func (t Tolerance[V]) Less(x, y V) bool {
	return x < y-t.eps
}

// Different reports that x and y differ by more than eps.
func (t Tolerance[V]) Different(x, y V) bool {
	return t.Less(x, y) || t.Less(y, x)
}

// Equal is the negation of Different.
func (t Tolerance[V]) Equal(x, y V) bool {
	return !t.Different(x, y)
}

// Min returns the smaller of a and b.
func Min[V Number](a, b V) V {
	if a < b {
		return a
	}
	return b
}

// IsFinite reports whether v is neither NaN nor an infinity.
// Integer values are always finite.
func IsFinite[V Number](v V) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
