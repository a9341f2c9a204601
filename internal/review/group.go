// Package review models single reviews and per-target summaries as values of a
// multipliable additive group.
//
// Concrete review types implement a small set of primitive operations (Add,
// Scale, Equal). Everything else (negation, subtraction, division, floored
// division, inequality, sums and means) is derived by the generic functions in
// this file, so a new review variant gets the full algebra for free.
//
// All values are immutable: every operation returns a new value and no
// operation mutates its receiver or arguments.
package review

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrType reports an operand of the wrong variant or a non-numeric value.
	ErrType = errors.New("type mismatch")

	// ErrDivisionByZero reports a scalar division by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrEmpty reports a summary built from no reviews.
	ErrEmpty = errors.New("no reviews to summarize")
)

// Group is the primitive set of an immutable additive group.
type Group[T any] interface {
	Add(other T) T
	Negate() T
	Equal(other T) bool
}

// Scalable is the primitive set of a multipliable additive group.
type Scalable[T any] interface {
	Add(other T) T
	Scale(k float64) T
	Equal(other T) bool
}

// Scored is a Scalable value with a scalar projection.
type Scored[T any] interface {
	Scalable[T]
	Score() float64
}

// Sub returns a + (-b).
func Sub[T Group[T]](a, b T) T {
	return a.Add(b.Negate())
}

// NotEqual is the complement of Equal.
func NotEqual[T interface{ Equal(T) bool }](a, b T) bool {
	return !a.Equal(b)
}

// Negate returns -1 * a for types where scaling is primitive.
func Negate[T Scalable[T]](a T) T {
	return a.Scale(-1)
}

// Div returns (1/k) * a. Types with a ScaleChecked method are scaled through
// it, so a result they cannot represent fails with ErrType.
func Div[T Scalable[T]](a T, k float64) (T, error) {
	var zero T
	if math.IsNaN(k) {
		return zero, fmt.Errorf("%w: divisor is NaN", ErrType)
	}
	if k == 0 {
		return zero, ErrDivisionByZero
	}
	inv := 1 / k
	if math.IsInf(inv, 0) {
		return zero, fmt.Errorf("%w: 1/%v overflows", ErrType, k)
	}
	if c, ok := any(a).(interface {
		ScaleChecked(float64) (T, error)
	}); ok {
		return c.ScaleChecked(inv)
	}
	return a.Scale(inv), nil
}

// FloorDiv returns the floor of the scalar projection of a / k.
func FloorDiv[T Scored[T]](a T, k float64) (float64, error) {
	q, err := Div(a, k)
	if err != nil {
		return 0, err
	}
	return math.Floor(q.Score()), nil
}

// Sum folds values with Add. It fails with ErrEmpty when there is nothing to add.
func Sum[T Scalable[T]](values []T) (T, error) {
	if len(values) == 0 {
		var zero T
		return zero, ErrEmpty
	}
	total := values[0]
	for _, v := range values[1:] {
		total = total.Add(v)
	}
	return total, nil
}

// Mean returns Sum(values) / len(values).
func Mean[T Scalable[T]](values []T) (T, error) {
	total, err := Sum(values)
	if err != nil {
		return total, err
	}
	return Div(total, float64(len(values)))
}
