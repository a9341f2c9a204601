package review

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// ScalarReview is a review whose value is a single real number.
type ScalarReview struct {
	v float64
}

// NewScalarReview wraps v as is.
func NewScalarReview(v float64) ScalarReview {
	return ScalarReview{v: v}
}

// ParseScalarReview builds a ScalarReview from any Go numeric value or an
// existing ScalarReview.
func ParseScalarReview(v any) (ScalarReview, error) {
	if r, ok := v.(ScalarReview); ok {
		return r, nil
	}
	f, ok := number(v)
	if !ok {
		return ScalarReview{}, fmt.Errorf("%w: %T is not a number", ErrType, v)
	}
	return NewScalarReview(f), nil
}

func (r ScalarReview) Score() float64 { return r.v }
func (r ScalarReview) Kind() Kind     { return KindScalar }

func (r ScalarReview) Add(other ScalarReview) ScalarReview {
	return ScalarReview{v: r.v + other.v}
}

func (r ScalarReview) Scale(k float64) ScalarReview {
	return ScalarReview{v: k * r.v}
}

func (r ScalarReview) Negate() ScalarReview { return Negate(r) }

func (r ScalarReview) Sub(other ScalarReview) ScalarReview { return Sub(r, other) }

func (r ScalarReview) Div(k float64) (ScalarReview, error) { return Div(r, k) }

func (r ScalarReview) FloorDiv(k float64) (float64, error) { return FloorDiv(r, k) }

// Equal reports exact equality of the underlying numbers.
func (r ScalarReview) Equal(other ScalarReview) bool {
	return r.v == other.v
}

func (r ScalarReview) String() string {
	return strconv.FormatFloat(r.v, 'g', -1, 64)
}

// AverageSummary summarizes scalar reviews by their arithmetic mean.
type AverageSummary struct {
	mean ScalarReview
}

// NewAverageSummary averages the given reviews. A single review is stored as is.
func NewAverageSummary(reviews ...ScalarReview) (AverageSummary, error) {
	if len(reviews) == 1 {
		return AverageSummary{mean: reviews[0]}, nil
	}
	m, err := Mean(reviews)
	if err != nil {
		return AverageSummary{}, err
	}
	return AverageSummary{mean: m}, nil
}

// AverageOfScores averages raw scores.
func AverageOfScores(scores ...float64) (AverageSummary, error) {
	rs := make([]ScalarReview, len(scores))
	for i, s := range scores {
		rs[i] = NewScalarReview(s)
	}
	return NewAverageSummary(rs...)
}

// AverageOfSeq drains seq and averages the reviews it yields.
func AverageOfSeq(seq iter.Seq[ScalarReview]) (AverageSummary, error) {
	var rs []ScalarReview
	for r := range seq {
		rs = append(rs, r)
	}
	return NewAverageSummary(rs...)
}

// ParseAverageSummary accepts a number, a ScalarReview, a slice of either, or
// an iter.Seq of either. Any other element fails with ErrType.
func ParseAverageSummary(v any) (AverageSummary, error) {
	items, single, err := elements(v)
	if err != nil {
		return AverageSummary{}, err
	}
	if single {
		r, err := ParseScalarReview(v)
		if err != nil {
			return AverageSummary{}, err
		}
		return NewAverageSummary(r)
	}
	rs := make([]ScalarReview, 0, len(items))
	for i, item := range items {
		r, err := ParseScalarReview(item)
		if err != nil {
			return AverageSummary{}, fmt.Errorf("element %d: %w", i, err)
		}
		rs = append(rs, r)
	}
	return NewAverageSummary(rs...)
}

func (s AverageSummary) Score() float64 { return s.mean.Score() }

// Mean returns the stored mean review.
func (s AverageSummary) Mean() ScalarReview { return s.mean }

func (s AverageSummary) ReviewKind() Kind { return KindScalar }

// Difference is |mean - r|.
func (s AverageSummary) Difference(r ScalarReview) float64 {
	return math.Abs(s.mean.v - r.v)
}

func (s AverageSummary) DifferenceOf(r Review) (float64, error) {
	sr, ok := r.(ScalarReview)
	if !ok {
		return 0, mismatch(KindScalar, r)
	}
	return s.Difference(sr), nil
}

func (s AverageSummary) String() string { return s.mean.String() }
