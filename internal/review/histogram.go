package review

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Quantizer maps a raw value to the key of its bucket.
type Quantizer func(float64) float64

// Round is the default quantizer: round to the nearest integer, ties to even.
func Round(v float64) float64 { return math.RoundToEven(v) }

// Bucket is one raw key and its weight.
type Bucket struct {
	Key    float64 `json:"key" yaml:"key"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// HistogramReview is a review given as a weighted distribution over
// quantized buckets. Keys are always stored already quantized.
type HistogramReview struct {
	v map[float64]float64
}

// NewHistogramReview puts weight 1 on the bucket of v under the default quantizer.
func NewHistogramReview(v float64) (HistogramReview, error) {
	return QuantizedReview(v, Round)
}

// QuantizedReview puts weight 1 on the bucket q(v).
func QuantizedReview(v float64, q Quantizer) (HistogramReview, error) {
	return QuantizedBuckets([]Bucket{{Key: v, Weight: 1}}, q)
}

// HistogramFromBuckets builds a review from raw buckets using the default quantizer.
func HistogramFromBuckets(buckets []Bucket) (HistogramReview, error) {
	return QuantizedBuckets(buckets, Round)
}

// QuantizedBuckets assigns each weight to the bucket q(key) in slice order.
// When two raw keys share a bucket the later weight replaces the earlier one;
// weights are not summed here, unlike Add. Keys stay as q produced them:
// Add and Scale never pass them through the default quantizer again.
func QuantizedBuckets(buckets []Bucket, q Quantizer) (HistogramReview, error) {
	if q == nil {
		q = Round
	}
	v := make(map[float64]float64, len(buckets))
	for _, b := range buckets {
		if !finite(b.Key) {
			return HistogramReview{}, fmt.Errorf("%w: key %v is not finite", ErrType, b.Key)
		}
		if !finite(b.Weight) {
			return HistogramReview{}, fmt.Errorf("%w: weight %v of key %v is not finite", ErrType, b.Weight, b.Key)
		}
		k := q(b.Key)
		if !finite(k) {
			return HistogramReview{}, fmt.Errorf("%w: key %v quantized to %v", ErrType, b.Key, k)
		}
		v[k] = b.Weight
	}
	return HistogramReview{v: v}, nil
}

// HistogramFromVector builds a review from a raw key to weight mapping using
// the default quantizer. Keys are applied in ascending order, so on a bucket
// collision the largest raw key wins.
func HistogramFromVector(m map[float64]float64) (HistogramReview, error) {
	return QuantizedVector(m, Round)
}

// QuantizedVector is HistogramFromVector with a custom quantizer.
func QuantizedVector(m map[float64]float64, q Quantizer) (HistogramReview, error) {
	buckets := make([]Bucket, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		buckets = append(buckets, Bucket{Key: k, Weight: m[k]})
	}
	return QuantizedBuckets(buckets, q)
}

// ParseHistogramReview accepts a HistogramReview, a Go number, a
// map[float64]float64, or a []Bucket.
func ParseHistogramReview(v any) (HistogramReview, error) {
	switch t := v.(type) {
	case HistogramReview:
		return t, nil
	case map[float64]float64:
		return HistogramFromVector(t)
	case []Bucket:
		return HistogramFromBuckets(t)
	}
	f, ok := number(v)
	if !ok {
		return HistogramReview{}, fmt.Errorf("%w: %T is not a number", ErrType, v)
	}
	return NewHistogramReview(f)
}

// withVector wraps a mapping whose keys are already quantized. Rebuilding
// through the quantizer would be idempotent for the default quantizer but
// would corrupt keys produced by a custom one.
func withVector(v map[float64]float64) HistogramReview {
	return HistogramReview{v: v}
}

func (r HistogramReview) Kind() Kind { return KindHistogram }

// Score is the first moment: the sum of key * weight.
func (r HistogramReview) Score() float64 {
	var res float64
	for _, k := range r.Keys() {
		res += k * r.v[k]
	}
	return res
}

// Norm is the 1-norm of the weight vector.
func (r HistogramReview) Norm() float64 {
	var res float64
	for _, k := range r.Keys() {
		res += r.v[k]
	}
	return res
}

// InnerProduct sums weight products over the buckets both reviews share.
func (r HistogramReview) InnerProduct(other HistogramReview) float64 {
	var res float64
	for _, k := range r.Keys() {
		if w, ok := other.v[k]; ok {
			res += r.v[k] * w
		}
	}
	return res
}

// Add sums weights bucket by bucket; a missing bucket counts as zero.
func (r HistogramReview) Add(other HistogramReview) HistogramReview {
	res := maps.Clone(r.v)
	if res == nil {
		res = make(map[float64]float64, len(other.v))
	}
	for k, w := range other.v {
		res[k] += w
	}
	return withVector(res)
}

// Scale multiplies every weight by k. It does not check the result; use
// ScaleChecked when k or the weights may leave the finite range.
func (r HistogramReview) Scale(k float64) HistogramReview {
	res := make(map[float64]float64, len(r.v))
	for key, w := range r.v {
		res[key] = w * k
	}
	return withVector(res)
}

// ScaleChecked is Scale that fails with ErrType when k or any resulting
// weight is not finite.
func (r HistogramReview) ScaleChecked(k float64) (HistogramReview, error) {
	if !finite(k) {
		return HistogramReview{}, fmt.Errorf("%w: factor %v is not finite", ErrType, k)
	}
	res := r.Scale(k)
	for key, w := range res.v {
		if !finite(w) {
			return HistogramReview{}, fmt.Errorf("%w: weight of key %v overflows to %v", ErrType, key, w)
		}
	}
	return res, nil
}

func (r HistogramReview) Negate() HistogramReview { return Negate(r) }

func (r HistogramReview) Sub(other HistogramReview) HistogramReview { return Sub(r, other) }

func (r HistogramReview) Div(k float64) (HistogramReview, error) { return Div(r, k) }

// FloorDiv floors the scalar projection of r / k.
func (r HistogramReview) FloorDiv(k float64) (float64, error) { return FloorDiv(r, k) }

// Equal reports whether both reviews have the same buckets with identical weights.
func (r HistogramReview) Equal(other HistogramReview) bool {
	return maps.Equal(r.v, other.v)
}

// Weight returns the weight of an already quantized key, or 0.
func (r HistogramReview) Weight(key float64) float64 { return r.v[key] }

func (r HistogramReview) Has(key float64) bool {
	_, ok := r.v[key]
	return ok
}

func (r HistogramReview) Len() int { return len(r.v) }

// Keys returns the quantized keys in ascending order.
func (r HistogramReview) Keys() []float64 {
	return slices.Sorted(maps.Keys(r.v))
}

// Vector returns a copy of the bucket mapping.
func (r HistogramReview) Vector() map[float64]float64 {
	res := maps.Clone(r.v)
	if res == nil {
		res = map[float64]float64{}
	}
	return res
}

// Buckets returns the buckets in ascending key order.
func (r HistogramReview) Buckets() []Bucket {
	keys := r.Keys()
	res := make([]Bucket, len(keys))
	for i, k := range keys {
		res[i] = Bucket{Key: k, Weight: r.v[k]}
	}
	return res
}

func (r HistogramReview) String() string {
	parts := make([]string, 0, len(r.v))
	for _, k := range r.Keys() {
		parts = append(parts, formatFloat(k)+":"+formatFloat(r.v[k]))
	}
	return strings.Join(parts, ", ")
}

// HistogramSummary summarizes histogram reviews by their mean histogram.
type HistogramSummary struct {
	histo HistogramReview
}

// NewHistogramSummary averages the given reviews. A single review is stored as is.
func NewHistogramSummary(reviews ...HistogramReview) (HistogramSummary, error) {
	if len(reviews) == 1 {
		return HistogramSummary{histo: reviews[0]}, nil
	}
	m, err := Mean(reviews)
	if err != nil {
		return HistogramSummary{}, err
	}
	return HistogramSummary{histo: m}, nil
}

// HistogramOfScores turns each raw score into a one-bucket review and averages them.
func HistogramOfScores(scores ...float64) (HistogramSummary, error) {
	rs := make([]HistogramReview, 0, len(scores))
	for _, s := range scores {
		r, err := NewHistogramReview(s)
		if err != nil {
			return HistogramSummary{}, err
		}
		rs = append(rs, r)
	}
	return NewHistogramSummary(rs...)
}

// HistogramOfSeq drains seq and averages the reviews it yields.
func HistogramOfSeq(seq iter.Seq[HistogramReview]) (HistogramSummary, error) {
	var rs []HistogramReview
	for r := range seq {
		rs = append(rs, r)
	}
	return NewHistogramSummary(rs...)
}

// ParseHistogramSummary accepts a number, a HistogramReview, or a slice or
// iter.Seq of either. Raw numbers are coerced with NewHistogramReview.
func ParseHistogramSummary(v any) (HistogramSummary, error) {
	items, single, err := elements(v)
	if err != nil {
		return HistogramSummary{}, err
	}
	if single {
		r, err := ParseHistogramReview(v)
		if err != nil {
			return HistogramSummary{}, err
		}
		return NewHistogramSummary(r)
	}
	rs := make([]HistogramReview, 0, len(items))
	for i, item := range items {
		r, err := ParseHistogramReview(item)
		if err != nil {
			return HistogramSummary{}, fmt.Errorf("element %d: %w", i, err)
		}
		rs = append(rs, r)
	}
	return NewHistogramSummary(rs...)
}

func (s HistogramSummary) Score() float64 { return s.histo.Score() }

// Mean returns the stored mean histogram.
func (s HistogramSummary) Mean() HistogramReview { return s.histo }

func (s HistogramSummary) ReviewKind() Kind { return KindHistogram }

// Difference is |1 - <mean, r>|. Neither side is renormalized; callers supply
// histograms whose weights are already on a comparable scale.
func (s HistogramSummary) Difference(r HistogramReview) float64 {
	return math.Abs(1 - s.histo.InnerProduct(r))
}

func (s HistogramSummary) DifferenceOf(r Review) (float64, error) {
	hr, ok := r.(HistogramReview)
	if !ok {
		return 0, mismatch(KindHistogram, r)
	}
	return s.Difference(hr), nil
}

func (s HistogramSummary) String() string { return s.histo.String() }

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
