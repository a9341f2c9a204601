package review

import "fmt"

// Document is the serialized form of a review.
//
// A scalar review is carried in Score (Value is accepted as an alias). A
// histogram review is carried either as one raw Value or as Buckets. Buckets
// marked Quantized are taken verbatim; otherwise each raw key is passed
// through the default quantizer.
type Document struct {
	Kind      Kind     `json:"kind" yaml:"kind"`
	Score     *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Value     *float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Buckets   []Bucket `json:"buckets,omitempty" yaml:"buckets,omitempty"`
	Quantized bool     `json:"quantized,omitempty" yaml:"quantized,omitempty"`
}

// Encode converts a review into its document form.
func Encode(r Review) (Document, error) {
	switch t := r.(type) {
	case ScalarReview:
		s := t.Score()
		return Document{Kind: KindScalar, Score: &s}, nil
	case HistogramReview:
		return Document{Kind: KindHistogram, Buckets: t.Buckets(), Quantized: true}, nil
	}
	return Document{}, fmt.Errorf("%w: cannot encode %T", ErrType, r)
}

// Decode rebuilds a review. An empty Kind falls back to def.
func Decode(d Document, def Kind) (Review, error) {
	kind := d.Kind
	if kind == "" {
		kind = def
	}
	switch kind {
	case KindScalar:
		v := d.Score
		if v == nil {
			v = d.Value
		}
		if v == nil {
			return nil, fmt.Errorf("%w: scalar document has no score", ErrType)
		}
		return NewScalarReview(*v), nil
	case KindHistogram:
		if d.Buckets != nil {
			q := Round
			if d.Quantized {
				q = identity
			}
			return asReview(QuantizedBuckets(d.Buckets, q))
		}
		v := d.Value
		if v == nil {
			v = d.Score
		}
		if v == nil {
			return nil, fmt.Errorf("%w: histogram document has no value or buckets", ErrType)
		}
		return asReview(NewHistogramReview(*v))
	}
	return nil, fmt.Errorf("%w: unknown review kind %q", ErrType, kind)
}

func identity(v float64) float64 { return v }

func asReview[R Review](r R, err error) (Review, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}
