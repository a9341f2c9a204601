package review

import "fmt"

// Kind identifies a review variant and, through it, the summary paired with it.
type Kind string

const (
	KindScalar    Kind = "scalar"
	KindHistogram Kind = "histogram"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindScalar, KindHistogram:
		return true
	}
	return false
}

// ParseKind converts a string into a Kind. An empty string yields def.
func ParseKind(s string, def Kind) (Kind, error) {
	if s == "" {
		return def, nil
	}
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown review kind %q", ErrType, s)
	}
	return k, nil
}

// Review is one opinion given to a target.
type Review interface {
	Score() float64
	Kind() Kind
	String() string
}

// Summary aggregates the reviews of one target. R is the review variant the
// summary accepts, so a mismatched review does not compile.
type Summary[R Review] interface {
	Score() float64
	Difference(r R) float64
	ReviewKind() Kind
	String() string
}

// Aggregate is a Summary with its review variant erased. DifferenceOf checks
// the variant at run time and fails with ErrType on a mismatch.
type Aggregate interface {
	Score() float64
	ReviewKind() Kind
	DifferenceOf(r Review) (float64, error)
	String() string
}

var (
	_ Summary[ScalarReview]    = AverageSummary{}
	_ Summary[HistogramReview] = HistogramSummary{}
	_ Aggregate                = AverageSummary{}
	_ Aggregate                = HistogramSummary{}
)

func mismatch(want Kind, got any) error {
	if r, ok := got.(Review); ok && r != nil {
		return fmt.Errorf("%w: want %s review, got %s", ErrType, want, r.Kind())
	}
	return fmt.Errorf("%w: want %s review, got %T", ErrType, want, got)
}

// Summarize folds reviews of the given kind into the paired summary.
func Summarize(kind Kind, reviews []Review) (Aggregate, error) {
	switch kind {
	case KindScalar:
		rs := make([]ScalarReview, 0, len(reviews))
		for _, r := range reviews {
			s, ok := r.(ScalarReview)
			if !ok {
				return nil, mismatch(kind, r)
			}
			rs = append(rs, s)
		}
		return aggregate(NewAverageSummary(rs...))
	case KindHistogram:
		rs := make([]HistogramReview, 0, len(reviews))
		for _, r := range reviews {
			h, ok := r.(HistogramReview)
			if !ok {
				return nil, mismatch(kind, r)
			}
			rs = append(rs, h)
		}
		return aggregate(NewHistogramSummary(rs...))
	}
	return nil, fmt.Errorf("%w: unknown review kind %q", ErrType, kind)
}

func aggregate[S Aggregate](s S, err error) (Aggregate, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
