package review

import (
	"encoding/json"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scalarA = 0.25
	scalarB = 0.75
)

func TestScalarReviewArithmetic(t *testing.T) {
	a, b := NewScalarReview(scalarA), NewScalarReview(scalarB)

	assert.Equal(t, scalarA+scalarB, a.Add(b).Score())
	assert.Equal(t, scalarA-scalarB, a.Sub(b).Score())
	assert.Equal(t, scalarA*scalarB, b.Scale(scalarA).Score())
	assert.Equal(t, -scalarA, a.Negate().Score())

	q, err := a.Div(scalarB)
	require.NoError(t, err)
	assert.InDelta(t, scalarA/scalarB, q.Score(), 1e-12)

	_, err = a.Div(0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestScalarReviewImmutable(t *testing.T) {
	a, b := NewScalarReview(scalarA), NewScalarReview(scalarB)
	_ = a.Add(b)
	_ = a.Scale(10)
	assert.Equal(t, scalarA, a.Score())
	assert.Equal(t, scalarB, b.Score())
}

func TestScalarReviewEqual(t *testing.T) {
	assert.True(t, NewScalarReview(scalarA).Equal(NewScalarReview(scalarA)))
	assert.False(t, NewScalarReview(scalarA).Equal(NewScalarReview(scalarB)))
	assert.False(t, NewScalarReview(scalarA).Equal(NewScalarReview(scalarA+1e-12)))
}

func TestParseScalarReview(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"float64", 1.5, 1.5, false},
		{"int", 3, 3, false},
		{"uint8", uint8(7), 7, false},
		{"review", NewScalarReview(2), 2, false},
		{"string", "non number", 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
		{"histogram", mustHistogram(t, 1), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScalarReview(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Score())
		})
	}
}

func TestScalarReviewString(t *testing.T) {
	assert.Equal(t, "0.25", NewScalarReview(0.25).String())
	assert.Equal(t, "-3", NewScalarReview(-3).String())
}

func TestAverageSummaryConstruction(t *testing.T) {
	scores := []float64{1, 2, 3, 4}
	reviews := make([]ScalarReview, len(scores))
	for i, s := range scores {
		reviews[i] = NewScalarReview(s)
	}

	t.Run("single value", func(t *testing.T) {
		s, err := AverageOfScores(0.4)
		require.NoError(t, err)
		assert.Equal(t, 0.4, s.Score())
	})

	t.Run("single review", func(t *testing.T) {
		s, err := NewAverageSummary(NewScalarReview(0.4))
		require.NoError(t, err)
		assert.Equal(t, 0.4, s.Score())
	})

	t.Run("scores", func(t *testing.T) {
		s, err := AverageOfScores(scores...)
		require.NoError(t, err)
		assert.Equal(t, 2.5, s.Score())
	})

	t.Run("reviews", func(t *testing.T) {
		s, err := NewAverageSummary(reviews...)
		require.NoError(t, err)
		assert.Equal(t, 2.5, s.Score())
		assert.True(t, s.Mean().Equal(NewScalarReview(2.5)))
	})

	t.Run("iterator", func(t *testing.T) {
		s, err := AverageOfSeq(slices.Values(reviews))
		require.NoError(t, err)
		assert.Equal(t, 2.5, s.Score())
	})

	t.Run("inexact mean", func(t *testing.T) {
		s, err := AverageOfScores(0.1, 0.2, 0.3)
		require.NoError(t, err)
		assert.InDelta(t, 0.2, s.Score(), 1e-12)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewAverageSummary()
		assert.ErrorIs(t, err, ErrEmpty)
		_, err = AverageOfSeq(slices.Values([]ScalarReview(nil)))
		assert.ErrorIs(t, err, ErrEmpty)
	})
}

type rating float64

func TestParseAverageSummary(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr error
	}{
		{"number", 0.4, 0.4, nil},
		{"review", NewScalarReview(0.4), 0.4, nil},
		{"float slice", []float64{1, 2, 3, 4}, 2.5, nil},
		{"mixed slice", []any{1, NewScalarReview(2), 3.0, int64(4)}, 2.5, nil},
		{"review iterator", iter.Seq[ScalarReview](slices.Values([]ScalarReview{NewScalarReview(1), NewScalarReview(3)})), 2, nil},
		{"float iterator", iter.Seq[float64](slices.Values([]float64{2, 4})), 3, nil},
		{"func literal iterator", func(yield func(float64) bool) {
			for _, f := range []float64{1, 3} {
				if !yield(f) {
					return
				}
			}
		}, 2, nil},
		{"int64 slice", []int64{1, 3}, 2, nil},
		{"float32 slice", []float32{1.5, 2.5}, 2, nil},
		{"json numbers", []json.Number{"1", "3"}, 2, nil},
		{"array", [2]float64{1, 3}, 2, nil},
		{"named number", rating(4), 4, nil},
		{"nil iterator", iter.Seq[float64](nil), 0, ErrType},
		{"bool", true, 0, ErrType},
		{"string", "value", 0, ErrType},
		{"string slice", []any{"v", "v"}, 0, ErrType},
		{"nil", nil, 0, ErrType},
		{"empty slice", []float64{}, 0, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAverageSummary(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Score())
		})
	}
}

func TestAverageSummaryDifference(t *testing.T) {
	a, b := NewScalarReview(0.3), NewScalarReview(0.8)
	s, err := NewAverageSummary(a)
	require.NoError(t, err)

	assert.Equal(t, 0.8-0.3, s.Difference(b))
	assert.Equal(t, 0.0, s.Difference(a))

	d, err := s.DifferenceOf(b)
	require.NoError(t, err)
	assert.Equal(t, s.Difference(b), d)

	_, err = s.DifferenceOf(mustHistogram(t, 1))
	assert.ErrorIs(t, err, ErrType)
	_, err = s.DifferenceOf(nil)
	assert.ErrorIs(t, err, ErrType)
}

func TestAverageSummaryReviewKind(t *testing.T) {
	s, err := AverageOfScores(1)
	require.NoError(t, err)
	assert.Equal(t, KindScalar, s.ReviewKind())
	assert.Equal(t, KindScalar, NewScalarReview(1).Kind())
}
