package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Appraisal/internal/review"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "appraisal.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func mustRecord(t *testing.T, target string, r review.Review, at time.Time) *Record {
	t.Helper()
	rec, err := NewRecord(target, "tester", r)
	require.NoError(t, err)
	rec.CreatedAt = at
	return rec
}

func TestSQLiteCreateAndList(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h, err := review.HistogramFromBuckets([]review.Bucket{{Key: 2.2, Weight: 0.5}, {Key: 4, Weight: 0.5}})
	require.NoError(t, err)

	recs := []*Record{
		mustRecord(t, "product-1", review.NewScalarReview(0.4), base),
		mustRecord(t, "product-1", review.NewScalarReview(0.9), base.Add(time.Minute)),
		mustRecord(t, "product-1", h, base.Add(2*time.Minute)),
		mustRecord(t, "product-2", review.NewScalarReview(0.1), base.Add(3*time.Minute)),
	}
	for _, rec := range recs {
		require.NoError(t, s.CreateReview(ctx, rec))
		assert.NotEqual(t, uuid.Nil, rec.ID)
	}

	got, err := s.ListReviews(ctx, Filter{Target: "product-1", Kind: review.KindScalar})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[1].ID, got[0].ID, "newest first")
	assert.Equal(t, 0.9, got[0].Score)
	assert.True(t, got[0].CreatedAt.Equal(recs[1].CreatedAt))
	assert.Equal(t, "tester", got[0].Reviewer)

	got, err = s.ListReviews(ctx, Filter{Target: "product-1", Kind: review.KindHistogram})
	require.NoError(t, err)
	require.Len(t, got, 1)
	back, err := got[0].Review()
	require.NoError(t, err)
	assert.True(t, h.Equal(back.(review.HistogramReview)))

	got, err = s.ListReviews(ctx, Filter{Target: "product-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, recs[2].ID, got[0].ID)
}

func TestSQLiteCreateAssignsTimestamp(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	rec, err := NewRecord("product-1", "", review.NewScalarReview(1))
	require.NoError(t, err)
	require.NoError(t, s.CreateReview(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSQLiteTargetsAndStats(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h, err := review.NewHistogramReview(3)
	require.NoError(t, err)
	for i, rec := range []*Record{
		mustRecord(t, "b", review.NewScalarReview(0.4), base),
		mustRecord(t, "a", review.NewScalarReview(0.9), base.Add(time.Minute)),
		mustRecord(t, "a", h, base.Add(2*time.Minute)),
	} {
		require.NoError(t, s.CreateReview(ctx, rec), "record %d", i)
	}

	targets, err := s.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "a", targets[0].Target)
	assert.Equal(t, 2, targets[0].Reviews)
	assert.Equal(t, 1, targets[0].ScalarReviews)
	assert.Equal(t, 1, targets[0].HistogramReviews)
	assert.True(t, targets[0].LastReviewAt.Equal(base.Add(2*time.Minute)))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{TotalReviews: 3, TotalTargets: 2, ScalarReviews: 2, HistogramReviews: 1}, stats)
}

func TestSQLiteEmptyStats(t *testing.T) {
	s := setupSQLite(t)
	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)

	rec, err := NewRecord("t", "", review.NewScalarReview(1))
	require.NoError(t, err)
	require.NoError(t, s.CreateReview(ctx, rec))
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), "")
	assert.Error(t, err)
}
