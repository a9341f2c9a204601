package scoring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore keeps records in insertion order; later inserts are newer.
type memStore struct {
	records   []*store.Record
	createErr error
	clock     time.Time
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) CreateReview(_ context.Context, rec *store.Record) error {
	if m.createErr != nil {
		return m.createErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	rec.CreatedAt = m.clock
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) ListReviews(_ context.Context, f store.Filter) ([]*store.Record, error) {
	var out []*store.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if f.Target != "" && rec.Target != f.Target {
			continue
		}
		if f.Kind != "" && rec.Kind != f.Kind {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ListTargets(_ context.Context) ([]*store.TargetInfo, error) { return nil, nil }
func (m *memStore) GetStats(_ context.Context) (*store.Stats, error)          { return &store.Stats{}, nil }
func (m *memStore) Migrate(_ context.Context) error                           { return nil }
func (m *memStore) Close() error                                              { return nil }

func (m *memStore) seed(t *testing.T, target string, reviews ...review.Review) {
	t.Helper()
	for _, r := range reviews {
		rec, err := store.NewRecord(target, "seed", r)
		require.NoError(t, err)
		require.NoError(t, m.CreateReview(context.Background(), rec))
	}
}

type MockHermes struct {
	mock.Mock
}

func (m *MockHermes) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	args := m.Called(subject, handler)
	return args.Error(0)
}

func (m *MockHermes) Close() {}

func histogram(t *testing.T, v float64) review.HistogramReview {
	t.Helper()
	h, err := review.NewHistogramReview(v)
	require.NoError(t, err)
	return h
}

func newTestAppraiser(s store.Store, h hermes.Client) *Appraiser {
	return NewAppraiser(s, h, DefaultThresholds(), 100, discardLogger())
}

func TestEvaluateNoHistory(t *testing.T) {
	a := newTestAppraiser(newMemStore(), nil)

	got, err := a.Evaluate(context.Background(), "product-1", review.NewScalarReview(0.7))
	require.NoError(t, err)
	assert.Equal(t, &Appraisal{
		Target:       "product-1",
		Kind:         review.KindScalar,
		SummaryScore: 0.7,
		ReviewScore:  0.7,
		Difference:   0,
		Level:        LevelConsistent,
		Samples:      0,
	}, got)
}

func TestEvaluateScalar(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product-1", review.NewScalarReview(0.2), review.NewScalarReview(0.4))
	a := newTestAppraiser(s, nil)

	got, err := a.Evaluate(context.Background(), "product-1", review.NewScalarReview(0.9))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got.SummaryScore, 1e-9)
	assert.InDelta(t, 0.6, got.Difference, 1e-9)
	assert.Equal(t, LevelDivergent, got.Level)
	assert.Equal(t, 2, got.Samples)
	assert.Len(t, s.records, 2, "evaluate must not store")
}

func TestEvaluateHistogram(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product-1", histogram(t, 3.2))
	a := newTestAppraiser(s, nil)

	t.Run("same bucket", func(t *testing.T) {
		got, err := a.Evaluate(context.Background(), "product-1", histogram(t, 2.9))
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.Difference)
		assert.Equal(t, LevelConsistent, got.Level)
		assert.Equal(t, 1, got.Samples)
	})

	t.Run("disjoint bucket", func(t *testing.T) {
		got, err := a.Evaluate(context.Background(), "product-1", histogram(t, 7.6))
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.Difference)
		assert.Equal(t, LevelAnomalous, got.Level)
	})
}

func TestEvaluateOnlyUsesMatchingKind(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product-1", review.NewScalarReview(5))
	a := newTestAppraiser(s, nil)

	got, err := a.Evaluate(context.Background(), "product-1", histogram(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Samples)
	assert.Equal(t, LevelConsistent, got.Level)
}

func TestEvaluateRejectsNilReview(t *testing.T) {
	a := newTestAppraiser(newMemStore(), nil)
	_, err := a.Evaluate(context.Background(), "product-1", nil)
	assert.ErrorIs(t, err, review.ErrType)
}

func TestSummary(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product-1", review.NewScalarReview(10), review.NewScalarReview(0), review.NewScalarReview(1))
	s.seed(t, "product-2", review.NewScalarReview(100))

	t.Run("history limit keeps newest", func(t *testing.T) {
		a := NewAppraiser(s, nil, DefaultThresholds(), 2, discardLogger())
		summary, n, err := a.Summary(context.Background(), "product-1", review.KindScalar)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 0.5, summary.Score())
		assert.Equal(t, review.KindScalar, summary.ReviewKind())
	})

	t.Run("no history", func(t *testing.T) {
		a := newTestAppraiser(s, nil)
		_, _, err := a.Summary(context.Background(), "product-3", review.KindScalar)
		assert.ErrorIs(t, err, ErrNoHistory)
	})

	t.Run("blank target", func(t *testing.T) {
		a := newTestAppraiser(s, nil)
		_, _, err := a.Summary(context.Background(), "  ", review.KindScalar)
		assert.ErrorIs(t, err, ErrNoTarget)
	})

	t.Run("unknown kind", func(t *testing.T) {
		a := newTestAppraiser(s, nil)
		_, _, err := a.Summary(context.Background(), "product-1", review.Kind("stars"))
		assert.ErrorIs(t, err, review.ErrType)
	})
}

func TestRecordPublishesEvents(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product 1", review.NewScalarReview(0))
	mh := new(MockHermes)
	mh.On("Publish", mock.Anything, "appraisal.review.product_1.recorded", mock.AnythingOfType("hermes.ReviewRecordedEvent")).Return(nil)
	mh.On("Publish", mock.Anything, "appraisal.anomaly.product_1.detected", mock.AnythingOfType("hermes.AnomalyDetectedEvent")).Return(nil)
	a := newTestAppraiser(s, mh)

	rec, got, err := a.Record(context.Background(), "product 1", "alice", review.NewScalarReview(2))
	require.NoError(t, err)
	assert.Equal(t, LevelAnomalous, got.Level)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "alice", rec.Reviewer)
	assert.Len(t, s.records, 2)
	mh.AssertExpectations(t)

	event := mh.Calls[1].Arguments.Get(2).(hermes.AnomalyDetectedEvent)
	assert.Equal(t, rec.ID, event.RecordID)
	assert.Equal(t, "anomalous", event.Level)
	assert.Equal(t, 1, event.Samples)
}

func TestRecordConsistentSkipsAnomalyEvent(t *testing.T) {
	s := newMemStore()
	s.seed(t, "product-1", review.NewScalarReview(1))
	mh := new(MockHermes)
	mh.On("Publish", mock.Anything, "appraisal.review.product-1.recorded", mock.Anything).Return(nil)
	a := newTestAppraiser(s, mh)

	_, got, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(1.1))
	require.NoError(t, err)
	assert.Equal(t, LevelConsistent, got.Level)
	mh.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRecordEvaluatesBeforeStoring(t *testing.T) {
	s := newMemStore()
	a := newTestAppraiser(s, nil)

	_, first, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(4))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Samples)

	_, second, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(4))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Samples)
	assert.Equal(t, 0.0, second.Difference)
}

func TestRecordPublishFailureIsNotFatal(t *testing.T) {
	mh := new(MockHermes)
	mh.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))
	a := newTestAppraiser(newMemStore(), mh)

	rec, _, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(1))
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestRecordPublishIsBounded(t *testing.T) {
	mh := new(MockHermes)
	mh.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)
	a := newTestAppraiser(newMemStore(), mh)
	a.publishTimeout = 20 * time.Millisecond

	start := time.Now()
	rec, _, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(1))
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Less(t, time.Since(start), 2*time.Second)
	mh.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRecordStoreError(t *testing.T) {
	s := newMemStore()
	s.createErr = errors.New("disk full")
	mh := new(MockHermes)
	a := newTestAppraiser(s, mh)

	_, _, err := a.Record(context.Background(), "product-1", "", review.NewScalarReview(1))
	assert.Error(t, err)
	mh.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordCountsReviews(t *testing.T) {
	a := newTestAppraiser(newMemStore(), nil)
	before := testutil.ToFloat64(reviewsTotal.WithLabelValues("histogram"))

	_, _, err := a.Record(context.Background(), "product-1", "", histogram(t, 2))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(reviewsTotal.WithLabelValues("histogram")))
}
