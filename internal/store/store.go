package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Appraisal/internal/review"
)

const defaultListLimit = 1000

// Record is one persisted review of a target.
type Record struct {
	ID        uuid.UUID       `json:"id"`
	Target    string          `json:"target"`
	Reviewer  string          `json:"reviewer,omitempty"`
	Kind      review.Kind     `json:"kind"`
	Document  review.Document `json:"document"`
	Score     float64         `json:"score"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRecord encodes r for persistence.
func NewRecord(target, reviewer string, r review.Review) (*Record, error) {
	doc, err := review.Encode(r)
	if err != nil {
		return nil, err
	}
	return &Record{
		Target:   target,
		Reviewer: reviewer,
		Kind:     r.Kind(),
		Document: doc,
		Score:    r.Score(),
	}, nil
}

// Review decodes the stored document.
func (r *Record) Review() (review.Review, error) {
	return review.Decode(r.Document, r.Kind)
}

type Filter struct {
	Target string
	Kind   review.Kind
	Limit  int
}

type TargetInfo struct {
	Target           string    `json:"target"`
	Reviews          int       `json:"reviews"`
	ScalarReviews    int       `json:"scalar_reviews"`
	HistogramReviews int       `json:"histogram_reviews"`
	LastReviewAt     time.Time `json:"last_review_at"`
}

type Stats struct {
	TotalReviews     int `json:"total_reviews"`
	TotalTargets     int `json:"total_targets"`
	ScalarReviews    int `json:"scalar_reviews"`
	HistogramReviews int `json:"histogram_reviews"`
}

type Store interface {
	// CreateReview assigns ID and CreatedAt when they are unset.
	CreateReview(ctx context.Context, rec *Record) error
	// ListReviews returns the newest reviews first.
	ListReviews(ctx context.Context, filter Filter) ([]*Record, error)
	ListTargets(ctx context.Context) ([]*TargetInfo, error)
	GetStats(ctx context.Context) (*Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open picks the backend from the URL scheme and migrates its schema.
func Open(ctx context.Context, url string) (Store, error) {
	var (
		s   Store
		err error
	)
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		s, err = NewPostgresStore(ctx, url)
	} else {
		s, err = NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func prepare(rec *Record) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func limitOf(f Filter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
