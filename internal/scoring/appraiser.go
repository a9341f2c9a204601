package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

var (
	// ErrNoHistory is returned when a target has no stored reviews of a kind.
	ErrNoHistory = errors.New("no reviews recorded for target")
	// ErrNoTarget is returned for a blank target name.
	ErrNoTarget = errors.New("target is required")
)

// Appraisal is the outcome of measuring one review against the summary of
// everything previously recorded for its target.
type Appraisal struct {
	Target       string      `json:"target"`
	Kind         review.Kind `json:"kind"`
	SummaryScore float64     `json:"summary_score"`
	ReviewScore  float64     `json:"review_score"`
	Difference   float64     `json:"difference"`
	Level        Level       `json:"level"`
	Samples      int         `json:"samples"`
}

// defaultPublishTimeout bounds each event publish so a stalled bus cannot hold
// up a recorded review.
const defaultPublishTimeout = 2 * time.Second

// Appraiser folds a target's history into its summary and scores new reviews
// against it.
type Appraiser struct {
	store        store.Store
	hermes       hermes.Client
	thresholds   Thresholds
	historyLimit int
	logger       *slog.Logger

	publishTimeout time.Duration
}

// NewAppraiser builds an Appraiser. h may be nil, in which case no events are
// published.
func NewAppraiser(s store.Store, h hermes.Client, thresholds Thresholds, historyLimit int, logger *slog.Logger) *Appraiser {
	return &Appraiser{
		store:        s,
		hermes:       h,
		thresholds:   thresholds,
		historyLimit: historyLimit,
		logger:       logger,

		publishTimeout: defaultPublishTimeout,
	}
}

func (a *Appraiser) Thresholds() Thresholds { return a.thresholds }

// Summary loads the most recent reviews of kind for target and folds them into
// the paired summary. It returns the number of reviews folded.
func (a *Appraiser) Summary(ctx context.Context, target string, kind review.Kind) (review.Aggregate, int, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, 0, ErrNoTarget
	}
	if !kind.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown review kind %q", review.ErrType, kind)
	}

	records, err := a.store.ListReviews(ctx, store.Filter{Target: target, Kind: kind, Limit: a.historyLimit})
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	if len(records) == 0 {
		return nil, 0, ErrNoHistory
	}

	reviews := make([]review.Review, 0, len(records))
	for _, rec := range records {
		r, err := rec.Review()
		if err != nil {
			return nil, 0, fmt.Errorf("decode review %s: %w", rec.ID, err)
		}
		reviews = append(reviews, r)
	}

	summary, err := review.Summarize(kind, reviews)
	if err != nil {
		return nil, 0, fmt.Errorf("summarize %s: %w", target, err)
	}
	return summary, len(reviews), nil
}

// Evaluate measures candidate against target's current summary without
// storing it. A target with no history is consistent by definition.
func (a *Appraiser) Evaluate(ctx context.Context, target string, candidate review.Review) (*Appraisal, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: review is required", review.ErrType)
	}
	start := time.Now()
	defer func() { evaluateDuration.Observe(time.Since(start).Seconds()) }()

	kind := candidate.Kind()
	result := &Appraisal{
		Target:      strings.TrimSpace(target),
		Kind:        kind,
		ReviewScore: candidate.Score(),
		Level:       LevelConsistent,
	}

	summary, n, err := a.Summary(ctx, target, kind)
	if errors.Is(err, ErrNoHistory) {
		result.SummaryScore = result.ReviewScore
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	d, err := summary.DifferenceOf(candidate)
	if err != nil {
		return nil, err
	}
	differenceObserved.WithLabelValues(string(kind)).Observe(d)

	result.SummaryScore = summary.Score()
	result.Difference = d
	result.Level = a.thresholds.Level(d)
	result.Samples = n
	return result, nil
}

// Record evaluates candidate against the history recorded before it, then
// stores it and publishes the outcome.
func (a *Appraiser) Record(ctx context.Context, target, reviewer string, candidate review.Review) (*store.Record, *Appraisal, error) {
	appraisal, err := a.Evaluate(ctx, target, candidate)
	if err != nil {
		return nil, nil, err
	}

	rec, err := store.NewRecord(appraisal.Target, reviewer, candidate)
	if err != nil {
		return nil, nil, fmt.Errorf("encode review: %w", err)
	}
	if err := a.store.CreateReview(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("create review: %w", err)
	}

	kind := string(appraisal.Kind)
	reviewsTotal.WithLabelValues(kind).Inc()
	a.logger.Info("review recorded",
		"target", rec.Target,
		"kind", kind,
		"difference", appraisal.Difference,
		"level", appraisal.Level,
		"samples", appraisal.Samples,
	)

	a.publish(ctx, hermes.SubjectReviewRecorded(rec.Target), hermes.ReviewRecordedEvent{
		RecordID:     rec.ID,
		Target:       rec.Target,
		Reviewer:     reviewer,
		Kind:         kind,
		Score:        appraisal.ReviewScore,
		SummaryScore: appraisal.SummaryScore,
		Difference:   appraisal.Difference,
		Level:        string(appraisal.Level),
		Timestamp:    rec.CreatedAt,
	})

	if appraisal.Level.AtLeast(LevelDivergent) {
		anomaliesTotal.WithLabelValues(kind, string(appraisal.Level)).Inc()
		a.logger.Warn("divergent review",
			"target", rec.Target,
			"reviewer", reviewer,
			"difference", appraisal.Difference,
			"level", appraisal.Level,
		)
		a.publish(ctx, hermes.SubjectAnomalyDetected(rec.Target), hermes.AnomalyDetectedEvent{
			RecordID:   rec.ID,
			Target:     rec.Target,
			Reviewer:   reviewer,
			Kind:       kind,
			Difference: appraisal.Difference,
			Level:      string(appraisal.Level),
			Samples:    appraisal.Samples,
			Timestamp:  rec.CreatedAt,
		})
	}

	return rec, appraisal, nil
}

func (a *Appraiser) publish(ctx context.Context, subject string, event interface{}) {
	if a.hermes == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.publishTimeout)
	defer cancel()
	if err := a.hermes.Publish(ctx, subject, event); err != nil {
		a.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
