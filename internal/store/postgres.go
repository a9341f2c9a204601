package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Appraisal/internal/review"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS appraisal_reviews (
		id         UUID PRIMARY KEY,
		target     TEXT NOT NULL,
		reviewer   TEXT NOT NULL DEFAULT '',
		kind       TEXT NOT NULL,
		document   JSONB NOT NULL,
		score      DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS appraisal_reviews_target_kind_idx
		ON appraisal_reviews (target, kind, created_at DESC)`,
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

const reviewColumns = `id, target, reviewer, kind, document, score, created_at`

func (s *PostgresStore) CreateReview(ctx context.Context, rec *Record) error {
	prepare(rec)
	docJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO appraisal_reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Target, rec.Reviewer, string(rec.Kind), docJSON, rec.Score, rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListReviews(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `SELECT ` + reviewColumns + ` FROM appraisal_reviews WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Target != "" {
		n++
		query += fmt.Sprintf(" AND target = $%d", n)
		args = append(args, filter.Target)
	}
	if filter.Kind != "" {
		n++
		query += fmt.Sprintf(" AND kind = $%d", n)
		args = append(args, string(filter.Kind))
	}

	query += " ORDER BY created_at DESC"

	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limitOf(filter))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var kind string
		var docJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Target, &rec.Reviewer, &kind, &docJSON, &rec.Score, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Kind = review.Kind(kind)
		if err := json.Unmarshal(docJSON, &rec.Document); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) ListTargets(ctx context.Context) ([]*TargetInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT target,
			COUNT(*),
			COUNT(*) FILTER (WHERE kind = 'scalar'),
			COUNT(*) FILTER (WHERE kind = 'histogram'),
			MAX(created_at)
		FROM appraisal_reviews
		GROUP BY target
		ORDER BY target`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TargetInfo, error) {
		ti := &TargetInfo{}
		err := row.Scan(&ti.Target, &ti.Reviews, &ti.ScalarReviews, &ti.HistogramReviews, &ti.LastReviewAt)
		return ti, err
	})
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT target),
			COALESCE(SUM(CASE WHEN kind = 'scalar' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'histogram' THEN 1 ELSE 0 END), 0)
		FROM appraisal_reviews`,
	).Scan(&stats.TotalReviews, &stats.TotalTargets, &stats.ScalarReviews, &stats.HistogramReviews)
	return stats, err
}
