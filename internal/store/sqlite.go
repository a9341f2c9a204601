package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/Appraisal/internal/review"
)

// Fixed width so that lexical order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps reviews in a local SQLite file. It is meant for
// single-node deployments and the offline CLI.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path not specified")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var sqliteSchema = []string{
	`PRAGMA journal_mode = WAL`,
	`CREATE TABLE IF NOT EXISTS appraisal_reviews (
		id         TEXT PRIMARY KEY,
		target     TEXT NOT NULL,
		reviewer   TEXT NOT NULL DEFAULT '',
		kind       TEXT NOT NULL,
		document   TEXT NOT NULL,
		score      REAL NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS appraisal_reviews_target_kind_idx
		ON appraisal_reviews (target, kind, created_at DESC)`,
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateReview(ctx context.Context, rec *Record) error {
	prepare(rec)
	docJSON, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO appraisal_reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Target, rec.Reviewer, string(rec.Kind), string(docJSON), rec.Score,
		rec.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (s *SQLiteStore) ListReviews(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `SELECT ` + reviewColumns + ` FROM appraisal_reviews WHERE 1=1`
	args := []interface{}{}

	if filter.Target != "" {
		query += " AND target = ?"
		args = append(args, filter.Target)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limitOf(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var id, kind, docJSON, createdAt string
		if err := rows.Scan(&id, &rec.Target, &rec.Reviewer, &kind, &docJSON, &rec.Score, &createdAt); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id %q: %w", id, err)
		}
		if rec.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		rec.Kind = review.Kind(kind)
		if err := json.Unmarshal([]byte(docJSON), &rec.Document); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) ListTargets(ctx context.Context) ([]*TargetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target,
			COUNT(*),
			SUM(CASE WHEN kind = 'scalar' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'histogram' THEN 1 ELSE 0 END),
			MAX(created_at)
		FROM appraisal_reviews
		GROUP BY target
		ORDER BY target`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*TargetInfo
	for rows.Next() {
		ti := &TargetInfo{}
		var last string
		if err := rows.Scan(&ti.Target, &ti.Reviews, &ti.ScalarReviews, &ti.HistogramReviews, &last); err != nil {
			return nil, err
		}
		if ti.LastReviewAt, err = time.Parse(sqliteTimeLayout, last); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", last, err)
		}
		targets = append(targets, ti)
	}
	return targets, rows.Err()
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT target),
			COALESCE(SUM(CASE WHEN kind = 'scalar' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'histogram' THEN 1 ELSE 0 END), 0)
		FROM appraisal_reviews`,
	).Scan(&stats.TotalReviews, &stats.TotalTargets, &stats.ScalarReviews, &stats.HistogramReviews)
	return stats, err
}
