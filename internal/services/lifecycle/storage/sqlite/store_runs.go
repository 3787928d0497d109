package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

// RecordRun appends one batch history row.
func (s *Store) RecordRun(ctx context.Context, run storage.BatchRun) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if run.RunDate.IsZero() {
		return fmt.Errorf("run date is required")
	}
	summary := string(run.Summary)
	if summary == "" {
		summary = "{}"
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO batch_runs (run_date, started_at, finished_at, summary) VALUES (?, ?, ?, ?)`,
		domain.DateKey(run.RunDate), toMillis(run.StartedAt), toMillis(run.FinishedAt), summary,
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent batch runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.BatchRun, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT run_date, started_at, finished_at, summary
		   FROM batch_runs
		  ORDER BY started_at DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.BatchRun
	for rows.Next() {
		var (
			run                   storage.BatchRun
			runDate, summary      string
			startedAt, finishedAt int64
		)
		if err := rows.Scan(&runDate, &startedAt, &finishedAt, &summary); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		parsed, err := domain.ParseDateKey(runDate)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.RunDate = parsed
		run.StartedAt = fromMillis(startedAt)
		run.FinishedAt = fromMillis(finishedAt)
		run.Summary = []byte(summary)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
