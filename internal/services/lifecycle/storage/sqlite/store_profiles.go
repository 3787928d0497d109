package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

const selectStreakSQL = `SELECT user_id, current_habit_streak, streak_freezes_available, streak_freezes_reset_at,
        streak_at_risk, streak_at_risk_since, last_streak_freeze_used
   FROM profiles`

// GetStreak returns the streak state of one user.
func (s *Store) GetStreak(ctx context.Context, userID string) (domain.StreakState, error) {
	if err := s.ready(ctx); err != nil {
		return domain.StreakState{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.StreakState{}, fmt.Errorf("user id is required")
	}
	streak, err := scanStreak(s.sqlDB.QueryRowContext(ctx, selectStreakSQL+` WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StreakState{}, storage.ErrNotFound
		}
		return domain.StreakState{}, fmt.Errorf("get streak: %w", err)
	}
	return streak, nil
}

// PutStreak inserts or replaces one user's streak state.
func (s *Store) PutStreak(ctx context.Context, streak domain.StreakState) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return putStreak(ctx, s.sqlDB, streak, s.now())
}

// ListExpiredFreezeGrants returns profiles whose freeze grant has lapsed.
func (s *Store) ListExpiredFreezeGrants(ctx context.Context, now time.Time) ([]domain.StreakState, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		selectStreakSQL+` WHERE streak_freezes_reset_at IS NOT NULL AND streak_freezes_reset_at <= ? ORDER BY user_id`,
		toMillis(now),
	)
	if err != nil {
		return nil, fmt.Errorf("list expired freeze grants: %w", err)
	}
	defer rows.Close()

	var streaks []domain.StreakState
	for rows.Next() {
		streak, err := scanStreak(rows)
		if err != nil {
			return nil, fmt.Errorf("list expired freeze grants: %w", err)
		}
		streaks = append(streaks, streak)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired freeze grants: %w", err)
	}
	return streaks, nil
}

func scanStreak(row rowScanner) (domain.StreakState, error) {
	var (
		streak      domain.StreakState
		resetAt     sql.NullInt64
		atRisk      int
		atRiskSince sql.NullInt64
		lastUsed    sql.NullInt64
	)
	if err := row.Scan(
		&streak.UserID,
		&streak.CurrentStreak,
		&streak.FreezesAvailable,
		&resetAt,
		&atRisk,
		&atRiskSince,
		&lastUsed,
	); err != nil {
		return domain.StreakState{}, err
	}
	streak.FreezesResetAt = fromNullMillis(resetAt)
	streak.AtRisk = atRisk != 0
	streak.AtRiskSince = fromNullMillis(atRiskSince)
	streak.LastFreezeUsed = fromNullMillis(lastUsed)
	return streak, nil
}
