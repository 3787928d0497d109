package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

// SaveDay writes one processed companion-day in a single transaction. The
// companion update only applies when the stored processing marker predates
// the run date, so a concurrent or repeated run cannot double-apply a day.
func (s *Store) SaveDay(ctx context.Context, write storage.DayWrite) (err error) {
	if err := s.ready(ctx); err != nil {
		return err
	}
	c := write.Companion
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("companion id is required")
	}
	if write.RunDate.IsZero() {
		return fmt.Errorf("run date is required")
	}
	runKey := domain.DateKey(write.RunDate)
	createdAt := toMillis(s.now())

	values, err := companionValues(c)
	if err != nil {
		return err
	}
	// drop user_id and created_at to match saveDaySQL
	updateArgs := make([]any, 0, len(values)+2)
	for i, col := range companionColumns {
		if col == "user_id" || col == "created_at" {
			continue
		}
		updateArgs = append(updateArgs, values[i])
	}
	updateArgs = append(updateArgs, c.ID, runKey)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save day: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, saveDaySQL, updateArgs...)
	if err != nil {
		return fmt.Errorf("update companion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update companion: %w", err)
	}
	if affected == 0 {
		var found int
		lookupErr := tx.QueryRowContext(ctx, `SELECT 1 FROM companions WHERE id = ?`, c.ID).Scan(&found)
		if errors.Is(lookupErr, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if lookupErr != nil {
			return fmt.Errorf("update companion: %w", lookupErr)
		}
		return storage.ErrAlreadyProcessed
	}

	if write.Scar != nil {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO scars (companion_id, scar_date, context, episode)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(companion_id, episode) DO NOTHING`,
			c.ID, toMillis(write.Scar.Date), write.Scar.Context, write.Scar.Episode,
		); err != nil {
			return fmt.Errorf("append scar: %w", err)
		}
	}

	for _, consequence := range write.Consequences {
		if err = s.insertConsequence(ctx, tx, consequence, createdAt); err != nil {
			return err
		}
	}

	for slot, ritual := range write.Rituals {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO rituals (companion_id, ritual_date, slot, ritual_type, status, created_at)
			 VALUES (?, ?, ?, ?, 'pending', ?)
			 ON CONFLICT(companion_id, ritual_date, slot) DO NOTHING`,
			c.ID, runKey, slot, string(ritual), createdAt,
		); err != nil {
			return fmt.Errorf("insert ritual: %w", err)
		}
	}

	for _, request := range write.Requests {
		if err = s.insertRequest(ctx, tx, request, createdAt); err != nil {
			return err
		}
	}

	if write.Streak != nil {
		if err = putStreak(ctx, tx, *write.Streak, s.now()); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save day: %w", err)
	}
	return nil
}

func (s *Store) insertConsequence(ctx context.Context, tx *sql.Tx, c domain.Consequence, createdAt int64) error {
	consequenceID, err := s.newID()
	if err != nil {
		return err
	}
	payload := c.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode consequence payload: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO consequences (id, companion_id, user_id, kind, payload, deliver_on, dedupe_key, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?)
		 ON CONFLICT(dedupe_key) DO NOTHING`,
		consequenceID, c.CompanionID, c.UserID, string(c.Kind), string(payloadJSON),
		domain.DateKey(c.DeliverOn), c.DedupeKey, createdAt,
	); err != nil {
		return fmt.Errorf("queue consequence: %w", err)
	}
	return nil
}

func (s *Store) insertRequest(ctx context.Context, tx *sql.Tx, r domain.Request, createdAt int64) error {
	requestID, err := s.newID()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO requests (
		   id, companion_id, user_id, request_type, title, prompt, urgency,
		   status, due_at, consequence_hint, seed, request_index, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?, ?)
		 ON CONFLICT(companion_id, seed, request_index) DO NOTHING`,
		requestID, r.CompanionID, r.UserID, r.Template.RequestType, r.Template.Title, r.Template.Prompt,
		string(r.Urgency), toMillis(r.DueAt), r.Template.ConsequenceHint, r.Seed, r.RequestIndex, createdAt,
	); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putStreak(ctx context.Context, db execer, streak domain.StreakState, now time.Time) error {
	if strings.TrimSpace(streak.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO profiles (
		   user_id, current_habit_streak, streak_freezes_available, streak_freezes_reset_at,
		   streak_at_risk, streak_at_risk_since, last_streak_freeze_used, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   current_habit_streak = excluded.current_habit_streak,
		   streak_freezes_available = excluded.streak_freezes_available,
		   streak_freezes_reset_at = excluded.streak_freezes_reset_at,
		   streak_at_risk = excluded.streak_at_risk,
		   streak_at_risk_since = excluded.streak_at_risk_since,
		   last_streak_freeze_used = excluded.last_streak_freeze_used,
		   updated_at = excluded.updated_at`,
		streak.UserID,
		streak.CurrentStreak,
		streak.FreezesAvailable,
		toNullMillis(streak.FreezesResetAt),
		boolToInt(streak.AtRisk),
		toNullMillis(streak.AtRiskSince),
		toNullMillis(streak.LastFreezeUsed),
		toMillis(now),
	); err != nil {
		return fmt.Errorf("put streak: %w", err)
	}
	return nil
}
