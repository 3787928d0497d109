package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
)

// ListBehaviorLogs returns a user's logs between from and through inclusive,
// oldest first.
func (s *Store) ListBehaviorLogs(ctx context.Context, userID string, from, through time.Time) ([]domain.BehaviorLog, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id, log_date, habits_completed, tasks_completed, check_ins,
		        first_activity_at, last_activity_at, completion_velocity, is_binge
		   FROM behavior_logs
		  WHERE user_id = ? AND log_date >= ? AND log_date <= ?
		  ORDER BY log_date`,
		userID, domain.DateKey(from), domain.DateKey(through),
	)
	if err != nil {
		return nil, fmt.Errorf("list behavior logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.BehaviorLog
	for rows.Next() {
		var (
			log         domain.BehaviorLog
			date        string
			first, last sql.NullInt64
			isBinge     int
		)
		if err := rows.Scan(
			&log.UserID,
			&date,
			&log.HabitsCompleted,
			&log.TasksCompleted,
			&log.CheckIns,
			&first,
			&last,
			&log.CompletionVelocity,
			&isBinge,
		); err != nil {
			return nil, fmt.Errorf("list behavior logs: %w", err)
		}
		parsed, err := domain.ParseDateKey(date)
		if err != nil {
			// unreadable dates are treated as missing days
			continue
		}
		log.Date = parsed
		log.FirstActivityAt = fromNullMillis(first)
		log.LastActivityAt = fromNullMillis(last)
		log.IsBinge = isBinge != 0
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list behavior logs: %w", err)
	}
	return logs, nil
}

// PutBehaviorLog inserts or replaces the log for one user-day. Velocity and
// binge are derived before writing.
func (s *Store) PutBehaviorLog(ctx context.Context, log domain.BehaviorLog) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(log.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if log.Date.IsZero() {
		return fmt.Errorf("log date is required")
	}
	log = domain.NormalizeBehaviorLog(log)
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO behavior_logs (
		   user_id, log_date, habits_completed, tasks_completed, check_ins,
		   first_activity_at, last_activity_at, completion_velocity, is_binge
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, log_date) DO UPDATE SET
		   habits_completed = excluded.habits_completed,
		   tasks_completed = excluded.tasks_completed,
		   check_ins = excluded.check_ins,
		   first_activity_at = excluded.first_activity_at,
		   last_activity_at = excluded.last_activity_at,
		   completion_velocity = excluded.completion_velocity,
		   is_binge = excluded.is_binge`,
		log.UserID,
		domain.DateKey(log.Date),
		log.HabitsCompleted,
		log.TasksCompleted,
		log.CheckIns,
		toNullMillis(log.FirstActivityAt),
		toNullMillis(log.LastActivityAt),
		log.CompletionVelocity,
		boolToInt(log.IsBinge),
	); err != nil {
		return fmt.Errorf("put behavior log: %w", err)
	}
	return nil
}
