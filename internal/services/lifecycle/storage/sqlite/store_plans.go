package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

// ListRituals returns the rituals planned for one companion-day by slot.
func (s *Store) ListRituals(ctx context.Context, companionID string, date time.Time) ([]storage.RitualRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT companion_id, ritual_date, slot, ritual_type, status
		   FROM rituals
		  WHERE companion_id = ? AND ritual_date = ?
		  ORDER BY slot`,
		companionID, domain.DateKey(date),
	)
	if err != nil {
		return nil, fmt.Errorf("list rituals: %w", err)
	}
	defer rows.Close()

	var rituals []storage.RitualRecord
	for rows.Next() {
		var record storage.RitualRecord
		var ritualDate, ritualType string
		if err := rows.Scan(&record.CompanionID, &ritualDate, &record.Slot, &ritualType, &record.Status); err != nil {
			return nil, fmt.Errorf("list rituals: %w", err)
		}
		parsed, err := domain.ParseDateKey(ritualDate)
		if err != nil {
			return nil, fmt.Errorf("list rituals: %w", err)
		}
		record.Date = parsed
		record.Type = domain.RitualType(ritualType)
		rituals = append(rituals, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rituals: %w", err)
	}
	return rituals, nil
}

// ListRequests returns one companion's requests, newest first.
func (s *Store) ListRequests(ctx context.Context, companionID string) ([]storage.RequestRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, companion_id, user_id, request_type, title, prompt, urgency,
		        status, due_at, consequence_hint, seed, request_index, created_at
		   FROM requests
		  WHERE companion_id = ?
		  ORDER BY created_at DESC, request_index`,
		companionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []storage.RequestRecord
	for rows.Next() {
		var (
			record    storage.RequestRecord
			urgency   string
			status    string
			dueAt     int64
			createdAt int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.CompanionID,
			&record.UserID,
			&record.Template.RequestType,
			&record.Template.Title,
			&record.Template.Prompt,
			&urgency,
			&status,
			&dueAt,
			&record.Template.ConsequenceHint,
			&record.Seed,
			&record.RequestIndex,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		record.Urgency = domain.RequestUrgency(urgency)
		record.Status = storage.RequestStatus(status)
		record.DueAt = fromMillis(dueAt)
		record.CreatedAt = fromMillis(createdAt)
		requests = append(requests, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// CountOpenRequests counts one companion's pending requests.
func (s *Store) CountOpenRequests(ctx context.Context, companionID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE companion_id = ? AND status = 'pending'`,
		companionID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open requests: %w", err)
	}
	return count, nil
}

// ExpireRequests marks overdue pending requests expired.
func (s *Store) ExpireRequests(ctx context.Context, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE requests SET status = 'expired' WHERE status = 'pending' AND due_at < ?`,
		toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("expire requests: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire requests: %w", err)
	}
	return int(affected), nil
}
