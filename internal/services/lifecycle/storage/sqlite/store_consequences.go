package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

const selectConsequenceSQL = `SELECT id, companion_id, user_id, kind, payload, deliver_on, dedupe_key,
        status, attempts, last_error, delivered_at, created_at
   FROM consequences`

// ListDueConsequences returns pending consequences due at or before through,
// keyset paged on (deliver_on, created_at, id).
func (s *Store) ListDueConsequences(ctx context.Context, through time.Time, after *storage.ConsequenceCursor, limit int) ([]storage.ConsequenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	query := selectConsequenceSQL + ` WHERE status = 'pending' AND deliver_on <= ?`
	args := []any{domain.DateKey(through)}
	if after != nil {
		query += ` AND (deliver_on, created_at, id) > (?, ?, ?)`
		args = append(args, domain.DateKey(after.DeliverOn), toMillis(after.CreatedAt), after.ID)
	}
	query += ` ORDER BY deliver_on, created_at, id LIMIT ?`
	args = append(args, limit)
	return s.queryConsequences(ctx, query, args...)
}

// ListConsequences returns every consequence of one companion, newest first.
func (s *Store) ListConsequences(ctx context.Context, companionID string) ([]storage.ConsequenceRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryConsequences(ctx,
		selectConsequenceSQL+` WHERE companion_id = ? ORDER BY deliver_on DESC, created_at DESC, id`,
		companionID,
	)
}

func (s *Store) queryConsequences(ctx context.Context, query string, args ...any) ([]storage.ConsequenceRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consequences: %w", err)
	}
	defer rows.Close()

	var records []storage.ConsequenceRecord
	for rows.Next() {
		var (
			record      storage.ConsequenceRecord
			kind        string
			payload     string
			deliverOn   string
			status      string
			deliveredAt sql.NullInt64
			createdAt   int64
		)
		if err := rows.Scan(
			&record.ID,
			&record.CompanionID,
			&record.UserID,
			&kind,
			&payload,
			&deliverOn,
			&record.DedupeKey,
			&status,
			&record.Attempts,
			&record.LastError,
			&deliveredAt,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list consequences: %w", err)
		}
		parsedKind, err := domain.ParseConsequenceKind(kind)
		if err != nil {
			return nil, fmt.Errorf("consequence %s: %w", record.ID, err)
		}
		record.Kind = parsedKind
		date, err := domain.ParseDateKey(deliverOn)
		if err != nil {
			return nil, fmt.Errorf("consequence %s: %w", record.ID, err)
		}
		record.DeliverOn = date
		if err := json.Unmarshal([]byte(payload), &record.Payload); err != nil || record.Payload == nil {
			record.Payload = map[string]any{}
		}
		record.Status = storage.ConsequenceStatus(status)
		record.DeliveredAt = fromNullMillis(deliveredAt)
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consequences: %w", err)
	}
	return records, nil
}

// MarkConsequenceDelivered marks one pending consequence delivered.
func (s *Store) MarkConsequenceDelivered(ctx context.Context, consequenceID string, deliveredAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return fmt.Errorf("consequence id is required")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE consequences
		    SET status = 'delivered', delivered_at = ?, attempts = attempts + 1, last_error = ''
		  WHERE id = ? AND status = 'pending'`,
		toMillis(deliveredAt), consequenceID,
	)
	if err != nil {
		return fmt.Errorf("mark consequence delivered: %w", err)
	}
	return requireAffected(res, "mark consequence delivered")
}

// MarkConsequenceFailed records a failed attempt.
func (s *Store) MarkConsequenceFailed(ctx context.Context, consequenceID, message string, maxAttempts int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	consequenceID = strings.TrimSpace(consequenceID)
	if consequenceID == "" {
		return fmt.Errorf("consequence id is required")
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE consequences
		    SET attempts = attempts + 1,
		        last_error = ?,
		        status = CASE WHEN attempts + 1 >= ? THEN 'failed' ELSE 'pending' END
		  WHERE id = ? AND status = 'pending'`,
		message, maxAttempts, consequenceID,
	)
	if err != nil {
		return fmt.Errorf("mark consequence failed: %w", err)
	}
	return requireAffected(res, "mark consequence failed")
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
