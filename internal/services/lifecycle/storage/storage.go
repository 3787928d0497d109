package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyProcessed indicates the companion already holds the run date marker.
	ErrAlreadyProcessed = errors.New("companion already processed for run date")
	// ErrConflict indicates a uniqueness-constrained record already exists.
	ErrConflict = errors.New("record already exists")
)

// DayWrite is everything one processed companion-day persists.
type DayWrite struct {
	Companion    domain.Companion
	RunDate      time.Time
	Scar         *domain.Scar
	Consequences []domain.Consequence
	Rituals      []domain.RitualType
	Requests     []domain.Request
	Streak       *domain.StreakState
}

// CompanionStore persists companion life state.
type CompanionStore interface {
	// ListLivingCompanions returns companions whose is_alive is true or unset.
	ListLivingCompanions(ctx context.Context) ([]domain.Companion, error)
	GetCompanion(ctx context.Context, companionID string) (domain.Companion, error)
	GetCompanionByUser(ctx context.Context, userID string) (domain.Companion, error)
	// PutCompanion inserts or replaces the companion row. Scars are not written.
	PutCompanion(ctx context.Context, companion domain.Companion) error
	// SaveDay writes one processed day atomically. It returns
	// ErrAlreadyProcessed when the stored marker already covers RunDate.
	SaveDay(ctx context.Context, write DayWrite) error
}

// ActivityLog reads and records per-day behavior logs.
type ActivityLog interface {
	ListBehaviorLogs(ctx context.Context, userID string, from, through time.Time) ([]domain.BehaviorLog, error)
	PutBehaviorLog(ctx context.Context, log domain.BehaviorLog) error
}

// ScarStore reads the permanent scar log.
type ScarStore interface {
	ListScars(ctx context.Context, companionID string) ([]domain.Scar, error)
}

// ConsequenceStatus is the delivery state of a queued consequence.
type ConsequenceStatus string

const (
	ConsequencePending   ConsequenceStatus = "pending"
	ConsequenceDelivered ConsequenceStatus = "delivered"
	ConsequenceFailed    ConsequenceStatus = "failed"
)

// ConsequenceRecord is one stored consequence.
type ConsequenceRecord struct {
	ID string
	domain.Consequence
	Status      ConsequenceStatus
	Attempts    int
	LastError   string
	DeliveredAt *time.Time
	CreatedAt   time.Time
}

// ConsequenceCursor is the sort key of the last consequence of a page.
type ConsequenceCursor struct {
	DeliverOn time.Time
	CreatedAt time.Time
	ID        string
}

// CursorOf returns the position of r in due order.
func CursorOf(r ConsequenceRecord) *ConsequenceCursor {
	return &ConsequenceCursor{DeliverOn: r.DeliverOn, CreatedAt: r.CreatedAt, ID: r.ID}
}

// ConsequenceStore tracks queued consequences until they are delivered.
type ConsequenceStore interface {
	// ListDueConsequences returns pending consequences with deliver_on at or
	// before through, oldest first. A non-nil after resumes strictly past
	// that position.
	ListDueConsequences(ctx context.Context, through time.Time, after *ConsequenceCursor, limit int) ([]ConsequenceRecord, error)
	ListConsequences(ctx context.Context, companionID string) ([]ConsequenceRecord, error)
	MarkConsequenceDelivered(ctx context.Context, consequenceID string, deliveredAt time.Time) error
	// MarkConsequenceFailed records an attempt. Once attempts reach
	// maxAttempts the consequence stops being due.
	MarkConsequenceFailed(ctx context.Context, consequenceID, message string, maxAttempts int) error
}

// RitualRecord is one planned ritual slot.
type RitualRecord struct {
	CompanionID string
	Date        time.Time
	Slot        int
	Type        domain.RitualType
	Status      string
}

// RequestStatus is the lifecycle of a companion request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestCompleted RequestStatus = "completed"
	RequestDeclined  RequestStatus = "declined"
	RequestExpired   RequestStatus = "expired"
)

// RequestRecord is one stored companion request.
type RequestRecord struct {
	ID string
	domain.Request
	Status    RequestStatus
	CreatedAt time.Time
}

// PlanStore reads planned rituals and requests.
type PlanStore interface {
	ListRituals(ctx context.Context, companionID string, date time.Time) ([]RitualRecord, error)
	ListRequests(ctx context.Context, companionID string) ([]RequestRecord, error)
	// CountOpenRequests counts pending requests.
	CountOpenRequests(ctx context.Context, companionID string) (int, error)
	// ExpireRequests marks pending requests due before now as expired.
	ExpireRequests(ctx context.Context, now time.Time) (int, error)
}

// ProfileStore persists streak bookkeeping per user.
type ProfileStore interface {
	GetStreak(ctx context.Context, userID string) (domain.StreakState, error)
	PutStreak(ctx context.Context, streak domain.StreakState) error
	// ListExpiredFreezeGrants returns profiles whose freeze grant expired at or before now.
	ListExpiredFreezeGrants(ctx context.Context, now time.Time) ([]domain.StreakState, error)
}

// BatchRun is the operator history row for one batch invocation.
type BatchRun struct {
	RunDate    time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	// Summary is the JSON summary returned to the caller.
	Summary []byte
}

// RunStore records batch history.
type RunStore interface {
	RecordRun(ctx context.Context, run BatchRun) error
	ListRuns(ctx context.Context, limit int) ([]BatchRun, error)
}

// Store is the full lifecycle persistence surface.
type Store interface {
	CompanionStore
	ActivityLog
	ScarStore
	ConsequenceStore
	PlanStore
	ProfileStore
	RunStore
	Close() error
}
