package kindredctl

import (
	"errors"
	"time"

	apperrors "github.com/louisbranch/kindred/internal/platform/errors"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
	lifecyclesqlite "github.com/louisbranch/kindred/internal/services/lifecycle/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const timeLayout = time.RFC3339

type scarView struct {
	Date    string `json:"date"`
	Context string `json:"context"`
	Episode string `json:"episode"`
}

type consequenceView struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	DeliverOn string         `json:"deliver_on"`
	Status    string         `json:"status"`
	Attempts  int            `json:"attempts"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type requestView struct {
	ID       string `json:"id"`
	Urgency  string `json:"urgency"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	DueAt    string `json:"due_at"`
	Sequence int    `json:"index"`
}

type companionView struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"user_id"`
	State               string            `json:"state"`
	InactiveDays        int               `json:"inactive_days"`
	LastActivityDate    string            `json:"last_activity_date,omitempty"`
	ActivityWindow      []bool            `json:"activity_window"`
	CareScore           float64           `json:"care_score"`
	CareConsistency     float64           `json:"care_consistency"`
	RoutineStability    float64           `json:"routine_stability"`
	RequestFatigue      float64           `json:"request_fatigue"`
	EmotionalArc        string            `json:"emotional_arc"`
	DormancyCount       int               `json:"dormancy_count"`
	RecoveryProgress    float64           `json:"recovery_progress"`
	EvolutionPath       string            `json:"evolution_path,omitempty"`
	EvolutionPathLocked bool              `json:"evolution_path_locked"`
	Attributes          map[string]int    `json:"attributes"`
	LifeStatus          string            `json:"life_status"`
	LastProcessedDate   string            `json:"last_processed_date,omitempty"`
	DeathDate           string            `json:"death_date,omitempty"`
	CarePattern         map[string]any    `json:"care_pattern,omitempty"`
	Scars               []scarView        `json:"scars"`
	Consequences        []consequenceView `json:"consequences"`
	Requests            []requestView     `json:"requests"`
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.DateKey(*t)
}

func newCompanionView(c domain.Companion, consequences []storage.ConsequenceRecord, requests []storage.RequestRecord) companionView {
	view := companionView{
		ID:                  c.ID,
		UserID:              c.UserID,
		State:               string(c.State()),
		InactiveDays:        c.InactiveDays,
		LastActivityDate:    dateOrEmpty(c.LastActivityDate),
		ActivityWindow:      c.ActivityWindow,
		CareScore:           c.Care.Score,
		CareConsistency:     c.Care.Consistency,
		RoutineStability:    c.RoutineStability,
		RequestFatigue:      c.RequestFatigue,
		EmotionalArc:        string(c.EmotionalArc),
		DormancyCount:       c.DormancyCount,
		RecoveryProgress:    c.RecoveryProgress,
		EvolutionPath:       string(c.EvolutionPath),
		EvolutionPathLocked: c.EvolutionPathLocked,
		Attributes:          map[string]int{},
		LifeStatus:          string(c.LifeStatus),
		LastProcessedDate:   dateOrEmpty(c.LastProcessedDate),
		DeathDate:           dateOrEmpty(c.DeathDate),
		CarePattern:         c.CarePattern,
		Scars:               []scarView{},
		Consequences:        []consequenceView{},
		Requests:            []requestView{},
	}
	if view.ActivityWindow == nil {
		view.ActivityWindow = []bool{}
	}
	for _, attr := range domain.AllAttributes {
		if value, err := c.Attributes.Get(attr); err == nil {
			view.Attributes[string(attr)] = value
		}
	}
	for _, scar := range c.Scars {
		view.Scars = append(view.Scars, scarView{
			Date:    scar.Date.UTC().Format(timeLayout),
			Context: scar.Context,
			Episode: scar.Episode,
		})
	}
	for _, record := range consequences {
		view.Consequences = append(view.Consequences, consequenceView{
			ID:        record.ID,
			Kind:      string(record.Kind),
			DeliverOn: domain.DateKey(record.DeliverOn),
			Status:    string(record.Status),
			Attempts:  record.Attempts,
			Payload:   record.Payload,
		})
	}
	for _, record := range requests {
		view.Requests = append(view.Requests, requestView{
			ID:       record.ID,
			Urgency:  string(record.Urgency),
			Title:    record.Template.Title,
			Status:   string(record.Status),
			DueAt:    record.DueAt.UTC().Format(timeLayout),
			Sequence: record.RequestIndex,
		})
	}
	return view
}

func (c *cli) newShowCommand() *cobra.Command {
	var byUser bool
	cmd := &cobra.Command{
		Use:   "show <companion-id>",
		Short: "Show a companion with its scars, consequences and requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(store *lifecyclesqlite.Store, _ *zap.Logger) error {
				ctx := cmd.Context()
				var (
					companion domain.Companion
					err       error
				)
				if byUser {
					companion, err = store.GetCompanionByUser(ctx, args[0])
				} else {
					companion, err = store.GetCompanion(ctx, args[0])
				}
				if err != nil {
					return companionLookupError(args[0], err)
				}
				consequences, err := store.ListConsequences(ctx, companion.ID)
				if err != nil {
					return err
				}
				requests, err := store.ListRequests(ctx, companion.ID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newCompanionView(companion, consequences, requests))
			})
		},
	}
	cmd.Flags().BoolVar(&byUser, "user", false, "Treat the argument as a user id")
	return cmd
}

func (c *cli) newUnlockPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock-path <companion-id>",
		Short: "Clear the evolution path lock so the path can be re-determined",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(store *lifecyclesqlite.Store, logger *zap.Logger) error {
				ctx := cmd.Context()
				companion, err := store.GetCompanion(ctx, args[0])
				if err != nil {
					return companionLookupError(args[0], err)
				}
				unlocked, err := domain.UnlockEvolutionPath(companion)
				switch {
				case errors.Is(err, domain.ErrCompanionDead):
					return apperrors.Wrap(apperrors.CodeCompanionDead, "unlock evolution path", err)
				case errors.Is(err, domain.ErrNoEvolutionPath):
					return apperrors.Wrap(apperrors.CodeEvolutionPathMissing, "unlock evolution path", err)
				case err != nil:
					return err
				}
				unlocked.UpdatedAt = c.clock().UTC()
				if err := store.PutCompanion(ctx, unlocked); err != nil {
					return err
				}
				logger.Info("evolution path unlocked",
					zap.String("companion_id", unlocked.ID),
					zap.String("evolution_path", string(unlocked.EvolutionPath)),
				)
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"id":                    unlocked.ID,
					"evolution_path":        string(unlocked.EvolutionPath),
					"evolution_path_locked": unlocked.EvolutionPathLocked,
				})
			})
		},
	}
}

func companionLookupError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.WithMetadata(apperrors.CodeCompanionNotFound, "companion not found", map[string]string{"id": id})
	}
	return err
}
