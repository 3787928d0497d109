package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
)

// companionColumns are every companion column except id, in bind order.
var companionColumns = []string{
	"user_id",
	"is_alive",
	"inactive_days",
	"last_activity_date",
	"inactive_since",
	"episode_scarred",
	"last_7_days_activity",
	"care_score",
	"care_consistency",
	"care_responsiveness",
	"care_balance",
	"care_intent",
	"care_recovery",
	"care_pattern",
	"routine_stability_score",
	"request_fatigue",
	"emotional_arc",
	"dormant_since",
	"dormancy_count",
	"dormancy_recovery_days",
	"recovery_progress",
	"evolution_path",
	"evolution_path_locked",
	"path_determination_date",
	"vitality",
	"wisdom",
	"discipline",
	"resolve",
	"creativity",
	"alignment",
	"life_status",
	"last_weekly_maintenance_date",
	"bond_level",
	"total_interactions",
	"current_stage",
	"last_processed_date",
	"death_date",
	"created_at",
	"updated_at",
}

var (
	selectCompanionSQL = "SELECT id, " + strings.Join(companionColumns, ", ") + " FROM companions"
	upsertCompanionSQL = func() string {
		updates := make([]string, 0, len(companionColumns))
		for _, col := range companionColumns {
			if col == "created_at" {
				continue
			}
			updates = append(updates, col+" = excluded."+col)
		}
		return "INSERT INTO companions (id, " + strings.Join(companionColumns, ", ") + ") VALUES (?" +
			strings.Repeat(", ?", len(companionColumns)) + ") ON CONFLICT(id) DO UPDATE SET " +
			strings.Join(updates, ", ")
	}()
	// saveDaySQL only matches rows whose marker is older than the run date.
	saveDaySQL = func() string {
		sets := make([]string, 0, len(companionColumns))
		for _, col := range companionColumns {
			if col == "user_id" || col == "created_at" {
				continue
			}
			sets = append(sets, col+" = ?")
		}
		return "UPDATE companions SET " + strings.Join(sets, ", ") +
			" WHERE id = ? AND (last_processed_date IS NULL OR last_processed_date < ?)"
	}()
)

func companionValues(c domain.Companion) ([]any, error) {
	window := c.ActivityWindow
	if window == nil {
		window = []bool{}
	}
	windowJSON, err := json.Marshal(window)
	if err != nil {
		return nil, fmt.Errorf("encode activity window: %w", err)
	}
	pattern := c.CarePattern
	if pattern == nil {
		pattern = map[string]any{}
	}
	patternJSON, err := json.Marshal(pattern)
	if err != nil {
		return nil, fmt.Errorf("encode care pattern: %w", err)
	}
	var path sql.NullString
	if c.EvolutionPath != domain.PathUnresolved {
		path = sql.NullString{String: string(c.EvolutionPath), Valid: true}
	}
	lifeStatus := c.LifeStatus
	if lifeStatus == "" {
		lifeStatus = domain.LifeStatusActive
	}
	arc := c.EmotionalArc
	if arc == "" {
		arc = domain.ArcForming
	}
	return []any{
		c.UserID,
		boolToInt(c.IsAlive),
		c.InactiveDays,
		toNullDate(c.LastActivityDate),
		toNullDate(c.InactiveSince),
		boolToInt(c.EpisodeScarred),
		string(windowJSON),
		c.Care.Score,
		c.Care.Consistency,
		c.Care.Responsiveness,
		c.Care.Balance,
		c.Care.Intent,
		c.Care.Recovery,
		string(patternJSON),
		c.RoutineStability,
		c.RequestFatigue,
		string(arc),
		toNullMillis(c.DormantSince),
		c.DormancyCount,
		c.DormancyRecoveryDays,
		c.RecoveryProgress,
		path,
		boolToInt(c.EvolutionPathLocked),
		toNullMillis(c.PathDeterminationDate),
		c.Attributes.Vitality,
		c.Attributes.Wisdom,
		c.Attributes.Discipline,
		c.Attributes.Resolve,
		c.Attributes.Creativity,
		c.Attributes.Alignment,
		string(lifeStatus),
		toNullDate(c.LastWeeklyMaintenanceDate),
		c.BondLevel,
		c.TotalInteractions,
		c.CurrentStage,
		toNullDate(c.LastProcessedDate),
		toNullMillis(c.DeathDate),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCompanion reads one row. Malformed optional fields fall back to
// neutral values so a single bad row cannot stall the batch.
func scanCompanion(row rowScanner) (domain.Companion, error) {
	var (
		c                 domain.Companion
		isAlive           sql.NullBool
		lastActivity      sql.NullString
		inactiveSince     sql.NullString
		episodeScarred    int
		windowJSON        string
		patternJSON       string
		arc               string
		dormantSince      sql.NullInt64
		path              sql.NullString
		pathLocked        int
		pathDetermination sql.NullInt64
		lifeStatus        string
		lastMaintenance   sql.NullString
		lastProcessed     sql.NullString
		deathDate         sql.NullInt64
		createdAt         int64
		updatedAt         int64
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&isAlive,
		&c.InactiveDays,
		&lastActivity,
		&inactiveSince,
		&episodeScarred,
		&windowJSON,
		&c.Care.Score,
		&c.Care.Consistency,
		&c.Care.Responsiveness,
		&c.Care.Balance,
		&c.Care.Intent,
		&c.Care.Recovery,
		&patternJSON,
		&c.RoutineStability,
		&c.RequestFatigue,
		&arc,
		&dormantSince,
		&c.DormancyCount,
		&c.DormancyRecoveryDays,
		&c.RecoveryProgress,
		&path,
		&pathLocked,
		&pathDetermination,
		&c.Attributes.Vitality,
		&c.Attributes.Wisdom,
		&c.Attributes.Discipline,
		&c.Attributes.Resolve,
		&c.Attributes.Creativity,
		&c.Attributes.Alignment,
		&lifeStatus,
		&lastMaintenance,
		&c.BondLevel,
		&c.TotalInteractions,
		&c.CurrentStage,
		&lastProcessed,
		&deathDate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Companion{}, err
	}

	c.IsAlive = !isAlive.Valid || isAlive.Bool
	c.EpisodeScarred = episodeScarred != 0
	c.EvolutionPathLocked = pathLocked != 0
	c.DormantSince = fromNullMillis(dormantSince)
	c.PathDeterminationDate = fromNullMillis(pathDetermination)
	c.DeathDate = fromNullMillis(deathDate)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.Attributes = c.Attributes.Normalize()

	if err := json.Unmarshal([]byte(windowJSON), &c.ActivityWindow); err != nil {
		c.ActivityWindow = nil
	}
	if len(c.ActivityWindow) > domain.ActivityWindowDays {
		c.ActivityWindow = c.ActivityWindow[:domain.ActivityWindowDays]
	}
	if err := json.Unmarshal([]byte(patternJSON), &c.CarePattern); err != nil || c.CarePattern == nil {
		c.CarePattern = map[string]any{}
	}
	if parsed, err := domain.ParseEmotionalArc(arc); err == nil {
		c.EmotionalArc = parsed
	} else {
		c.EmotionalArc = domain.ArcForming
	}
	if parsed, err := domain.ParseLifeStatus(lifeStatus); err == nil {
		c.LifeStatus = parsed
	} else {
		c.LifeStatus = domain.LifeStatusActive
	}
	if parsed, err := domain.ParseEvolutionPath(path.String); err == nil {
		c.EvolutionPath = parsed
	}

	var err error
	if c.LastActivityDate, err = fromNullDate(lastActivity); err != nil {
		return domain.Companion{}, fmt.Errorf("companion %s last activity: %w", c.ID, err)
	}
	if c.InactiveSince, err = fromNullDate(inactiveSince); err != nil {
		return domain.Companion{}, fmt.Errorf("companion %s inactive since: %w", c.ID, err)
	}
	if c.LastWeeklyMaintenanceDate, err = fromNullDate(lastMaintenance); err != nil {
		return domain.Companion{}, fmt.Errorf("companion %s last maintenance: %w", c.ID, err)
	}
	if c.LastProcessedDate, err = fromNullDate(lastProcessed); err != nil {
		return domain.Companion{}, fmt.Errorf("companion %s last processed: %w", c.ID, err)
	}
	return c, nil
}

// ListLivingCompanions returns companions whose is_alive is true or unset.
func (s *Store) ListLivingCompanions(ctx context.Context) ([]domain.Companion, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, selectCompanionSQL+` WHERE is_alive IS NULL OR is_alive = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list living companions: %w", err)
	}
	defer rows.Close()

	var companions []domain.Companion
	index := map[string]int{}
	for rows.Next() {
		c, err := scanCompanion(rows)
		if err != nil {
			return nil, fmt.Errorf("list living companions: %w", err)
		}
		index[c.ID] = len(companions)
		companions = append(companions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list living companions: %w", err)
	}
	if len(companions) == 0 {
		return companions, nil
	}

	scarRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT companion_id, scar_date, context, episode
		   FROM scars
		  WHERE companion_id IN (SELECT id FROM companions WHERE is_alive IS NULL OR is_alive = 1)
		  ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list living companion scars: %w", err)
	}
	defer scarRows.Close()
	for scarRows.Next() {
		var companionID string
		scar, err := scanScar(scarRows, &companionID)
		if err != nil {
			return nil, fmt.Errorf("list living companion scars: %w", err)
		}
		if i, ok := index[companionID]; ok {
			companions[i].Scars = append(companions[i].Scars, scar)
		}
	}
	if err := scarRows.Err(); err != nil {
		return nil, fmt.Errorf("list living companion scars: %w", err)
	}
	return companions, nil
}

// GetCompanion returns one companion with its scars.
func (s *Store) GetCompanion(ctx context.Context, companionID string) (domain.Companion, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Companion{}, err
	}
	companionID = strings.TrimSpace(companionID)
	if companionID == "" {
		return domain.Companion{}, fmt.Errorf("companion id is required")
	}
	return s.getCompanion(ctx, selectCompanionSQL+` WHERE id = ?`, companionID)
}

// GetCompanionByUser returns the companion owned by userID.
func (s *Store) GetCompanionByUser(ctx context.Context, userID string) (domain.Companion, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Companion{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Companion{}, fmt.Errorf("user id is required")
	}
	return s.getCompanion(ctx, selectCompanionSQL+` WHERE user_id = ?`, userID)
}

func (s *Store) getCompanion(ctx context.Context, query string, arg string) (domain.Companion, error) {
	c, err := scanCompanion(s.sqlDB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Companion{}, storage.ErrNotFound
		}
		return domain.Companion{}, fmt.Errorf("get companion: %w", err)
	}
	scars, err := s.ListScars(ctx, c.ID)
	if err != nil {
		return domain.Companion{}, err
	}
	c.Scars = scars
	return c, nil
}

// PutCompanion inserts or replaces one companion row.
func (s *Store) PutCompanion(ctx context.Context, c domain.Companion) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("companion id is required")
	}
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	now := s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	values, err := companionValues(c)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, upsertCompanionSQL, append([]any{c.ID}, values...)...); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put companion: %w", err)
	}
	return nil
}

// ListScars returns the scar log of one companion in insertion order.
func (s *Store) ListScars(ctx context.Context, companionID string) ([]domain.Scar, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT companion_id, scar_date, context, episode
		   FROM scars
		  WHERE companion_id = ?
		  ORDER BY seq`,
		companionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scars: %w", err)
	}
	defer rows.Close()

	var scars []domain.Scar
	for rows.Next() {
		var owner string
		scar, err := scanScar(rows, &owner)
		if err != nil {
			return nil, fmt.Errorf("list scars: %w", err)
		}
		scars = append(scars, scar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scars: %w", err)
	}
	return scars, nil
}

func scanScar(row rowScanner, companionID *string) (domain.Scar, error) {
	var scar domain.Scar
	var date int64
	if err := row.Scan(companionID, &date, &scar.Context, &scar.Episode); err != nil {
		return domain.Scar{}, err
	}
	scar.Date = fromMillis(date)
	return scar, nil
}
