package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityWindowDays is the length of the rolling activity window.
const ActivityWindowDays = 7

// EmotionalArc classifies the companion's current care trajectory.
type EmotionalArc string

const (
	ArcForming         EmotionalArc = "forming"
	ArcRoutineDrift    EmotionalArc = "routine_drift"
	ArcFragileEcho     EmotionalArc = "fragile_echo"
	ArcRepairSequence  EmotionalArc = "repair_sequence"
	ArcSteadyBloom     EmotionalArc = "steady_bloom"
	ArcResonantGrowth  EmotionalArc = "resonant_growth"
	ArcDormantRecovery EmotionalArc = "dormant_recovery"
)

// ParseEmotionalArc converts a stored arc. Empty values read as forming.
func ParseEmotionalArc(value string) (EmotionalArc, error) {
	arc := EmotionalArc(strings.TrimSpace(value))
	switch arc {
	case "":
		return ArcForming, nil
	case ArcForming, ArcRoutineDrift, ArcFragileEcho, ArcRepairSequence,
		ArcSteadyBloom, ArcResonantGrowth, ArcDormantRecovery:
		return arc, nil
	default:
		return "", fmt.Errorf("unknown emotional arc %q", value)
	}
}

// LifeStatus is the user-declared modifier for weekly maintenance.
type LifeStatus string

const (
	LifeStatusActive     LifeStatus = "active"
	LifeStatusTransition LifeStatus = "transition"
	LifeStatusVacation   LifeStatus = "vacation"
	LifeStatusSick       LifeStatus = "sick"
)

// ParseLifeStatus converts a stored status. Empty values read as active.
func ParseLifeStatus(value string) (LifeStatus, error) {
	status := LifeStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case "":
		return LifeStatusActive, nil
	case LifeStatusActive, LifeStatusTransition, LifeStatusVacation, LifeStatusSick:
		return status, nil
	default:
		return "", fmt.Errorf("unknown life status %q", value)
	}
}

// MaintenanceMultiplier scales weekly decay for the status.
func (s LifeStatus) MaintenanceMultiplier() (float64, error) {
	switch s {
	case LifeStatusTransition:
		return 0.5, nil
	case LifeStatusVacation:
		return 0.25, nil
	case LifeStatusSick:
		return 0.1, nil
	case LifeStatusActive:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown life status %q", s)
	}
}

// CareSignals are normalized [0,1] summaries of user engagement.
type CareSignals struct {
	Score          float64
	Consistency    float64
	Responsiveness float64
	Balance        float64
	Intent         float64
	Recovery       float64
}

// NeutralCareSignals is the baseline for a companion with no history.
func NeutralCareSignals() CareSignals {
	return CareSignals{Score: 0.5, Consistency: 0.5, Responsiveness: 0.5, Balance: 0.5, Intent: 0.5, Recovery: 0.5}
}

// Scar is a permanent record of a neglect episode.
type Scar struct {
	Date    time.Time
	Context string
	// Episode identifies the inactivity episode the scar belongs to.
	Episode string
}

// Companion is the long-lived life state owned by one user.
type Companion struct {
	ID     string
	UserID string

	IsAlive          bool
	InactiveDays     int
	LastActivityDate *time.Time
	InactiveSince    *time.Time
	EpisodeScarred   bool

	// ActivityWindow is most-recent-first and never longer than ActivityWindowDays.
	ActivityWindow []bool

	Care        CareSignals
	CarePattern map[string]any

	RoutineStability float64
	RequestFatigue   float64
	EmotionalArc     EmotionalArc

	DormantSince         *time.Time
	DormancyCount        int
	DormancyRecoveryDays int
	RecoveryProgress     float64

	Scars []Scar

	EvolutionPath         EvolutionPath
	EvolutionPathLocked   bool
	PathDeterminationDate *time.Time

	Attributes                Attributes
	LifeStatus                LifeStatus
	LastWeeklyMaintenanceDate *time.Time

	BondLevel         int
	TotalInteractions int
	CurrentStage      int

	LastProcessedDate *time.Time
	DeathDate         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewCompanion returns the onboarding state: alive, floor-level attributes,
// neutral care and a mid-range routine.
func NewCompanion(id, userID string, now time.Time) Companion {
	return Companion{
		ID:               id,
		UserID:           userID,
		IsAlive:          true,
		Care:             NeutralCareSignals(),
		CarePattern:      map[string]any{},
		RoutineStability: 50,
		EmotionalArc:     ArcForming,
		RecoveryProgress: 100,
		Attributes:       FloorAttributes(),
		LifeStatus:       LifeStatusActive,
		CurrentStage:     0,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// IsDormant reports whether the companion is in the dormant state.
func (c Companion) IsDormant() bool {
	return c.DormantSince != nil
}

// State returns the lifecycle state of the companion.
func (c Companion) State() LifeState {
	switch {
	case !c.IsAlive:
		return LifeStateDead
	case c.IsDormant():
		return LifeStateDormant
	default:
		return LifeStateActive
	}
}

// ActiveDays counts active entries in the rolling window.
func (c Companion) ActiveDays() int {
	n := 0
	for _, active := range c.ActivityWindow {
		if active {
			n++
		}
	}
	return n
}

// clone copies the slices and maps so stages never alias their input.
func (c Companion) clone() Companion {
	out := c
	out.ActivityWindow = append([]bool(nil), c.ActivityWindow...)
	out.Scars = append([]Scar(nil), c.Scars...)
	out.CarePattern = make(map[string]any, len(c.CarePattern))
	for k, v := range c.CarePattern {
		out.CarePattern[k] = v
	}
	return out
}

// LifeState is the lifecycle machine state.
type LifeState string

const (
	LifeStateActive  LifeState = "active"
	LifeStateDormant LifeState = "dormant"
	LifeStateDead    LifeState = "dead"
)
