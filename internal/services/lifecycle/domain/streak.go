package domain

import "time"

const (
	freezeGrantPeriod = 7 * 24 * time.Hour
	freezeGrantSize   = 1
)

// StreakState is the habit streak bookkeeping of one user profile.
type StreakState struct {
	UserID           string
	CurrentStreak    int
	FreezesAvailable int
	FreezesResetAt   *time.Time
	AtRisk           bool
	AtRiskSince      *time.Time
	LastFreezeUsed   *time.Time
}

// StreakChange describes what a missed-day assessment did.
type StreakChange string

const (
	StreakUnchanged      StreakChange = "unchanged"
	StreakMarkedAtRisk   StreakChange = "marked_at_risk"
	StreakFreezeConsumed StreakChange = "freeze_consumed"
	StreakReset          StreakChange = "reset"
)

// AssessMissedDay applies one missed day. The first miss puts the streak at
// risk; a miss on any later calendar day spends a freeze if available,
// otherwise the streak resets.
func AssessMissedDay(s StreakState, now time.Time) (StreakState, StreakChange) {
	if s.CurrentStreak <= 0 {
		return s, StreakUnchanged
	}
	if !s.AtRisk || s.AtRiskSince == nil {
		s.AtRisk = true
		s.AtRiskSince = timePtr(now.UTC())
		return s, StreakMarkedAtRisk
	}
	if DaysBetween(*s.AtRiskSince, now) < 1 {
		return s, StreakUnchanged
	}
	s.AtRisk = false
	s.AtRiskSince = nil
	if s.FreezesAvailable > 0 {
		s.FreezesAvailable--
		s.LastFreezeUsed = timePtr(now.UTC())
		return s, StreakFreezeConsumed
	}
	s.CurrentStreak = 0
	return s, StreakReset
}

// ClearStreakRisk is applied on an active day.
func ClearStreakRisk(s StreakState) (StreakState, bool) {
	if !s.AtRisk && s.AtRiskSince == nil {
		return s, false
	}
	s.AtRisk = false
	s.AtRiskSince = nil
	return s, true
}

// FreezeGrantExpired reports whether the freeze grant is due for reset.
func FreezeGrantExpired(s StreakState, now time.Time) bool {
	return s.FreezesResetAt != nil && !now.Before(*s.FreezesResetAt)
}

// ResetExpiredFreeze restores the weekly freeze grant once it expires.
func ResetExpiredFreeze(s StreakState, now time.Time) (StreakState, bool) {
	if !FreezeGrantExpired(s, now) {
		return s, false
	}
	s.FreezesAvailable = freezeGrantSize
	s.FreezesResetAt = timePtr(now.UTC().Add(freezeGrantPeriod))
	return s, true
}
