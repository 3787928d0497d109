package domain

import (
	"testing"
	"time"
)

func TestAssessMissedDay(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	s := StreakState{UserID: "user-1", CurrentStreak: 12, FreezesAvailable: 1}

	s, change := AssessMissedDay(s, now)
	if change != StreakMarkedAtRisk || !s.AtRisk {
		t.Fatalf("first miss = %q at risk %v", change, s.AtRisk)
	}

	s, change = AssessMissedDay(s, now.Add(2*time.Hour))
	if change != StreakUnchanged {
		t.Fatalf("miss inside grace = %q, want unchanged", change)
	}

	s, change = AssessMissedDay(s, now.Add(24*time.Hour))
	if change != StreakFreezeConsumed || s.FreezesAvailable != 0 || s.CurrentStreak != 12 || s.AtRisk {
		t.Fatalf("freeze = %q %+v", change, s)
	}

	s, _ = AssessMissedDay(s, now.Add(48*time.Hour))
	s, change = AssessMissedDay(s, now.Add(72*time.Hour))
	if change != StreakReset || s.CurrentStreak != 0 {
		t.Fatalf("reset = %q streak %d", change, s.CurrentStreak)
	}

	if _, change := AssessMissedDay(s, now.Add(96*time.Hour)); change != StreakUnchanged {
		t.Fatalf("empty streak = %q, want unchanged", change)
	}
}

func TestAssessMissedDayEarlierNextDay(t *testing.T) {
	markedAt := time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	s := StreakState{UserID: "user-1", CurrentStreak: 4, FreezesAvailable: 1}
	s, _ = AssessMissedDay(s, markedAt)

	// The next daily run fires a few minutes earlier in the clock day.
	s, change := AssessMissedDay(s, time.Date(2026, 10, 17, 0, 2, 0, 0, time.UTC))
	if change != StreakFreezeConsumed {
		t.Fatalf("change = %q, want %q", change, StreakFreezeConsumed)
	}
	if s.FreezesAvailable != 0 || s.CurrentStreak != 4 || s.AtRisk {
		t.Fatalf("state = %+v", s)
	}

	s = StreakState{UserID: "user-1", CurrentStreak: 4}
	s, _ = AssessMissedDay(s, markedAt)
	if _, change := AssessMissedDay(s, time.Date(2026, 10, 16, 23, 59, 0, 0, time.UTC)); change != StreakUnchanged {
		t.Fatalf("same day change = %q, want %q", change, StreakUnchanged)
	}
}

func TestClearStreakRisk(t *testing.T) {
	since := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	s, changed := ClearStreakRisk(StreakState{CurrentStreak: 3, AtRisk: true, AtRiskSince: &since})
	if !changed || s.AtRisk || s.AtRiskSince != nil {
		t.Fatalf("clear = %v %+v", changed, s)
	}
	if _, changed := ClearStreakRisk(s); changed {
		t.Fatal("clearing a safe streak reported a change")
	}
}

func TestResetExpiredFreeze(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 5, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)
	s, ok := ResetExpiredFreeze(StreakState{FreezesResetAt: &expired}, now)
	if !ok || s.FreezesAvailable != 1 {
		t.Fatalf("reset = %v freezes %d", ok, s.FreezesAvailable)
	}
	if want := now.Add(7 * 24 * time.Hour); !s.FreezesResetAt.Equal(want) {
		t.Fatalf("next reset = %v, want %v", s.FreezesResetAt, want)
	}
	if _, ok := ResetExpiredFreeze(s, now); ok {
		t.Fatal("reset a grant that has not expired")
	}
	if _, ok := ResetExpiredFreeze(StreakState{}, now); ok {
		t.Fatal("reset a profile without a grant")
	}
}
