package domain

import (
	"errors"
	"testing"
	"time"
)

func TestClassifyEvolutionPath(t *testing.T) {
	tests := []struct {
		name string
		in   CareSignals
		want EvolutionPath
	}{
		{name: "balanced", in: CareSignals{Score: 0.9, Consistency: 0.8, Responsiveness: 0.8, Balance: 0.8, Intent: 0.8, Recovery: 0.8}, want: PathBalancedArchitect},
		{name: "steady", in: CareSignals{Score: 0.7, Consistency: 0.85, Responsiveness: 0.4, Balance: 0.7, Intent: 0.6, Recovery: 1}, want: PathSteadyGuardian},
		{name: "neglected", in: CareSignals{Score: 0.2, Consistency: 0.14}, want: PathNeglectedWanderer},
		{name: "volatile", in: CareSignals{Score: 0.55, Consistency: 0.57, Balance: 0.4, Intent: 0.6}, want: PathVolatileAscendant},
		{name: "unresolved", in: CareSignals{Score: 0.5, Consistency: 0.5, Balance: 0.5, Intent: 0.5}, want: PathUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyEvolutionPath(tt.in); got != tt.want {
				t.Fatalf("ClassifyEvolutionPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveEvolutionPathWeeklyGuard(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	c := NewCompanion("comp-1", "user-1", now)
	c.ActivityWindow = []bool{true, true, true, true, true, true, true}
	c.Care = CareSignals{Score: 0.7, Consistency: 1, Balance: 0.9, Intent: 0.6}

	got, ok := ResolveEvolutionPath(c, now)
	if !ok || got.EvolutionPath != PathSteadyGuardian || !got.EvolutionPathLocked {
		t.Fatalf("resolve = %v path %q locked %v", ok, got.EvolutionPath, got.EvolutionPathLocked)
	}

	unlocked, err := UnlockEvolutionPath(got)
	if err != nil {
		t.Fatalf("UnlockEvolutionPath: %v", err)
	}
	if unlocked.EvolutionPathLocked || unlocked.EvolutionPath != PathSteadyGuardian {
		t.Fatalf("unlock = path %q locked %v", unlocked.EvolutionPath, unlocked.EvolutionPathLocked)
	}

	unlocked.Care = CareSignals{Score: 0.1, Consistency: 0.1}
	if _, ok := ResolveEvolutionPath(unlocked, now.AddDate(0, 0, 3)); ok {
		t.Fatal("resolved again within a week")
	}
	again, ok := ResolveEvolutionPath(unlocked, now.AddDate(0, 0, 7))
	if !ok || again.EvolutionPath != PathNeglectedWanderer {
		t.Fatalf("resolve after a week = %v path %q", ok, again.EvolutionPath)
	}
}

func TestResolveEvolutionPathLocked(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	c := NewCompanion("comp-1", "user-1", now)
	c.ActivityWindow = []bool{false, false, false, false, false, false, false}
	c.EvolutionPath = PathSteadyGuardian
	c.EvolutionPathLocked = true
	c.Care = CareSignals{}
	got, ok := ResolveEvolutionPath(c, now.AddDate(0, 1, 0))
	if ok || got.EvolutionPath != PathSteadyGuardian {
		t.Fatalf("locked path changed: %v %q", ok, got.EvolutionPath)
	}
}

func TestUnlockEvolutionPathErrors(t *testing.T) {
	c := NewCompanion("comp-1", "user-1", time.Now())
	if _, err := UnlockEvolutionPath(c); !errors.Is(err, ErrNoEvolutionPath) {
		t.Fatalf("err = %v, want ErrNoEvolutionPath", err)
	}
	c.EvolutionPath = PathBalancedArchitect
	c.IsAlive = false
	if _, err := UnlockEvolutionPath(c); !errors.Is(err, ErrCompanionDead) {
		t.Fatalf("err = %v, want ErrCompanionDead", err)
	}
}
