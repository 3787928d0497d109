package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func at(day time.Time, hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func TestComputeCareSignalsSteadyWeek(t *testing.T) {
	through := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	var logs []BehaviorLog
	for i := 0; i < 7; i++ {
		day := through.AddDate(0, 0, -i)
		logs = append(logs, BehaviorLog{
			UserID:          "user-1",
			Date:            day,
			HabitsCompleted: 2,
			CheckIns:        1,
			FirstActivityAt: at(day, 8, 0),
			LastActivityAt:  at(day, 11, 0),
		})
	}
	got := ComputeCareSignals(logs, through)
	want := CareSignals{Score: 1, Consistency: 1, Responsiveness: 1, Balance: 1, Intent: 1, Recovery: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("care signals mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeCareSignalsNoActivity(t *testing.T) {
	got := ComputeCareSignals(nil, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	if diff := cmp.Diff(CareSignals{}, got); diff != "" {
		t.Fatalf("care signals mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeCareSignalsIgnoresOutsideWindow(t *testing.T) {
	through := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	logs := []BehaviorLog{
		{Date: through.AddDate(0, 0, -7), HabitsCompleted: 9},
		{Date: through.AddDate(0, 0, 1), HabitsCompleted: 9},
	}
	if got := ComputeCareSignals(logs, through); got.Consistency != 0 {
		t.Fatalf("consistency = %v, want 0", got.Consistency)
	}
}

func TestCareRecoveryGapLengths(t *testing.T) {
	through := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	// oldest to newest: active, miss, active, miss, miss, active, active
	pattern := []bool{true, false, true, false, false, true, true}
	var logs []BehaviorLog
	for i, active := range pattern {
		if !active {
			continue
		}
		logs = append(logs, BehaviorLog{Date: through.AddDate(0, 0, i-6), TasksCompleted: 1})
	}
	got := ComputeCareSignals(logs, through)
	if got.Recovery != 0.9 {
		t.Fatalf("recovery = %v, want 0.9", got.Recovery)
	}
	if got.Consistency != 0.714 {
		t.Fatalf("consistency = %v, want 0.714", got.Consistency)
	}
	if got.Responsiveness != 0.5 {
		t.Fatalf("responsiveness = %v, want 0.5 without timestamps", got.Responsiveness)
	}
	if got.Intent != 0.75 {
		t.Fatalf("intent = %v, want 0.75 without velocity", got.Intent)
	}
}

func TestCareRecoveryOpenGap(t *testing.T) {
	through := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	logs := []BehaviorLog{{Date: through.AddDate(0, 0, -6), HabitsCompleted: 1}}
	// one leading active day, then a gap that never closes
	if got := ComputeCareSignals(logs, through); got.Recovery != 0 {
		t.Fatalf("recovery = %v, want 0", got.Recovery)
	}
}

func TestNormalizeBehaviorLogBinge(t *testing.T) {
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	got := NormalizeBehaviorLog(BehaviorLog{
		Date:            day.Add(13 * time.Hour),
		HabitsCompleted: 6,
		FirstActivityAt: at(day, 9, 0),
		LastActivityAt:  at(day, 9, 30),
	})
	if !got.IsBinge {
		t.Fatal("expected binge for 6 completions in 30 minutes")
	}
	if got.CompletionVelocity != 6 {
		t.Fatalf("velocity = %v, want 6", got.CompletionVelocity)
	}
	if !got.Date.Equal(day) {
		t.Fatalf("date = %v, want %v", got.Date, day)
	}
}

func TestNormalizeBehaviorLogMalformed(t *testing.T) {
	got := NormalizeBehaviorLog(BehaviorLog{HabitsCompleted: -4, TasksCompleted: -1, CompletionVelocity: 12})
	if got.Total() != 0 || got.CompletionVelocity != 0 || got.IsBinge {
		t.Fatalf("normalized = %+v, want zero activity", got)
	}
}

func TestCareBalancePenalizesBinges(t *testing.T) {
	through := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	var logs []BehaviorLog
	for i := 0; i < 7; i++ {
		day := through.AddDate(0, 0, -i)
		logs = append(logs, BehaviorLog{
			Date:            day,
			HabitsCompleted: 6,
			FirstActivityAt: at(day, 20, 0),
			LastActivityAt:  at(day, 20, 20),
		})
	}
	got := ComputeCareSignals(logs, through)
	if got.Balance != 0.4 {
		t.Fatalf("balance = %v, want 0.4", got.Balance)
	}
	if got.Intent != 0.25 {
		t.Fatalf("intent = %v, want 0.25", got.Intent)
	}
	if got.Responsiveness != 0.4 {
		t.Fatalf("responsiveness = %v, want 0.4", got.Responsiveness)
	}
}
