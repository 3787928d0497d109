package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// 2026-10-19 is a Monday.
var monday = time.Date(2026, 10, 19, 0, 5, 0, 0, time.UTC)

func maintainedCompanion(value int) Companion {
	c := NewCompanion("comp-1", "user-1", monday.AddDate(0, -1, 0))
	c.Attributes = Attributes{Vitality: value, Wisdom: value, Discipline: value, Resolve: value, Creativity: value, Alignment: value}
	c.ActivityWindow = []bool{true, true, false, true, false, false, true}
	return c
}

func TestApplyWeeklyMaintenance(t *testing.T) {
	c := maintainedCompanion(700)
	got, outcome, _ := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
	if outcome.Result != MaintenanceApplied {
		t.Fatalf("result = %q, want applied", outcome.Result)
	}
	want := Attributes{Vitality: 670, Wisdom: 685, Discipline: 660, Resolve: 680, Creativity: 675, Alignment: 685}
	if diff := cmp.Diff(want, got.Attributes); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
	if got.LastWeeklyMaintenanceDate == nil || !got.LastWeeklyMaintenanceDate.Equal(Day(monday)) {
		t.Fatalf("last maintenance = %v, want %v", got.LastWeeklyMaintenanceDate, Day(monday))
	}
}

func TestApplyWeeklyMaintenanceLifeStatus(t *testing.T) {
	tests := []struct {
		status LifeStatus
		want   int
	}{
		{status: LifeStatusActive, want: 660},
		{status: LifeStatusTransition, want: 680},
		{status: LifeStatusVacation, want: 690},
		{status: LifeStatusSick, want: 696},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := maintainedCompanion(700)
			c.LifeStatus = tt.status
			got, _, _ := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
			if got.Attributes.Discipline != tt.want {
				t.Fatalf("discipline = %d, want %d", got.Attributes.Discipline, tt.want)
			}
		})
	}
}

func TestMaintenanceMultiplier(t *testing.T) {
	tests := []struct {
		status LifeStatus
		want   float64
	}{
		{status: LifeStatusActive, want: 1},
		{status: LifeStatusTransition, want: 0.5},
		{status: LifeStatusVacation, want: 0.25},
		{status: LifeStatusSick, want: 0.1},
	}
	for _, tt := range tests {
		got, err := tt.status.MaintenanceMultiplier()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.status, err)
		}
		if got != tt.want {
			t.Fatalf("%s multiplier = %v, want %v", tt.status, got, tt.want)
		}
	}
	if _, err := LifeStatus("hibernating").MaintenanceMultiplier(); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestApplyWeeklyMaintenanceUnknownLifeStatus(t *testing.T) {
	c := maintainedCompanion(700)
	c.LifeStatus = LifeStatus("hibernating")
	got, outcome, err := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if outcome.Result != "" {
		t.Fatalf("result = %q, want empty", outcome.Result)
	}
	if diff := cmp.Diff(c.Attributes, got.Attributes); diff != "" {
		t.Fatalf("attributes changed (-want +got):\n%s", diff)
	}
	if got.LastWeeklyMaintenanceDate != nil {
		t.Fatalf("last maintenance = %v, want nil", got.LastWeeklyMaintenanceDate)
	}
}

func TestApplyWeeklyMaintenanceNearFloor(t *testing.T) {
	c := maintainedCompanion(AttributeFloor)
	got, outcome, _ := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
	if outcome.Result != MaintenanceApplied {
		t.Fatalf("result = %q, want applied", outcome.Result)
	}
	if diff := cmp.Diff(FloorAttributes(), got.Attributes); diff != "" {
		t.Fatalf("attributes dropped below floor (-want +got):\n%s", diff)
	}

	c = maintainedCompanion(110)
	got, _, _ = ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
	// creativity: 25 x 0.35 = 8.75 rounds to 9
	if got.Attributes.Creativity != 101 {
		t.Fatalf("creativity = %d, want 101", got.Attributes.Creativity)
	}
	if got.Attributes.Discipline != AttributeFloor {
		t.Fatalf("discipline = %d, want floor", got.Attributes.Discipline)
	}
}

func TestApplyWeeklyMaintenanceEngagementGate(t *testing.T) {
	c := maintainedCompanion(700)
	c.ActivityWindow = []bool{false, false, true, false, false, false, false}
	got, outcome, _ := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: monday, Weekday: time.Monday})
	if outcome.Result != MaintenanceSkipped {
		t.Fatalf("result = %q, want skipped", outcome.Result)
	}
	if diff := cmp.Diff(c.Attributes, got.Attributes); diff != "" {
		t.Fatalf("skipped pass changed attributes (-want +got):\n%s", diff)
	}
	if got.LastWeeklyMaintenanceDate == nil {
		t.Fatal("skipped pass did not record the maintenance date")
	}
}

func TestApplyWeeklyMaintenanceNotDue(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	threeDaysAgo := Day(monday.AddDate(0, 0, -3))
	dormantSince := monday.AddDate(0, 0, -2)

	tests := []struct {
		name   string
		mutate func(*Companion)
		run    time.Time
	}{
		{name: "wrong weekday", mutate: func(*Companion) {}, run: tuesday},
		{name: "recently maintained", mutate: func(c *Companion) { c.LastWeeklyMaintenanceDate = &threeDaysAgo }, run: monday},
		{name: "dormant", mutate: func(c *Companion) { c.DormantSince = &dormantSince }, run: monday},
		{name: "dead", mutate: func(c *Companion) { c.IsAlive = false }, run: monday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := maintainedCompanion(700)
			tt.mutate(&c)
			got, outcome, _ := ApplyWeeklyMaintenance(c, MaintenanceInput{RunDate: tt.run, Weekday: time.Monday})
			if outcome.Result != MaintenanceNotDue {
				t.Fatalf("result = %q, want not_due", outcome.Result)
			}
			if got.Attributes != c.Attributes {
				t.Fatalf("attributes changed: %+v", got.Attributes)
			}
		})
	}
}
