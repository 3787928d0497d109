package domain

import (
	"fmt"
	"time"
)

// MaintenanceEngagementDays is the minimum number of active days in the
// trailing window for weekly maintenance to apply.
const MaintenanceEngagementDays = 2

const maintenanceInterval = 7

var baseWeeklyDecay = map[Attribute]int{
	AttributeDiscipline: 40,
	AttributeVitality:   30,
	AttributeCreativity: 25,
	AttributeResolve:    20,
	AttributeWisdom:     15,
	AttributeAlignment:  15,
}

// MaintenanceResult classifies one weekly maintenance attempt.
type MaintenanceResult string

const (
	MaintenanceNotDue  MaintenanceResult = "not_due"
	MaintenanceApplied MaintenanceResult = "applied"
	MaintenanceSkipped MaintenanceResult = "skipped"
)

// MaintenanceInput carries the run date and the configured weekly boundary.
type MaintenanceInput struct {
	RunDate time.Time
	Weekday time.Weekday
}

// MaintenanceOutcome reports what a maintenance pass did.
type MaintenanceOutcome struct {
	Result MaintenanceResult
	// Decay is the amount removed per attribute when applied.
	Decay map[Attribute]int
}

// IsMaintenanceDue reports whether run date is the weekly boundary for c.
func IsMaintenanceDue(c Companion, in MaintenanceInput) bool {
	if c.State() != LifeStateActive {
		return false
	}
	if Day(in.RunDate).Weekday() != in.Weekday {
		return false
	}
	if c.LastWeeklyMaintenanceDate != nil && DaysBetween(*c.LastWeeklyMaintenanceDate, in.RunDate) < maintenanceInterval {
		return false
	}
	return true
}

// ScaledMaintenance is the decay factor for an attribute at current. Values
// near the floor decay proportionally less.
func ScaledMaintenance(current int) float64 {
	return Clamp(float64(current-AttributeFloor)/600, 0.35, 1.25)
}

// WeeklyDecay is the effective decay for one attribute.
func WeeklyDecay(attr Attribute, current int, status LifeStatus) (int, error) {
	multiplier, err := status.MaintenanceMultiplier()
	if err != nil {
		return 0, err
	}
	base := baseWeeklyDecay[attr]
	return roundHalfUp(float64(base) * ScaledMaintenance(current) * multiplier), nil
}

// ApplyWeeklyMaintenance runs the weekly decay pass when due. A companion that
// fails the engagement gate is skipped rather than decayed; both outcomes
// record the maintenance date so the gate is evaluated once per week. An
// unknown life status is an error and leaves c unchanged.
func ApplyWeeklyMaintenance(c Companion, in MaintenanceInput) (Companion, MaintenanceOutcome, error) {
	if !IsMaintenanceDue(c, in) {
		return c, MaintenanceOutcome{Result: MaintenanceNotDue}, nil
	}
	status := c.LifeStatus
	if status == "" {
		status = LifeStatusActive
	}
	if _, err := status.MaintenanceMultiplier(); err != nil {
		return c, MaintenanceOutcome{}, fmt.Errorf("weekly maintenance: %w", err)
	}

	c.LastWeeklyMaintenanceDate = timePtr(Day(in.RunDate))
	if c.ActiveDays() < MaintenanceEngagementDays {
		return c, MaintenanceOutcome{Result: MaintenanceSkipped}, nil
	}

	attrs := c.Attributes.Normalize()
	decay := make(map[Attribute]int, len(AllAttributes))
	for _, attr := range AllAttributes {
		current, err := attrs.Get(attr)
		if err != nil {
			continue
		}
		amount, err := WeeklyDecay(attr, current, status)
		if err != nil {
			return c, MaintenanceOutcome{}, fmt.Errorf("weekly maintenance: %w", err)
		}
		next, err := attrs.With(attr, current-amount)
		if err != nil {
			continue
		}
		decay[attr] = current - ClampAttribute(current-amount)
		attrs = next
	}
	c.Attributes = attrs
	return c, MaintenanceOutcome{Result: MaintenanceApplied, Decay: decay}, nil
}
