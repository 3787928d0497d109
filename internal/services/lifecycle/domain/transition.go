package domain

import (
	"fmt"
	"time"
)

// Rules are the lifecycle thresholds.
type Rules struct {
	ScarThresholdDays        int
	DormancyThresholdDays    int
	DeathThresholdDormancies int
	DormancyRecoveryDays     int
	RecoveryPerActiveDay     float64
	ConsequenceDelay         time.Duration
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		ScarThresholdDays:        5,
		DormancyThresholdDays:    7,
		DeathThresholdDormancies: 3,
		DormancyRecoveryDays:     5,
		RecoveryPerActiveDay:     25,
		ConsequenceDelay:         24 * time.Hour,
	}
}

// Care pattern keys written by the lifecycle machine.
const (
	PatternActiveStreak    = "active_streak"
	PatternBingeDays       = "binge_days"
	PatternDormancyWarning = "dormancy_warning"
	PatternLastBranch      = "last_branch"
)

// Branch names the path a companion took through one day.
type Branch string

const (
	BranchActive    Branch = "active"
	BranchInactive  Branch = "inactive"
	BranchDormant   Branch = "dormant"
	BranchDead      Branch = "dead"
	BranchProcessed Branch = "already_processed"
)

// DayInput is everything AdvanceDay needs for one scheduled run.
type DayInput struct {
	// RunDate is the scheduled day. Activity is read for the day before.
	RunDate time.Time
	// Logs are the behavior logs of the window ending at ActivityDate.
	Logs []BehaviorLog
	// Now stamps transitions; zero means RunDate.
	Now time.Time
}

// ActivityDate is the calendar day whose activity the run evaluates.
func (in DayInput) ActivityDate() time.Time {
	return Day(in.RunDate).AddDate(0, 0, -1)
}

func (in DayInput) now() time.Time {
	if in.Now.IsZero() {
		return Day(in.RunDate)
	}
	return in.Now.UTC()
}

// DayOutcome reports what AdvanceDay changed.
type DayOutcome struct {
	Branch          Branch
	HadActivity     bool
	Total           int
	Decayed         bool
	Recovered       bool
	Awakened        bool
	EnteredDormancy bool
	Died            bool
	Scar            *Scar
	PathUpdated     bool
	Consequences    []Consequence
}

// Skipped reports whether the day left the companion untouched.
func (o DayOutcome) Skipped() bool {
	return o.Branch == BranchDead || o.Branch == BranchProcessed
}

// AdvanceDay moves one companion through one scheduled day. It is pure; the
// input companion is never mutated.
func AdvanceDay(c Companion, in DayInput, rules Rules) (Companion, DayOutcome) {
	if !c.IsAlive {
		return c, DayOutcome{Branch: BranchDead}
	}
	if sameDay(c.LastProcessedDate, in.RunDate) {
		return c, DayOutcome{Branch: BranchProcessed}
	}

	next := c.clone()
	log := LogForDay(in.Logs, in.ActivityDate())
	outcome := DayOutcome{HadActivity: log.Active(), Total: log.Total()}

	if next.IsDormant() {
		next, outcome = advanceDormant(next, in, rules, outcome)
	} else {
		next.Care = ComputeCareSignals(in.Logs, in.ActivityDate())
		next.ActivityWindow = RotateWindow(next.ActivityWindow, outcome.HadActivity)
		if outcome.HadActivity {
			next, outcome = advanceActive(next, in, rules, log, outcome)
		} else {
			next, outcome = advanceInactive(next, in, rules, outcome)
		}
	}

	next.CarePattern[PatternLastBranch] = string(outcome.Branch)
	next.LastProcessedDate = timePtr(Day(in.RunDate))
	next.UpdatedAt = in.now()
	return next, outcome
}

func advanceDormant(c Companion, in DayInput, rules Rules, outcome DayOutcome) (Companion, DayOutcome) {
	outcome.Branch = BranchDormant
	c.ActivityWindow = RotateWindow(c.ActivityWindow, outcome.HadActivity)

	if outcome.HadActivity {
		c.DormancyRecoveryDays++
		c.LastActivityDate = timePtr(in.ActivityDate())
		c.TotalInteractions += outcome.Total
		outcome.Recovered = true
	} else {
		c.DormancyRecoveryDays = 0
		outcome.Decayed = true
	}
	required := max(rules.DormancyRecoveryDays, 1)
	c.RecoveryProgress = Clamp(float64(c.DormancyRecoveryDays)*100/float64(required), 0, 100)
	c = applyTick(c, true)

	if c.DormancyRecoveryDays >= required {
		c.DormantSince = nil
		c.InactiveDays = 0
		c.InactiveSince = nil
		c.EpisodeScarred = false
		c.DormancyRecoveryDays = 0
		c.RecoveryProgress = 100
		c.EmotionalArc = ClassifyEmotionalArc(ArcInput{
			CareScore:        c.Care.Score,
			RoutineStability: c.RoutineStability,
			RequestFatigue:   c.RequestFatigue,
		})
		c.CarePattern[PatternDormancyWarning] = false
		outcome.Awakened = true
		outcome.Consequences = append(outcome.Consequences, newConsequence(c, ConsequenceCompanionAwakened,
			in.RunDate, Day(in.RunDate).Add(rules.ConsequenceDelay), map[string]any{
				"dormancy_count": c.DormancyCount,
			}))
	}
	return c, outcome
}

func advanceActive(c Companion, in DayInput, rules Rules, log BehaviorLog, outcome DayOutcome) (Companion, DayOutcome) {
	outcome.Branch = BranchActive
	outcome.Recovered = true

	c.InactiveDays = 0
	c.InactiveSince = nil
	c.EpisodeScarred = false
	c.LastActivityDate = timePtr(in.ActivityDate())
	c.TotalInteractions += outcome.Total
	c.RecoveryProgress = Clamp(c.RecoveryProgress+rules.RecoveryPerActiveDay, 0, 100)
	c = applyTick(c, false)

	c.CarePattern[PatternActiveStreak] = patternInt(c.CarePattern, PatternActiveStreak) + 1
	if log.IsBinge {
		c.CarePattern[PatternBingeDays] = patternInt(c.CarePattern, PatternBingeDays) + 1
	}
	c.CarePattern[PatternDormancyWarning] = false

	var updated bool
	c, updated = ResolveEvolutionPath(c, in.now())
	if updated {
		outcome.PathUpdated = true
		outcome.Consequences = append(outcome.Consequences, newConsequence(c, ConsequenceEvolutionPathSet,
			in.RunDate, Day(in.RunDate).Add(rules.ConsequenceDelay), map[string]any{
				"evolution_path": string(c.EvolutionPath),
			}))
	}
	return c, outcome
}

func advanceInactive(c Companion, in DayInput, rules Rules, outcome DayOutcome) (Companion, DayOutcome) {
	outcome.Branch = BranchInactive
	outcome.Decayed = true

	c.InactiveDays++
	if c.InactiveSince == nil {
		c.InactiveSince = timePtr(in.ActivityDate())
	}
	c = applyTick(c, false)
	c.CarePattern[PatternActiveStreak] = 0

	deliverOn := Day(in.RunDate).Add(rules.ConsequenceDelay)
	if c.InactiveDays >= rules.ScarThresholdDays {
		c.CarePattern[PatternDormancyWarning] = true
		if !c.EpisodeScarred {
			scar := Scar{
				Date:    in.now(),
				Context: fmt.Sprintf("%d consecutive days without care", c.InactiveDays),
				Episode: DateKey(*c.InactiveSince),
			}
			c.Scars = append(c.Scars, scar)
			c.EpisodeScarred = true
			outcome.Scar = &scar
			outcome.Consequences = append(outcome.Consequences, newConsequence(c, ConsequenceScarRecorded,
				in.RunDate, deliverOn, map[string]any{
					"context":       scar.Context,
					"episode":       scar.Episode,
					"inactive_days": c.InactiveDays,
				}))
		}
	}

	if c.InactiveDays >= rules.DormancyThresholdDays {
		c.DormantSince = timePtr(in.now())
		c.DormancyCount++
		c.DormancyRecoveryDays = 0
		c.RecoveryProgress = 0
		outcome.EnteredDormancy = true
		outcome.Consequences = append(outcome.Consequences, newConsequence(c, ConsequenceDormancyEntered,
			in.RunDate, deliverOn, map[string]any{
				"dormancy_count": c.DormancyCount,
				"inactive_days":  c.InactiveDays,
			}))

		if c.DormancyCount >= rules.DeathThresholdDormancies {
			c.IsAlive = false
			c.DeathDate = timePtr(in.now())
			outcome.Died = true
			outcome.Consequences = append(outcome.Consequences, newConsequence(c, ConsequenceCompanionDied,
				in.RunDate, Day(in.RunDate), map[string]any{
					"dormancy_count": c.DormancyCount,
					"scars":          len(c.Scars),
				}))
		}
	}
	return c, outcome
}

func applyTick(c Companion, dormant bool) Companion {
	tick := ComputeDayTick(DayTickInput{
		CareScore:             c.Care.Score,
		CareConsistency:       c.Care.Consistency,
		RoutineStabilityScore: c.RoutineStability,
		RequestFatigue:        c.RequestFatigue,
		IsDormant:             dormant,
	})
	c.RoutineStability = tick.RoutineStabilityScore
	c.RequestFatigue = tick.RequestFatigue
	c.EmotionalArc = tick.EmotionalArc
	return c
}

// RotateWindow prepends today and drops the oldest entry beyond the window.
func RotateWindow(window []bool, active bool) []bool {
	next := make([]bool, 0, ActivityWindowDays)
	next = append(next, active)
	for _, v := range window {
		if len(next) == ActivityWindowDays {
			break
		}
		next = append(next, v)
	}
	return next
}

func patternInt(pattern map[string]any, key string) int {
	switch v := pattern[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
