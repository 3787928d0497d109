package domain

import (
	"math"
	"time"
)

// Care score weights.
const (
	weightConsistency    = 0.3
	weightResponsiveness = 0.15
	weightBalance        = 0.2
	weightIntent         = 0.2
	weightRecovery       = 0.15
)

// ComputeCareSignals derives the care signals from the ActivityWindowDays
// logs ending at through. Logs outside the window are ignored.
func ComputeCareSignals(logs []BehaviorLog, through time.Time) CareSignals {
	series := DailySeries(logs, through, ActivityWindowDays)

	signals := CareSignals{
		Consistency:    careConsistency(series),
		Responsiveness: careResponsiveness(series),
		Balance:        careBalance(series),
		Intent:         careIntent(series),
		Recovery:       careRecovery(series),
	}
	signals.Score = roundTo(Clamp(
		signals.Consistency*weightConsistency+
			signals.Responsiveness*weightResponsiveness+
			signals.Balance*weightBalance+
			signals.Intent*weightIntent+
			signals.Recovery*weightRecovery,
		0, 1), 3)
	return signals
}

func careConsistency(series []BehaviorLog) float64 {
	if len(series) == 0 {
		return 0
	}
	return roundTo(float64(countActive(series))/float64(len(series)), 3)
}

// careResponsiveness rewards acting early in the day.
func careResponsiveness(series []BehaviorLog) float64 {
	var sum float64
	var n int
	for _, day := range series {
		if !day.Active() {
			continue
		}
		n++
		if day.FirstActivityAt == nil {
			sum += 0.5
			continue
		}
		hour := day.FirstActivityAt.UTC().Hour()
		switch {
		case hour < 10:
			sum += 1
		case hour < 14:
			sum += 0.8
		case hour < 18:
			sum += 0.6
		case hour < 22:
			sum += 0.4
		default:
			sum += 0.2
		}
	}
	if n == 0 {
		return 0
	}
	return roundTo(Clamp(sum/float64(n), 0, 1), 3)
}

// careBalance penalizes binge days and uneven daily totals.
func careBalance(series []BehaviorLog) float64 {
	active := countActive(series)
	if active == 0 {
		return 0
	}
	binges := 0
	var sum float64
	for _, day := range series {
		if day.Active() && day.IsBinge {
			binges++
		}
		sum += float64(day.Total())
	}
	mean := sum / float64(len(series))
	var variance float64
	for _, day := range series {
		d := float64(day.Total()) - mean
		variance += d * d
	}
	variance /= float64(len(series))
	cv := math.Sqrt(variance) / mean

	bingeShare := float64(binges) / float64(active)
	return roundTo(Clamp(1-bingeShare*0.6-math.Min(cv, 1)*0.4, 0, 1), 3)
}

// careIntent rewards a steady completion pace over bursts.
func careIntent(series []BehaviorLog) float64 {
	var sum float64
	var n int
	for _, day := range series {
		if !day.Active() {
			continue
		}
		n++
		switch {
		case day.IsBinge:
			sum += 0.25
		case day.CompletionVelocity <= 0:
			sum += 0.75
		case day.CompletionVelocity <= 4:
			sum += 1
		case day.CompletionVelocity <= 8:
			sum += 0.75
		case day.CompletionVelocity <= 15:
			sum += 0.5
		default:
			sum += 0.25
		}
	}
	if n == 0 {
		return 0
	}
	return roundTo(Clamp(sum/float64(n), 0, 1), 3)
}

// careRecovery scores how quickly activity resumed after each run of missed
// days. Shorter gaps recover better; a gap still open counts as unrecovered.
func careRecovery(series []BehaviorLog) float64 {
	if countActive(series) == 0 {
		return 0
	}
	var runs int
	var quickness float64
	gap := 0
	// series is most-recent-first; walk it oldest first.
	for i := len(series) - 1; i >= 0; i-- {
		if !series[i].Active() {
			gap++
			continue
		}
		if gap > 0 {
			runs++
			switch {
			case gap == 1:
				quickness += 1
			case gap == 2:
				quickness += 0.8
			default:
				quickness += 0.6
			}
			gap = 0
		}
	}
	if gap > 0 {
		runs++
	}
	if runs == 0 {
		return 1
	}
	return roundTo(Clamp(quickness/float64(runs), 0, 1), 3)
}

func countActive(series []BehaviorLog) int {
	n := 0
	for _, day := range series {
		if day.Active() {
			n++
		}
	}
	return n
}
