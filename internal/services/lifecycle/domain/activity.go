package domain

import "time"

// Binge detection: at least bingeMinCompletions inside bingeMaxSpan.
const (
	bingeMinCompletions = 6
	bingeMaxSpan        = time.Hour
)

// BehaviorLog is one user's activity for one calendar day.
type BehaviorLog struct {
	UserID             string
	Date               time.Time
	HabitsCompleted    int
	TasksCompleted     int
	CheckIns           int
	FirstActivityAt    *time.Time
	LastActivityAt     *time.Time
	CompletionVelocity float64
	IsBinge            bool
}

// Total is the number of completed actions that day.
func (l BehaviorLog) Total() int {
	return max(l.HabitsCompleted, 0) + max(l.TasksCompleted, 0) + max(l.CheckIns, 0)
}

// Active reports whether the day had any activity.
func (l BehaviorLog) Active() bool {
	return l.Total() > 0
}

// NormalizeBehaviorLog replaces malformed values with neutral ones and fills
// the derived velocity and binge fields from the activity timestamps.
func NormalizeBehaviorLog(l BehaviorLog) BehaviorLog {
	l.Date = Day(l.Date)
	l.HabitsCompleted = max(l.HabitsCompleted, 0)
	l.TasksCompleted = max(l.TasksCompleted, 0)
	l.CheckIns = max(l.CheckIns, 0)
	if l.FirstActivityAt != nil && l.LastActivityAt != nil && l.LastActivityAt.Before(*l.FirstActivityAt) {
		l.FirstActivityAt, l.LastActivityAt = l.LastActivityAt, l.FirstActivityAt
	}
	total := l.Total()
	if total == 0 {
		l.CompletionVelocity = 0
		l.IsBinge = false
		return l
	}
	if l.FirstActivityAt == nil || l.LastActivityAt == nil {
		if l.CompletionVelocity < 0 || isBadFloat(l.CompletionVelocity) {
			l.CompletionVelocity = 0
		}
		return l
	}
	span := l.LastActivityAt.Sub(*l.FirstActivityAt)
	hours := max(span.Hours(), 1)
	l.CompletionVelocity = Round2(float64(total) / hours)
	l.IsBinge = l.IsBinge || (total >= bingeMinCompletions && span <= bingeMaxSpan)
	return l
}

// DailySeries returns exactly days logs ending at through, most-recent-first.
// Missing days read as zero activity.
func DailySeries(logs []BehaviorLog, through time.Time, days int) []BehaviorLog {
	byDay := make(map[string]BehaviorLog, len(logs))
	for _, l := range logs {
		l = NormalizeBehaviorLog(l)
		byDay[DateKey(l.Date)] = l
	}
	end := Day(through)
	series := make([]BehaviorLog, 0, days)
	for i := 0; i < days; i++ {
		date := end.AddDate(0, 0, -i)
		l, ok := byDay[DateKey(date)]
		if !ok {
			l = BehaviorLog{Date: date}
		}
		series = append(series, l)
	}
	return series
}

// LogForDay returns the log for date, or an empty one.
func LogForDay(logs []BehaviorLog, date time.Time) BehaviorLog {
	for _, l := range logs {
		if Day(l.Date).Equal(Day(date)) {
			return NormalizeBehaviorLog(l)
		}
	}
	return BehaviorLog{Date: Day(date)}
}

