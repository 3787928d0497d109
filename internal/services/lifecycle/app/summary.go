package app

import (
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
)

// Summary aggregates one batch run.
type Summary struct {
	RunDate               string `json:"runDate"`
	Processed             int    `json:"processed"`
	Decayed               int    `json:"decayed"`
	Recovered             int    `json:"recovered"`
	Awakened              int    `json:"awakened"`
	Dormancies            int    `json:"dormancies"`
	Deaths                int    `json:"deaths"`
	ScarsAdded            int    `json:"scarsAdded"`
	PathsUpdated          int    `json:"pathsUpdated"`
	ConsequencesQueued    int    `json:"consequencesQueued"`
	ConsequencesProcessed int    `json:"consequencesProcessed"`
	MaintenanceApplied    int    `json:"maintenanceApplied"`
	MaintenanceSkipped    int    `json:"maintenanceSkipped"`
	RitualsPlanned        int    `json:"ritualsPlanned"`
	RequestsIssued        int    `json:"requestsIssued"`
	RequestsExpired       int    `json:"requestsExpired"`
	FreezesReset          int    `json:"freezesReset"`
	StreaksAtRisk         int    `json:"streaksAtRisk"`
	Skipped               int    `json:"skipped"`
	Failed                int    `json:"failed"`
}

// companionResult is what one companion contributed to the run.
type companionResult struct {
	outcome      domain.DayOutcome
	maintenance  domain.MaintenanceResult
	rituals      int
	requests     int
	streakChange domain.StreakChange
	skipped      bool
	err          error
}

// add folds one companion result into the summary.
func (s Summary) add(r companionResult) Summary {
	switch {
	case r.err != nil:
		s.Failed++
		return s
	case r.skipped:
		s.Skipped++
		return s
	}
	s.Processed++
	o := r.outcome
	if o.Decayed {
		s.Decayed++
	}
	if o.Recovered {
		s.Recovered++
	}
	if o.Awakened {
		s.Awakened++
	}
	if o.EnteredDormancy {
		s.Dormancies++
	}
	if o.Died {
		s.Deaths++
	}
	if o.Scar != nil {
		s.ScarsAdded++
	}
	if o.PathUpdated {
		s.PathsUpdated++
	}
	s.ConsequencesQueued += len(o.Consequences)
	switch r.maintenance {
	case domain.MaintenanceApplied:
		s.MaintenanceApplied++
	case domain.MaintenanceSkipped:
		s.MaintenanceSkipped++
	}
	s.RitualsPlanned += r.rituals
	s.RequestsIssued += r.requests
	if r.streakChange == domain.StreakMarkedAtRisk {
		s.StreaksAtRisk++
	}
	return s
}
