package domain

import (
	"fmt"
	"strings"
	"time"
)

// EvolutionPath is the long-term trajectory of a companion.
type EvolutionPath string

const (
	PathUnresolved        EvolutionPath = ""
	PathSteadyGuardian    EvolutionPath = "steady_guardian"
	PathVolatileAscendant EvolutionPath = "volatile_ascendant"
	PathNeglectedWanderer EvolutionPath = "neglected_wanderer"
	PathBalancedArchitect EvolutionPath = "balanced_architect"
)

// EvolutionRecomputeInterval is the minimum gap between determinations.
const EvolutionRecomputeInterval = 7 * 24 * time.Hour

// ParseEvolutionPath converts a stored path. Empty values are unresolved.
func ParseEvolutionPath(value string) (EvolutionPath, error) {
	path := EvolutionPath(strings.TrimSpace(value))
	switch path {
	case PathUnresolved, PathSteadyGuardian, PathVolatileAscendant,
		PathNeglectedWanderer, PathBalancedArchitect:
		return path, nil
	default:
		return "", fmt.Errorf("unknown evolution path %q", value)
	}
}

// ClassifyEvolutionPath maps care signals to a path. The first matching rule
// wins; PathUnresolved means no rule matched.
func ClassifyEvolutionPath(s CareSignals) EvolutionPath {
	switch {
	case s.Consistency >= 0.75 && s.Responsiveness >= 0.75 && s.Balance >= 0.75 &&
		s.Intent >= 0.75 && s.Recovery >= 0.75:
		return PathBalancedArchitect
	case s.Consistency >= 0.7 && s.Balance >= 0.6:
		return PathSteadyGuardian
	case s.Consistency < 0.3 || s.Score < 0.3:
		return PathNeglectedWanderer
	case s.Balance < 0.45 && s.Intent >= 0.5:
		return PathVolatileAscendant
	default:
		return PathUnresolved
	}
}

// EvolutionDue reports whether the weekly recompute condition holds.
func EvolutionDue(c Companion, now time.Time) bool {
	if c.EvolutionPathLocked || len(c.ActivityWindow) < ActivityWindowDays {
		return false
	}
	if c.PathDeterminationDate != nil && now.Sub(*c.PathDeterminationDate) < EvolutionRecomputeInterval {
		return false
	}
	return true
}

// ResolveEvolutionPath classifies and locks the path when due. The boolean
// reports whether a path was written.
func ResolveEvolutionPath(c Companion, now time.Time) (Companion, bool) {
	if !EvolutionDue(c, now) {
		return c, false
	}
	path := ClassifyEvolutionPath(c.Care)
	if path == PathUnresolved {
		return c, false
	}
	c.EvolutionPath = path
	c.EvolutionPathLocked = true
	c.PathDeterminationDate = timePtr(now.UTC())
	return c, true
}

// UnlockEvolutionPath clears the lock. The last path stays until the next
// determination replaces it.
func UnlockEvolutionPath(c Companion) (Companion, error) {
	if !c.IsAlive {
		return c, ErrCompanionDead
	}
	if c.EvolutionPath == PathUnresolved {
		return c, ErrNoEvolutionPath
	}
	c.EvolutionPathLocked = false
	return c, nil
}
