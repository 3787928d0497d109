package domain

import "errors"

var (
	// ErrCompanionDead is returned for operations that need a living companion.
	ErrCompanionDead = errors.New("companion is dead")
	// ErrNoEvolutionPath is returned when unlocking a companion without a path.
	ErrNoEvolutionPath = errors.New("companion has no evolution path")
)
