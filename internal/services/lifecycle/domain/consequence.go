package domain

import (
	"fmt"
	"time"
)

// ConsequenceKind is the type of a queued downstream effect.
type ConsequenceKind string

const (
	ConsequenceScarRecorded      ConsequenceKind = "scar_recorded"
	ConsequenceDormancyEntered   ConsequenceKind = "dormancy_entered"
	ConsequenceCompanionDied     ConsequenceKind = "companion_died"
	ConsequenceCompanionAwakened ConsequenceKind = "companion_awakened"
	ConsequenceEvolutionPathSet  ConsequenceKind = "evolution_path_set"
)

// ParseConsequenceKind converts a stored kind.
func ParseConsequenceKind(value string) (ConsequenceKind, error) {
	kind := ConsequenceKind(value)
	switch kind {
	case ConsequenceScarRecorded, ConsequenceDormancyEntered, ConsequenceCompanionDied,
		ConsequenceCompanionAwakened, ConsequenceEvolutionPathSet:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown consequence kind %q", value)
	}
}

// Consequence is an effect queued for later delivery by an external renderer.
type Consequence struct {
	Kind        ConsequenceKind
	CompanionID string
	UserID      string
	DeliverOn   time.Time
	// DedupeKey is unique per kind, companion and run date.
	DedupeKey string
	Payload   map[string]any
}

func newConsequence(c Companion, kind ConsequenceKind, runDate, deliverOn time.Time, payload map[string]any) Consequence {
	if payload == nil {
		payload = map[string]any{}
	}
	return Consequence{
		Kind:        kind,
		CompanionID: c.ID,
		UserID:      c.UserID,
		DeliverOn:   Day(deliverOn),
		DedupeKey:   fmt.Sprintf("%s:%s:%s", kind, c.ID, DateKey(runDate)),
		Payload:     payload,
	}
}
