package sync

import (
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
)

// Phase is the reconciliation engine's current stage.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePulling
	PhaseDraining
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePulling:
		return "pulling"
	case PhaseDraining:
		return "draining"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ConflictOutcome identifies one local edit that lost to the server's copy.
// Conflicts are surfaced as outcomes, not errors.
type ConflictOutcome struct {
	EntityType models.EntityType
	EntityID   int64
}

// CycleResult summarizes one pull-then-drain pass.
type CycleResult struct {
	Pulled     int
	Tombstoned int
	Drained    int
	Failed     int
	Conflicts  []ConflictOutcome
}

// State is the observable engine state: current phase plus the last cycle's
// outcome. Zero value means "never ran".
type State struct {
	Phase       Phase
	LastError   string
	LastCycleAt time.Time
	LastResult  CycleResult
}
