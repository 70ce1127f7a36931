package tracker

import "github.com/raphaelgruber/ragdex/internal/models"

// Step is the position of the ingestion progress indicator.
type Step int

const (
	// StepSelect: no upload has happened yet for the active store.
	StepSelect Step = 1
	// StepIndexing: an upload or import occurred and either an operation
	// is still processing or the listing has no ready document yet.
	StepIndexing Step = 2
	// StepReady: the listing contains at least one ready document.
	StepReady Step = 3
)

func (s Step) String() string {
	switch s {
	case StepSelect:
		return "Select"
	case StepIndexing:
		return "Indexing"
	case StepReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Step returns the current indicator position.
func (t *Tracker) Step() Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.step
}

// recomputeStepLocked derives the indicator from the registry and listing.
// The step only moves forward; it regresses to StepSelect solely through
// clearLocked (store switch / explicit reset). Caller must hold t.mu.
func (t *Tracker) recomputeStepLocked() {
	s := StepSelect

	anyReady := false
	for _, d := range t.docs {
		if d.State == models.StateReady {
			anyReady = true
			break
		}
	}

	switch {
	case anyReady:
		s = StepReady
	case t.uploaded || len(t.ops) > 0:
		s = StepIndexing
	}

	if s > t.step {
		t.step = s
	}
}
