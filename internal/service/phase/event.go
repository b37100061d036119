package phase

import (
	"time"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// Phase is one stage of the audible cycle.
type Phase string

const (
	// PhaseIdle means no cycle runs.
	PhaseIdle Phase = "IDLE"
	// PhaseSiren plays the siren tone.
	PhaseSiren Phase = "SIREN"
	// PhaseVoice speaks the narration.
	PhaseVoice Phase = "VOICE"
	// PhaseChime plays an intro or closing chime.
	PhaseChime Phase = "CHIME"
)

// Event describes a phase transition for a presentation layer.
type Event struct {
	// Phase is the entered phase.
	Phase Phase `json:"phase"`
	// Status is the status of the record driving the cycle.
	Status alert.Status `json:"status"`
	// TestKind is set for TEST cycles.
	TestKind alert.TestKind `json:"testKind,omitempty"`
	// Repeat is the narration number of a TEST cycle, starting at 1.
	Repeat int `json:"repeat,omitempty"`
	// MaxRepeats is the narration count of a TEST cycle.
	MaxRepeats int `json:"maxRepeats,omitempty"`
	// Closing marks the closing chime of a TEST cycle.
	Closing bool `json:"closing,omitempty"`
	// Text is the narration spoken in a VOICE phase.
	Text string `json:"text,omitempty"`
	// ReporterName is the reporter of the driving record.
	ReporterName string `json:"reporterName,omitempty"`
	// At is the transition time.
	At time.Time `json:"at"`
}

// Observer receives phase events on the scheduler loop. It must not block.
type Observer func(Event)
