package audio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oshokin/alert-broadcast/internal/logger"
)

const (
	// ChimeLow is the low chime note in Hz.
	ChimeLow = 660
	// ChimeHigh is the high chime note in Hz.
	ChimeHigh = 880
	// ChimeNote is the length of a single chime note.
	ChimeNote = 600 * time.Millisecond
	// chimeGain is the chime output level.
	chimeGain = 0.4
	// chimeAttack is the fade-in of every note.
	chimeAttack = 10 * time.Millisecond
)

// Note is a single sine tone.
type Note struct {
	// Frequency in Hz.
	Frequency float64
	// Duration of the note.
	Duration time.Duration
}

// Chime plays short two-note signals. It is stateless and fire-and-forget.
type Chime struct {
	// sink receives the rendered audio.
	sink Sink
}

// NewChime creates a chime writing to the sink.
func NewChime(sink Sink) *Chime {
	return &Chime{
		sink: sink,
	}
}

// IntroNotes rise in pitch.
func IntroNotes() []Note {
	return []Note{
		{Frequency: ChimeLow, Duration: ChimeNote},
		{Frequency: ChimeHigh, Duration: ChimeNote},
	}
}

// ClosingNotes fall in pitch.
func ClosingNotes() []Note {
	return []Note{
		{Frequency: ChimeHigh, Duration: ChimeNote},
		{Frequency: ChimeLow, Duration: ChimeNote},
	}
}

// PlayIntro plays the rising chime in the background.
func (c *Chime) PlayIntro(ctx context.Context) {
	go c.playLogged(ctx, IntroNotes())
}

// PlayClosing plays the falling chime in the background.
func (c *Chime) PlayClosing(ctx context.Context) {
	go c.playLogged(ctx, ClosingNotes())
}

// Play renders the notes and blocks until the stream is closed.
func (c *Chime) Play(ctx context.Context, notes []Note) error {
	out, err := c.sink.Open(ctx)
	if err != nil {
		return err
	}

	var pcm []byte

	for _, note := range notes {
		pcm = encode(pcm, renderNote(note))

		if _, err = out.Write(pcm); err != nil {
			//nolint:errcheck // Write error is more important.
			out.Close()

			return fmt.Errorf("write chime: %w", err)
		}
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close chime stream: %w", err)
	}

	return nil
}

// playLogged plays the notes and logs failures.
func (c *Chime) playLogged(ctx context.Context, notes []Note) {
	if err := c.Play(ctx, notes); err != nil {
		logger.WarnKV(ctx, "Chime failed", "error", err)
	}
}

// renderNote renders a sine with a short attack and an exponential decay.
func renderNote(note Note) []float64 {
	var (
		total   = Samples(note.Duration)
		attack  = max(1, Samples(chimeAttack))
		samples = make([]float64, total)
		osc     oscillator
	)

	for i := range samples {
		envelope := math.Exp(-3 * float64(i) / float64(total))
		if i < attack {
			envelope *= float64(i) / float64(attack)
		}

		samples[i] = chimeGain * envelope * osc.sine()

		osc.advance(note.Frequency)
	}

	return samples
}
