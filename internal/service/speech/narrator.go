package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/alert-broadcast/internal/logger"
)

// Outcome is the terminal result of an utterance.
type Outcome int

const (
	// OutcomeFinished means the text was spoken completely.
	OutcomeFinished Outcome = iota
	// OutcomeFailed means the engine reported an error.
	OutcomeFailed
	// OutcomeCanceled means the utterance was superseded or canceled. It is not an error.
	OutcomeCanceled
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeFinished:
		return "finished"
	case OutcomeFailed:
		return "failed"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Done receives the terminal outcome of an utterance, exactly once.
type Done func(outcome Outcome)

// Narrator speaks one utterance at a time.
type Narrator struct {
	// engine speaks the utterances.
	engine Engine

	// mu protects the fields below.
	mu sync.Mutex
	// current is the utterance in flight, nil when idle.
	current *utterance
	// voices caches the selected voice per locale.
	voices map[string]string
}

// utterance is a single in-flight narration.
type utterance struct {
	// cancel aborts the engine call.
	cancel context.CancelFunc
	// finished is closed once the engine call has returned.
	finished chan struct{}
}

// NewNarrator creates a narrator on top of the engine.
func NewNarrator(engine Engine) *Narrator {
	return &Narrator{
		engine: engine,
		voices: make(map[string]string),
	}
}

// Speak cancels the utterance in flight and speaks text in the locale.
// done is called exactly once from a background goroutine.
func (n *Narrator) Speak(ctx context.Context, text, locale string, done Done) {
	speakCtx, cancel := context.WithCancel(ctx)

	next := &utterance{
		cancel:   cancel,
		finished: make(chan struct{}),
	}

	n.mu.Lock()
	previous := n.current
	n.current = next
	n.mu.Unlock()

	if previous != nil {
		previous.cancel()
	}

	go n.run(speakCtx, previous, next, text, locale, done)
}

// Cancel aborts the utterance in flight, which then reports OutcomeCanceled.
func (n *Narrator) Cancel() {
	n.mu.Lock()
	current := n.current
	n.current = nil
	n.mu.Unlock()

	if current != nil {
		current.cancel()
	}
}

// Resume forces a paused engine to continue speaking.
func (n *Narrator) Resume(ctx context.Context) {
	resumer, ok := n.engine.(Resumer)
	if !ok || !resumer.Paused() {
		return
	}

	if err := resumer.Resume(); err != nil {
		logger.DebugKV(ctx, "Failed to resume speech", "error", err)

		return
	}

	logger.Debug(ctx, "Speech resumed")
}

// run waits for the previous utterance to release the engine, then speaks.
func (n *Narrator) run(ctx context.Context, previous, current *utterance, text, locale string, done Done) {
	defer close(current.finished)
	defer n.release(current)

	if previous != nil {
		<-previous.finished
	}

	if ctx.Err() != nil {
		done(OutcomeCanceled)

		return
	}

	err := n.engine.Speak(ctx, Utterance{
		Text:     text,
		Language: Language(locale),
		Voice:    n.voice(ctx, locale),
	})

	switch {
	case ctx.Err() != nil:
		done(OutcomeCanceled)
	case err != nil:
		logger.WarnKV(ctx, "Narration failed", "error", err)
		done(OutcomeFailed)
	default:
		done(OutcomeFinished)
	}
}

// release forgets the utterance once it is over.
func (n *Narrator) release(current *utterance) {
	current.cancel()

	n.mu.Lock()
	if n.current == current {
		n.current = nil
	}
	n.mu.Unlock()
}

// voice returns the cached voice of the locale, selecting it on first use.
func (n *Narrator) voice(ctx context.Context, locale string) string {
	n.mu.Lock()
	name, ok := n.voices[locale]
	n.mu.Unlock()

	if ok {
		return name
	}

	voices, err := n.engine.Voices(ctx, Language(locale))
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.DebugKV(ctx, "Using default voice", "locale", locale, "error", err)
		}

		return ""
	}

	if voice, found := SelectVoice(voices, locale); found {
		name = voice.Name
	}

	n.mu.Lock()
	n.voices[locale] = name
	n.mu.Unlock()

	logger.DebugKV(ctx, "Narration voice selected", "locale", locale, "voice", name)

	return name
}
