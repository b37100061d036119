package phase

import (
	"context"
	"time"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/service/speech"
)

// TestResolver is the author of the resolve written when a TEST cycle completes.
const TestResolver = "Sistem (Uji Coba Selesai)"

// Tone is the siren.
type Tone interface {
	Start(ctx context.Context) error
	Stop()
}

// Chime plays fire-and-forget signals.
type Chime interface {
	PlayIntro(ctx context.Context)
	PlayClosing(ctx context.Context)
}

// Narrator speaks one utterance at a time.
type Narrator interface {
	Speak(ctx context.Context, text, locale string, done speech.Done)
	Cancel()
	Resume(ctx context.Context)
}

// Guard keeps the host awake during a cycle.
type Guard interface {
	Engage(ctx context.Context)
	Release()
	Reengage(ctx context.Context)
}

// Resolver writes the INACTIVE record ending a self-clearing TEST cycle.
type Resolver interface {
	Resolve(ctx context.Context, by string) (*alert.Record, error)
}

// Dependencies are the collaborators driven by the scheduler.
// Guard and Resolver are optional.
type Dependencies struct {
	Tone     Tone
	Chime    Chime
	Narrator Narrator
	Guard    Guard
	Resolver Resolver
}

// Settings tune the cycle timing.
type Settings struct {
	// SirenDuration is the siren phase length.
	SirenDuration time.Duration
	// VoiceEnabled adds a narration after every siren phase of an emergency.
	VoiceEnabled bool
	// SettleDelay separates a finished narration from the next phase.
	SettleDelay time.Duration
	// ChimeDelay separates an intro chime from the narration.
	ChimeDelay time.Duration
	// ClosingDelay is the closing chime length.
	ClosingDelay time.Duration
	// ResumeInterval is the period of forced speech resumes.
	ResumeInterval time.Duration
	// Locale selects the narration voice.
	Locale string
}

// SettingsFromConfig converts the alarm configuration.
func SettingsFromConfig(cfg config.Alarm) Settings {
	return Settings{
		SirenDuration:  cfg.SirenDuration,
		VoiceEnabled:   !cfg.MuteVoice,
		SettleDelay:    cfg.SettleDelay,
		ChimeDelay:     cfg.ChimeDelay,
		ClosingDelay:   cfg.ClosingDelay,
		ResumeInterval: cfg.ResumeInterval,
		Locale:         cfg.Locale,
	}
}

// Scheduler runs the phase cycle of the latest observed record.
type Scheduler struct {
	// deps are the driven collaborators.
	deps Dependencies
	// settings tune the timing.
	settings Settings
	// observers receive every transition.
	observers []Observer

	// records carries observed records into the loop.
	records chan *alert.Record
	// foreground carries foreground notifications into the loop.
	foreground chan struct{}
	// narrated carries narration outcomes into the loop.
	narrated chan narration
	// snapshots serves Current requests.
	snapshots chan chan Event

	// The fields below are owned by the loop goroutine.

	// current is the record driving the cycle, nil before the first record.
	current *alert.Record
	// state is the last emitted event.
	state Event
	// generation invalidates narration callbacks of superseded phases.
	generation uint64
	// timer is the pending phase timer, nil when none.
	timer *time.Timer
	// next runs when timer fires.
	next func(ctx context.Context)
	// resume is the forced speech resume ticker of an active cycle.
	resume *time.Ticker
	// sirenPlaying is set while the tone has been started.
	sirenPlaying bool
	// speaking is set while a narration is in flight.
	speaking bool
}

// narration is a narration outcome tagged with the phase generation that requested it.
type narration struct {
	// generation of the requesting phase.
	generation uint64
	// outcome reported by the narrator.
	outcome speech.Outcome
}

// New creates a scheduler. Run must be called to start it.
func New(deps Dependencies, settings Settings, observers ...Observer) *Scheduler {
	return &Scheduler{
		deps:       deps,
		settings:   settings,
		observers:  observers,
		records:    make(chan *alert.Record),
		foreground: make(chan struct{}, 1),
		narrated:   make(chan narration),
		snapshots:  make(chan chan Event),
		state:      Event{Phase: PhaseIdle, Status: alert.StatusInactive},
	}
}

// Observe hands a record to the scheduler. It blocks until the loop accepts it or ctx is done.
func (s *Scheduler) Observe(ctx context.Context, r *alert.Record) {
	if r == nil {
		r = alert.Inactive()
	}

	select {
	case s.records <- r.Clone():
	case <-ctx.Done():
	}
}

// Foreground reports that the host regained foreground visibility.
func (s *Scheduler) Foreground() {
	select {
	case s.foreground <- struct{}{}:
	default:
	}
}

// Current returns the last emitted event.
func (s *Scheduler) Current(ctx context.Context) (Event, bool) {
	reply := make(chan Event, 1)

	select {
	case s.snapshots <- reply:
	case <-ctx.Done():
		return Event{}, false
	}

	select {
	case event := <-reply:
		return event, true
	case <-ctx.Done():
		return Event{}, false
	}
}

// Run is the event loop. It returns when ctx is done, after silencing the cycle.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, "phase")

	defer s.idle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-s.records:
			s.handle(ctx, r)
		case n := <-s.narrated:
			s.narrationDone(ctx, n)
		case <-s.timerC():
			next := s.next
			s.timer, s.next = nil, nil

			if next != nil {
				next(ctx)
			}
		case <-s.resumeC():
			s.deps.Narrator.Resume(ctx)
		case <-s.foreground:
			s.reengage(ctx)
		case reply := <-s.snapshots:
			reply <- s.state
		}
	}
}

// handle starts, restarts or tears down the cycle for a new record.
func (s *Scheduler) handle(ctx context.Context, r *alert.Record) {
	if s.current != nil && s.current.Equal(r) {
		logger.DebugKV(ctx, "Ignoring identical record", "status", r.Status)

		return
	}

	s.current = r

	switch r.Status {
	case alert.StatusActive:
		logger.InfoKV(ctx, "Emergency cycle started", "reporter", r.ReporterName, "area", r.ReporterArea)

		s.stop()
		s.begin(ctx)
		s.enterSiren(ctx)
	case alert.StatusTest:
		logger.InfoKV(ctx, "Test cycle started", "kind", r.TestKind)

		s.stop()
		s.begin(ctx)
		s.enterChime(ctx, 0)
	default:
		s.idle(ctx)
	}
}

// begin engages the keep-alive capabilities of a cycle.
func (s *Scheduler) begin(ctx context.Context) {
	if s.deps.Guard != nil {
		s.deps.Guard.Engage(ctx)
	}

	if s.resume == nil && s.settings.ResumeInterval > 0 {
		s.resume = time.NewTicker(s.settings.ResumeInterval)
	}
}

// idle stops the cycle and enters IDLE. It has no effect when already idle.
func (s *Scheduler) idle(ctx context.Context) {
	if s.state.Phase == PhaseIdle && s.timer == nil && s.resume == nil {
		return
	}

	s.stop()

	if s.resume != nil {
		s.resume.Stop()
		s.resume = nil
	}

	if s.deps.Guard != nil {
		s.deps.Guard.Release()
	}

	status := alert.StatusInactive
	if s.current != nil {
		status = s.current.Status
	}

	s.emit(Event{Phase: PhaseIdle, Status: status})
}

// stop silences the tone, cancels the narration and clears the phase timer.
func (s *Scheduler) stop() {
	s.generation++

	if s.timer != nil {
		s.timer.Stop()
		s.timer, s.next = nil, nil
	}

	if s.sirenPlaying {
		s.deps.Tone.Stop()
		s.sirenPlaying = false
	}

	if s.speaking {
		s.deps.Narrator.Cancel()
		s.speaking = false
	}
}

// enterSiren plays the siren for the siren duration. A siren that already plays keeps running.
func (s *Scheduler) enterSiren(ctx context.Context) {
	s.emit(s.event(PhaseSiren))

	if !s.sirenPlaying {
		if err := s.deps.Tone.Start(ctx); err != nil {
			logger.WarnKV(ctx, "Siren failed to start", "error", err)
		} else {
			s.sirenPlaying = true
		}
	}

	s.after(s.settings.SirenDuration, s.sirenElapsed)
}

// sirenElapsed moves on to the narration, or loops the siren when voice is disabled.
func (s *Scheduler) sirenElapsed(ctx context.Context) {
	if !s.settings.VoiceEnabled {
		s.enterSiren(ctx)

		return
	}

	if s.sirenPlaying {
		s.deps.Tone.Stop()
		s.sirenPlaying = false
	}

	s.enterVoice(ctx, 0)
}

// enterChime plays the intro chime before narration number repeat+1.
func (s *Scheduler) enterChime(ctx context.Context, repeat int) {
	event := s.event(PhaseChime)
	event.Repeat = repeat

	s.emit(event)
	s.deps.Chime.PlayIntro(ctx)

	s.after(s.settings.ChimeDelay, func(ctx context.Context) {
		s.enterVoice(ctx, repeat+1)
	})
}

// enterVoice speaks the narration of the current record.
func (s *Scheduler) enterVoice(ctx context.Context, repeat int) {
	text := alert.Narration(s.current)

	event := s.event(PhaseVoice)
	event.Repeat = repeat
	event.Text = text

	s.emit(event)

	s.generation++
	s.speaking = true

	generation := s.generation
	s.deps.Narrator.Speak(ctx, text, s.settings.Locale, func(outcome speech.Outcome) {
		select {
		case s.narrated <- narration{generation: generation, outcome: outcome}:
		case <-ctx.Done():
		}
	})
}

// narrationDone advances the cycle once the narration of the current phase is over.
// Failures count as completion.
func (s *Scheduler) narrationDone(ctx context.Context, n narration) {
	if n.generation != s.generation || s.state.Phase != PhaseVoice {
		return
	}

	s.speaking = false

	if n.outcome == speech.OutcomeFailed {
		logger.Debug(ctx, "Narration failed, continuing cycle")
	}

	if s.current.Status == alert.StatusActive {
		s.after(s.settings.SettleDelay, s.enterSiren)

		return
	}

	repeat := s.state.Repeat
	if repeat < s.state.MaxRepeats {
		s.after(s.settings.SettleDelay, func(ctx context.Context) {
			s.enterChime(ctx, repeat)
		})

		return
	}

	s.after(s.settings.SettleDelay, func(ctx context.Context) {
		s.enterClosing(ctx, repeat)
	})
}

// enterClosing plays the closing chime, then ends the TEST cycle with a resolve write.
func (s *Scheduler) enterClosing(ctx context.Context, repeat int) {
	event := s.event(PhaseChime)
	event.Repeat = repeat
	event.Closing = true

	s.emit(event)
	s.deps.Chime.PlayClosing(ctx)

	s.after(s.settings.ClosingDelay, func(ctx context.Context) {
		completed := s.current

		s.idle(ctx)
		s.selfClear(ctx, completed)
	})
}

// selfClear writes the resolve of a completed TEST cycle in the background.
func (s *Scheduler) selfClear(ctx context.Context, completed *alert.Record) {
	if s.deps.Resolver == nil {
		logger.Warn(ctx, "Test cycle completed without a resolver")

		return
	}

	logger.InfoKV(ctx, "Test cycle completed", "kind", completed.TestKind)

	go func() {
		if _, err := s.deps.Resolver.Resolve(ctx, TestResolver); err != nil {
			logger.ErrorKV(ctx, "Failed to resolve completed test", "error", err)
		}
	}()
}

// reengage restores the keep-alive capabilities of an active cycle.
func (s *Scheduler) reengage(ctx context.Context) {
	if s.state.Phase == PhaseIdle {
		return
	}

	if s.deps.Guard != nil {
		s.deps.Guard.Reengage(ctx)
	}

	s.deps.Narrator.Resume(ctx)
}

// after schedules next on the phase timer, replacing any pending step.
func (s *Scheduler) after(d time.Duration, next func(ctx context.Context)) {
	if s.timer != nil {
		s.timer.Stop()
	}

	s.timer = time.NewTimer(max(0, d))
	s.next = next
}

// event fills the fields shared by every event of the current record.
func (s *Scheduler) event(phase Phase) Event {
	event := Event{
		Phase:        phase,
		Status:       s.current.Status,
		ReporterName: s.current.ReporterName,
	}

	if s.current.Status == alert.StatusTest {
		event.TestKind = s.current.TestKind
		event.MaxRepeats = alert.MaxRepeats(s.current.TestKind)
	}

	return event
}

// emit records and publishes an event.
func (s *Scheduler) emit(event Event) {
	event.At = time.Now()
	s.state = event

	for _, observer := range s.observers {
		observer(event)
	}
}

// timerC returns the pending phase timer channel, nil when none.
func (s *Scheduler) timerC() <-chan time.Time {
	if s.timer == nil {
		return nil
	}

	return s.timer.C
}

// resumeC returns the resume ticker channel, nil outside a cycle.
func (s *Scheduler) resumeC() <-chan time.Time {
	if s.resume == nil {
		return nil
	}

	return s.resume.C
}
