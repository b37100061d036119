package audio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/oshokin/alert-broadcast/internal/logger"
)

const (
	// Tick is the amount of audio rendered per write; stopping takes effect on the next tick.
	Tick = 10 * time.Millisecond

	// SirenCarrier is the center frequency of the siren in Hz.
	SirenCarrier = 800
	// SirenSweep is the siren frequency deviation in Hz.
	SirenSweep = 400
	// SirenSweepRate is the frequency of the siren sweep in Hz.
	SirenSweepRate = 0.5
	// SirenGain is the siren output level.
	SirenGain = 0.5
	// SirenRamp is the fade-out length applied by Stop.
	SirenRamp = 120 * time.Millisecond
	// MaxLead bounds how far rendering may run ahead of the wall clock.
	MaxLead = 2 * Tick

	// silenceGain keeps the keep-alive loop practically inaudible.
	silenceGain = 0.01
	// silenceFrequency is the keep-alive loop frequency, below hearing range.
	silenceFrequency = 15
)

// waveform renders the next samples of a tone.
type waveform interface {
	fill(samples []float64)
}

// Tone renders a waveform indefinitely until stopped.
// Start after Stop and Stop while stopped are safe.
type Tone struct {
	// sink receives the rendered audio.
	sink Sink
	// newWaveform creates the waveform of a single run.
	newWaveform func() waveform
	// gain is the output level.
	gain float64
	// ramp is the fade-out length.
	ramp time.Duration
	// name labels log messages.
	name string

	// mu protects run.
	mu sync.Mutex
	// run is the active playback, nil when stopped.
	run *toneRun
}

// toneRun is a single playback of a tone.
type toneRun struct {
	// stop is closed by Stop to start the fade-out.
	stop chan struct{}
	// done is closed once the stream is closed.
	done chan struct{}
}

// NewSiren creates the emergency wail: a sawtooth swept by a slow triangle.
func NewSiren(sink Sink) *Tone {
	return &Tone{
		sink: sink,
		newWaveform: func() waveform {
			return new(sirenWave)
		},
		gain: SirenGain,
		ramp: SirenRamp,
		name: "siren",
	}
}

// NewSilentLoop creates the near-silent keep-alive loop.
func NewSilentLoop(sink Sink) *Tone {
	return &Tone{
		sink: sink,
		newWaveform: func() waveform {
			return new(silenceWave)
		},
		gain: silenceGain,
		name: "silence",
	}
}

// Start begins playback. It does nothing when the tone already plays.
func (t *Tone) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run != nil {
		return nil
	}

	out, err := t.sink.Open(ctx)
	if err != nil {
		return err
	}

	run := &toneRun{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	t.run = run

	go t.play(logger.WithName(ctx, t.name), run, out)

	return nil
}

// Stop fades the tone out and releases the stream in the background.
func (t *Tone) Stop() {
	t.mu.Lock()
	run := t.run
	t.run = nil
	t.mu.Unlock()

	if run != nil {
		close(run.stop)
	}
}

// Playing reports whether the tone has been started and is still rendering.
func (t *Tone) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.run != nil
}

// play renders ticks until the fade-out completes, the stream fails or ctx is done.
func (t *Tone) play(ctx context.Context, run *toneRun, out io.WriteCloser) {
	defer close(run.done)

	var (
		wave     = t.newWaveform()
		samples  = make([]float64, Samples(Tick))
		pcm      = make([]byte, 0, len(samples)*bytesPerSample)
		gain     = t.gain
		rampStep float64
		stop     = run.stop
	)

	defer func() {
		t.mu.Lock()
		if t.run == run {
			t.run = nil
		}
		t.mu.Unlock()

		if err := out.Close(); err != nil {
			logger.DebugKV(ctx, "Audio stream closed with error", "error", err)
		}
	}()

	// A run stopped before its first tick never writes.
	t.mu.Lock()
	if t.run != run {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	var (
		started  = time.Now()
		rendered time.Duration
		fade     = func() {
			stop = nil
			rampStep = gain / float64(max(1, Samples(t.ramp)))
		}
	)

	for {
		// Players buffer generously, so output stays paced to the wall clock.
		for rendered-time.Since(started) >= MaxLead {
			select {
			case <-ticker.C:
			case <-stop:
				fade()
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-stop:
			fade()
		case <-ctx.Done():
			return
		default:
		}

		wave.fill(samples)

		for i := range samples {
			if rampStep > 0 {
				gain = max(0, gain-rampStep)
			}

			samples[i] *= gain
		}

		pcm = encode(pcm, samples)

		if _, err := out.Write(pcm); err != nil {
			logger.WarnKV(ctx, "Audio output failed", "error", err)

			return
		}

		rendered += Tick

		if rampStep > 0 && gain == 0 {
			return
		}
	}
}

// sirenWave is a sawtooth carrier modulated by a triangle sweep.
type sirenWave struct {
	// carrier is the audible oscillator.
	carrier oscillator
	// sweep modulates the carrier frequency.
	sweep oscillator
}

// fill renders the siren.
func (w *sirenWave) fill(samples []float64) {
	for i := range samples {
		samples[i] = w.carrier.sawtooth()

		w.carrier.advance(SirenCarrier + SirenSweep*w.sweep.triangle())
		w.sweep.advance(SirenSweepRate)
	}
}

// silenceWave is a very low sine that keeps the output device busy.
type silenceWave struct {
	// osc is the sine oscillator.
	osc oscillator
}

// fill renders the keep-alive signal.
func (w *silenceWave) fill(samples []float64) {
	for i := range samples {
		samples[i] = w.osc.sine()

		w.osc.advance(silenceFrequency)
	}
}
