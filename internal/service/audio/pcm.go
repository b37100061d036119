package audio

import (
	"encoding/binary"
	"math"
)

// encode converts samples in [-1, 1] to signed 16-bit little-endian PCM.
// Out of range samples are clipped.
func encode(dst []byte, samples []float64) []byte {
	dst = dst[:0]

	for _, sample := range samples {
		sample = math.Max(-1, math.Min(1, sample))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(math.Round(sample*math.MaxInt16))))
	}

	return dst
}

// oscillator is a phase accumulator in cycles.
type oscillator struct {
	// phase is the position within the current cycle, in [0, 1).
	phase float64
}

// advance moves the oscillator by one sample at the given frequency.
func (o *oscillator) advance(frequency float64) {
	o.phase += frequency / SampleRate
	o.phase -= math.Floor(o.phase)
}

// sawtooth returns the sawtooth value of the current phase in [-1, 1).
func (o *oscillator) sawtooth() float64 {
	return 2*o.phase - 1
}

// triangle returns the triangle value of the current phase in [-1, 1].
func (o *oscillator) triangle() float64 {
	return 1 - 4*math.Abs(o.phase-0.5)
}

// sine returns the sine value of the current phase.
func (o *oscillator) sine() float64 {
	return math.Sin(2 * math.Pi * o.phase)
}
