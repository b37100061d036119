// Package audio synthesizes the siren, the chimes and the keep-alive silence.
//
// Everything is rendered as mono signed 16-bit little-endian PCM at SampleRate and
// written to a Sink, normally an external player process reading raw audio on stdin.
package audio
