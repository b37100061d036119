// Package phase turns the latest alert record into the audible phase cycle.
//
// A Scheduler owns the audio output of a client. Every record, timer and
// narration callback is handled by a single event loop, so two cycles never
// run at the same time.
package phase
