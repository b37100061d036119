// Package speech narrates alert texts through a text-to-speech engine.
//
// The Narrator keeps at most one utterance in flight, picks the best voice for a
// locale and reports exactly one terminal outcome per utterance.
package speech
