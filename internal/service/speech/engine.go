package speech

import (
	"context"
	"strings"
)

// Voice is a voice offered by an engine.
type Voice struct {
	// Name identifies the voice within the engine.
	Name string
	// Language is the voice language tag, e.g. "id" or "id-ID".
	Language string
	// Gender is the engine's gender label, empty when unknown.
	Gender string
}

// Utterance is a single narration request.
type Utterance struct {
	// Text is spoken verbatim.
	Text string
	// Language is the narration language, e.g. "id".
	Language string
	// Voice is the voice name, empty for the engine default of Language.
	Voice string
}

// Engine speaks utterances.
type Engine interface {
	// Voices lists the voices available for the language.
	Voices(ctx context.Context, language string) ([]Voice, error)
	// Speak blocks until the utterance is spoken. Cancelling ctx aborts it.
	Speak(ctx context.Context, utterance Utterance) error
}

// Resumer is implemented by engines that may silently pause.
type Resumer interface {
	// Paused reports whether speech is held by the platform.
	Paused() bool
	// Resume forces paused speech to continue.
	Resume() error
}

// preferredVoiceHints mark natural-sounding or alternate voices.
//
//nolint:gochecknoglobals // Read-only lookup table.
var preferredVoiceHints = []string{"google", "natural", "female", "wanita", "alternate"}

// Language returns the primary language subtag of a locale: "id-ID" becomes "id".
func Language(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	locale = strings.ReplaceAll(locale, "_", "-")

	language, _, _ := strings.Cut(locale, "-")

	return language
}

// SelectVoice picks the best voice for the locale: a preferred voice of the
// locale language, else the first voice of that language. It reports false when
// no voice matches and the engine default should be used.
func SelectVoice(voices []Voice, locale string) (Voice, bool) {
	language := Language(locale)
	if language == "" {
		return Voice{}, false
	}

	var (
		first Voice
		found bool
	)

	for _, voice := range voices {
		if Language(voice.Language) != language {
			continue
		}

		if isPreferred(voice) {
			return voice, true
		}

		if !found {
			first, found = voice, true
		}
	}

	return first, found
}

// isPreferred reports whether the voice carries a preference hint.
func isPreferred(voice Voice) bool {
	label := strings.ToLower(voice.Name + " " + voice.Gender)

	for _, hint := range preferredVoiceHints {
		if strings.Contains(label, hint) {
			return true
		}
	}

	return strings.EqualFold(voice.Gender, "f")
}
