package alert

import (
	"regexp"
	"strings"
)

// DefaultArea is spoken when an emergency carries no area label.
const DefaultArea = "lingkungan"

// Fixed scripts of the scripted test kinds.
const (
	scriptGeneric = "Perhatian. Ini adalah uji coba sistem peringatan darurat warga. " +
		"Tidak ada keadaan darurat. Terima kasih."
	scriptMorning = "Selamat pagi warga. Ini adalah pengumuman keamanan pagi. " +
		"Mohon periksa kembali kunci rumah dan kendaraan sebelum beraktivitas. Terima kasih."
	scriptEvening = "Selamat malam warga. Ini adalah pengumuman keamanan malam. " +
		"Mohon pastikan pintu dan pagar rumah sudah terkunci sebelum beristirahat. Terima kasih."
)

// unspeakable matches characters stripped from spoken names.
var unspeakable = regexp.MustCompile(`[^\p{L}\p{N} ]`)

// Narration composes the text spoken for a record.
// It returns an empty string for records that do not drive an audible cycle.
func Narration(r *Record) string {
	if r == nil {
		return ""
	}

	switch r.Status {
	case StatusActive:
		return emergencyNarration(r)
	case StatusTest:
		return Script(r.TestKind, r.AnnouncementText)
	default:
		return ""
	}
}

// Script returns the narration of a TEST record of the given kind.
// The announcement text is used verbatim for free announcements only.
func Script(kind TestKind, announcement string) string {
	switch kind {
	case TestKindScheduledMorning:
		return scriptMorning
	case TestKindScheduledEvening:
		return scriptEvening
	case TestKindFreeAnnouncement:
		return announcement
	default:
		return scriptGeneric
	}
}

// emergencyNarration fills the fixed emergency template.
func emergencyNarration(r *Record) string {
	area := speakable(r.ReporterArea)
	if area == "" {
		area = DefaultArea
	}

	var b strings.Builder

	b.WriteString("Perhatian perhatian. Saat ini warga ")
	b.WriteString(area)
	b.WriteString(" atas nama ")
	b.WriteString(speakable(r.ReporterName))
	b.WriteString(" memerlukan bantuan")

	if incident := speakable(r.IncidentType); incident != "" {
		b.WriteString(" karena ")
		b.WriteString(incident)
	}

	b.WriteString(". Mohon para warga segera menuju ke lokasi. Terima kasih.")

	return b.String()
}

// speakable replaces punctuation with spaces and collapses whitespace.
func speakable(s string) string {
	return strings.Join(strings.Fields(unspeakable.ReplaceAllString(s, " ")), " ")
}
