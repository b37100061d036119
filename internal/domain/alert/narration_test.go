package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNarration_Emergency verifies the emergency template carries the reporter details.
func TestNarration_Emergency(t *testing.T) {
	t.Parallel()

	r, err := NewEmergency(time.Now(), Emergency{Name: "Budi", Area: "RT 03", IncidentType: "kebakaran"})
	require.NoError(t, err)

	text := Narration(r)
	require.Contains(t, text, "Budi")
	require.Contains(t, text, "RT 03")
	require.Contains(t, text, "karena kebakaran")
	require.Contains(t, text, "Perhatian perhatian.")
}

// TestNarration_SanitizesName ensures punctuation never reaches the speech engine.
func TestNarration_SanitizesName(t *testing.T) {
	t.Parallel()

	r := &Record{Status: StatusActive, ReporterName: "Budi <Santoso>; drop"}

	text := Narration(r)
	require.Contains(t, text, "atas nama Budi Santoso drop memerlukan")
	require.Contains(t, text, "warga "+DefaultArea+" atas nama")
}

// TestNarration_Tests checks the per-kind scripts and the verbatim announcement.
func TestNarration_Tests(t *testing.T) {
	t.Parallel()

	morning, err := NewTest(time.Now(), TestKindScheduledMorning)
	require.NoError(t, err)
	require.Contains(t, Narration(morning), "pagi")

	evening, err := NewTest(time.Now(), TestKindScheduledEvening)
	require.NoError(t, err)
	require.Contains(t, Narration(evening), "malam")

	generic, err := NewTest(time.Now(), TestKindGeneric)
	require.NoError(t, err)
	require.Contains(t, Narration(generic), "uji coba")

	announcement, err := NewAnnouncement(time.Now(), "Kerja bakti Minggu pagi")
	require.NoError(t, err)
	require.Equal(t, "Kerja bakti Minggu pagi", Narration(announcement))

	require.Empty(t, Narration(Inactive()))
	require.Empty(t, Narration(nil))
}
