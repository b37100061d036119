package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLocationClone verifies that Clone returns a deep copy and handles nil safely.
func TestLocationClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Location)(nil).Clone())

	accuracy := 12.5
	l := &Location{
		Latitude:       -7.8166,
		Longitude:      112.0114,
		AccuracyMeters: &accuracy,
	}

	c := l.Clone()

	require.Equal(t, l, c)
	require.NotSame(t, l, c)
	require.NotSame(t, l.AccuracyMeters, c.AccuracyMeters)
}

// TestRecordCloneAndEqual verifies that cloned records compare equal and share no pointers.
func TestRecordCloneAndEqual(t *testing.T) {
	t.Parallel()

	r, err := NewEmergency(time.Now(), Emergency{
		Name:     "Budi",
		Area:     "RT 03",
		Location: &Location{Latitude: 1, Longitude: 2},
	})
	require.NoError(t, err)

	c := r.Clone()
	require.True(t, r.Equal(c))
	require.NotSame(t, r.Location, c.Location)

	c.ReporterArea = "RT 04"
	require.False(t, r.Equal(c))

	require.True(t, (*Record)(nil).Equal(nil))
	require.False(t, r.Equal(nil))
}

// TestRecordValidate covers the record invariants.
func TestRecordValidate(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1_700_000_000_000)

	cases := map[string]struct {
		record  Record
		wantErr error
	}{
		"inactive": {
			record: Record{Status: StatusInactive},
		},
		"active without reporter": {
			record:  Record{Status: StatusActive, TriggeredAt: at},
			wantErr: ErrReporterRequired,
		},
		"active": {
			record: Record{Status: StatusActive, ReporterName: "Budi", TriggeredAt: at},
		},
		"test without kind": {
			record:  Record{Status: StatusTest, ReporterName: "UJI COBA SISTEM", TriggeredAt: at},
			wantErr: ErrTestKindRequired,
		},
		"announcement without text": {
			record:  Record{
				Status:       StatusTest,
				ReporterName: "x",
				TriggeredAt:  at,
				TestKind:     TestKindFreeAnnouncement,
			},
			wantErr: ErrAnnouncementText,
		},
		"generic with text": {
			record: Record{
				Status:           StatusTest,
				ReporterName:     "x",
				TriggeredAt:      at,
				TestKind:         TestKindGeneric,
				AnnouncementText: "oops",
			},
			wantErr: ErrAnnouncementText,
		},
		"active without trigger time": {
			record:  Record{Status: StatusActive, ReporterName: "Budi"},
			wantErr: ErrTriggeredAtRequired,
		},
		"test before the epoch": {
			record: Record{
				Status:       StatusTest,
				ReporterName: "UJI COBA SISTEM",
				TriggeredAt:  time.UnixMilli(-5),
				TestKind:     TestKindGeneric,
			},
			wantErr: ErrTriggeredAtRequired,
		},
		"unknown status": {
			record:  Record{Status: "PANIC"},
			wantErr: ErrUnknownStatus,
		},
		"unknown kind": {
			record:  Record{Status: StatusTest, ReporterName: "x", TriggeredAt: at, TestKind: "WEEKLY"},
			wantErr: ErrUnknownTestKind,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.record.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// TestMaxRepeats checks the narration count per test kind.
func TestMaxRepeats(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, MaxRepeats(TestKindGeneric))
	require.Equal(t, 2, MaxRepeats(TestKindScheduledMorning))
	require.Equal(t, 2, MaxRepeats(TestKindScheduledEvening))
	require.Equal(t, 2, MaxRepeats(TestKindFreeAnnouncement))
}

// TestConstructors verifies that producer constructors build valid whole records.
func TestConstructors(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_123).Add(456 * time.Microsecond)

	emergency, err := NewEmergency(now, Emergency{Name: "  Budi ", Area: "RT 03"})
	require.NoError(t, err)
	require.Equal(t, StatusActive, emergency.Status)
	require.Equal(t, "Budi", emergency.ReporterName)
	require.Equal(t, int64(1_700_000_000_123), emergency.TriggeredAt.UnixMilli())

	_, err = NewEmergency(now, Emergency{Name: " "})
	require.ErrorIs(t, err, ErrReporterRequired)

	test, err := NewTest(now, TestKindScheduledEvening)
	require.NoError(t, err)
	require.NoError(t, test.Validate())
	require.Equal(t, "PENGUMUMAN KEAMANAN MALAM", test.ReporterName)

	_, err = NewTest(now, TestKindFreeAnnouncement)
	require.ErrorIs(t, err, ErrAnnouncementText)

	announcement, err := NewAnnouncement(now, "Kerja bakti Minggu pagi")
	require.NoError(t, err)
	require.Equal(t, TestKindFreeAnnouncement, announcement.TestKind)
	require.Equal(t, "Kerja bakti Minggu pagi", announcement.AnnouncementText)

	_, err = NewAnnouncement(now, "   ")
	require.Error(t, err)

	resolved := NewResolved(now)
	require.Equal(t, StatusInactive, resolved.Status)
	require.False(t, resolved.IsAlerting())
}

// TestParseTestKind checks domain and wire spellings.
func TestParseTestKind(t *testing.T) {
	t.Parallel()

	cases := map[string]TestKind{
		"":                  TestKindGeneric,
		"generic":           TestKindGeneric,
		"GENERAL":           TestKindGeneric,
		"morning_alert":     TestKindScheduledMorning,
		"NIGHT_PATROL":      TestKindScheduledEvening,
		"scheduled_evening": TestKindScheduledEvening,
	}
	for s, want := range cases {
		got, err := ParseTestKind(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}

	_, err := ParseTestKind("weekly")
	require.ErrorIs(t, err, ErrUnknownTestKind)
}
