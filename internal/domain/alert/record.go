package alert

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the alert condition carried by a Record.
type Status string

const (
	// StatusInactive means no alert is in progress.
	StatusInactive Status = "INACTIVE"
	// StatusActive is a live emergency.
	StatusActive Status = "ACTIVE"
	// StatusTest is a drill, a scheduled reminder or a free-text announcement.
	StatusTest Status = "TEST"
)

// TestKind sub-classifies a TEST record.
type TestKind string

const (
	// TestKindNone is used by every non-TEST record.
	TestKindNone TestKind = ""
	// TestKindGeneric is a generic system drill.
	TestKindGeneric TestKind = "GENERIC"
	// TestKindScheduledMorning is the morning security reminder.
	TestKindScheduledMorning TestKind = "SCHEDULED_MORNING"
	// TestKindScheduledEvening is the evening (night patrol) security reminder.
	TestKindScheduledEvening TestKind = "SCHEDULED_EVENING"
	// TestKindFreeAnnouncement speaks an operator-provided text verbatim.
	TestKindFreeAnnouncement TestKind = "FREE_ANNOUNCEMENT"
)

const (
	// maxRepeatsScheduled is the narration count of scheduled reminders and announcements.
	maxRepeatsScheduled = 2
	// maxRepeatsGeneric is the narration count of a generic drill.
	maxRepeatsGeneric = 3
)

// Reporter labels written into TEST records instead of a person name.
const (
	labelGenericTest      = "UJI COBA SISTEM"
	labelMorningReminder  = "PENGUMUMAN KEAMANAN PAGI"
	labelEveningReminder  = "PENGUMUMAN KEAMANAN MALAM"
	labelFreeAnnouncement = "PENGUMUMAN WARGA"
)

var (
	// ErrReporterRequired is returned when an ACTIVE record has no reporter name.
	ErrReporterRequired = errors.New("reporter name is required")
	// ErrTestKindRequired is returned when a TEST record has no test kind.
	ErrTestKindRequired = errors.New("test kind is required")
	// ErrAnnouncementText is returned when announcement text and test kind disagree.
	ErrAnnouncementText = errors.New("announcement text must be present only for free announcements")
	// ErrUnknownStatus is returned for a status outside the enum.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrUnknownTestKind is returned for a test kind outside the enum.
	ErrUnknownTestKind = errors.New("unknown test kind")
	// ErrTriggeredAtRequired is returned when an alerting record carries no trigger time.
	ErrTriggeredAtRequired = errors.New("trigger time is required")
)

// Location is a best-effort device position attached to an emergency.
type Location struct {
	// Latitude in decimal degrees.
	Latitude float64
	// Longitude in decimal degrees.
	Longitude float64
	// AccuracyMeters is the reported accuracy radius, nil when unknown.
	AccuracyMeters *float64
}

// Clone returns a deep copy of the location.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}

	cloned := *l

	if l.AccuracyMeters != nil {
		accuracy := *l.AccuracyMeters
		cloned.AccuracyMeters = &accuracy
	}

	return &cloned
}

// Equal reports whether both locations describe the same position.
func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}

	if l.Latitude != other.Latitude || l.Longitude != other.Longitude {
		return false
	}

	if l.AccuracyMeters == nil || other.AccuracyMeters == nil {
		return l.AccuracyMeters == other.AccuracyMeters
	}

	return *l.AccuracyMeters == *other.AccuracyMeters
}

// Record is the single shared alert condition. It is only ever replaced as a whole.
type Record struct {
	// Status is the alert condition.
	Status Status
	// ReporterName is the resident (or test label) that produced the record.
	ReporterName string
	// ReporterArea is an optional administrative subdivision label, e.g. "RT 03".
	ReporterArea string
	// TriggeredAt is set by the producer at write time. It is only used to compute
	// elapsed time for auto-resolve, never to order records.
	TriggeredAt time.Time
	// Location is the optional reporter position.
	Location *Location
	// IncidentType is an optional emergency category, meaningful for ACTIVE only.
	IncidentType string
	// IncidentNote is an optional free-text description, meaningful for ACTIVE only.
	IncidentNote string
	// TestKind sub-classifies TEST records.
	TestKind TestKind
	// AnnouncementText is present iff TestKind is TestKindFreeAnnouncement.
	AnnouncementText string
}

// Inactive returns the fail-safe record every invalid payload collapses to.
func Inactive() *Record {
	return &Record{Status: StatusInactive}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Location = r.Location.Clone()

	return &cloned
}

// IsAlerting reports whether the record drives an audible cycle.
func (r *Record) IsAlerting() bool {
	return r != nil && (r.Status == StatusActive || r.Status == StatusTest)
}

// Equal reports whether both records carry the same content.
// Re-deliveries of an equal record must not restart an alert cycle.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}

	return r.Status == other.Status &&
		r.ReporterName == other.ReporterName &&
		r.ReporterArea == other.ReporterArea &&
		r.TriggeredAt.Equal(other.TriggeredAt) &&
		r.Location.Equal(other.Location) &&
		r.IncidentType == other.IncidentType &&
		r.IncidentNote == other.IncidentNote &&
		r.TestKind == other.TestKind &&
		r.AnnouncementText == other.AnnouncementText
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	switch r.Status {
	case StatusInactive:
		return nil
	case StatusActive, StatusTest:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}

	if r.TriggeredAt.UnixMilli() <= 0 {
		return ErrTriggeredAtRequired
	}

	switch r.Status {
	case StatusActive:
		if strings.TrimSpace(r.ReporterName) == "" {
			return ErrReporterRequired
		}

		if r.TestKind != TestKindNone || r.AnnouncementText != "" {
			return ErrAnnouncementText
		}

		return nil
	default:
		return r.validateTest()
	}
}

// validateTest checks the invariants specific to TEST records.
func (r *Record) validateTest() error {
	switch r.TestKind {
	case TestKindNone:
		return ErrTestKindRequired
	case TestKindGeneric, TestKindScheduledMorning, TestKindScheduledEvening:
		if r.AnnouncementText != "" {
			return ErrAnnouncementText
		}
	case TestKindFreeAnnouncement:
		if strings.TrimSpace(r.AnnouncementText) == "" {
			return ErrAnnouncementText
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTestKind, r.TestKind)
	}

	if strings.TrimSpace(r.ReporterName) == "" {
		return ErrReporterRequired
	}

	return nil
}

// MaxRepeats returns how many narrations a TEST cycle of the given kind performs.
func MaxRepeats(kind TestKind) int {
	switch kind {
	case TestKindScheduledMorning, TestKindScheduledEvening, TestKindFreeAnnouncement:
		return maxRepeatsScheduled
	default:
		return maxRepeatsGeneric
	}
}

// Emergency holds the producer input of a live emergency.
type Emergency struct {
	// Name is the reporter name.
	Name string
	// Area is the optional administrative subdivision.
	Area string
	// Location is the optional reporter position.
	Location *Location
	// IncidentType is the optional emergency category.
	IncidentType string
	// Note is the optional free-text description.
	Note string
}

// NewEmergency builds an ACTIVE record.
func NewEmergency(now time.Time, e Emergency) (*Record, error) {
	record := &Record{
		Status:       StatusActive,
		ReporterName: strings.TrimSpace(e.Name),
		ReporterArea: strings.TrimSpace(e.Area),
		TriggeredAt:  now.Truncate(time.Millisecond),
		Location:     e.Location.Clone(),
		IncidentType: strings.TrimSpace(e.IncidentType),
		IncidentNote: strings.TrimSpace(e.Note),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// NewTest builds a TEST record for a scripted kind.
func NewTest(now time.Time, kind TestKind) (*Record, error) {
	var label string

	switch kind {
	case TestKindGeneric:
		label = labelGenericTest
	case TestKindScheduledMorning:
		label = labelMorningReminder
	case TestKindScheduledEvening:
		label = labelEveningReminder
	case TestKindFreeAnnouncement:
		return nil, fmt.Errorf("%w: use NewAnnouncement", ErrAnnouncementText)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTestKind, kind)
	}

	return &Record{
		Status:       StatusTest,
		ReporterName: label,
		TriggeredAt:  now.Truncate(time.Millisecond),
		TestKind:     kind,
	}, nil
}

// NewAnnouncement builds a TEST record that speaks text verbatim.
func NewAnnouncement(now time.Time, text string) (*Record, error) {
	record := &Record{
		Status:           StatusTest,
		ReporterName:     labelFreeAnnouncement,
		TriggeredAt:      now.Truncate(time.Millisecond),
		TestKind:         TestKindFreeAnnouncement,
		AnnouncementText: strings.TrimSpace(text),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// NewResolved builds the INACTIVE record that replaces any alert.
func NewResolved(now time.Time) *Record {
	return &Record{
		Status:      StatusInactive,
		TriggeredAt: now.Truncate(time.Millisecond),
	}
}

// ParseTestKind converts user input into a scripted TestKind.
// Both domain names and wire names are accepted, case-insensitively.
func ParseTestKind(s string) (TestKind, error) {
	value := strings.ToUpper(strings.TrimSpace(s))

	if kind, ok := wireTestKinds[value]; ok {
		return kind, nil
	}

	switch kind := TestKind(value); kind {
	case TestKindGeneric, TestKindScheduledMorning, TestKindScheduledEvening, TestKindFreeAnnouncement:
		return kind, nil
	case TestKindNone:
		return TestKindGeneric, nil
	default:
		return TestKindNone, fmt.Errorf("%w: %q", ErrUnknownTestKind, s)
	}
}
