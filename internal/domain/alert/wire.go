package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Wire status spellings, including the legacy Indonesian ones.
const (
	wireStatusActive         = "ACTIVE"
	wireStatusInactive       = "INACTIVE"
	wireStatusTest           = "TEST"
	wireStatusLegacyActive   = "AKTIF"
	wireStatusLegacyInactive = "NONAKTIF"
)

// Wire test kinds.
const (
	wireTestGeneral      = "GENERAL"
	wireTestNightPatrol  = "NIGHT_PATROL"
	wireTestMorningAlert = "MORNING_ALERT"
	wireTestCustom       = "CUSTOM_ANNOUNCEMENT"
)

//nolint:gochecknoglobals // Read-only lookup table.
var wireTestKinds = map[string]TestKind{
	wireTestGeneral:      TestKindGeneric,
	wireTestNightPatrol:  TestKindScheduledEvening,
	wireTestMorningAlert: TestKindScheduledMorning,
	wireTestCustom:       TestKindFreeAnnouncement,
}

// errEmptyPayload is returned when there is nothing to decode.
var errEmptyPayload = errors.New("empty payload")

// wireLocation is the JSON shape of a location.
type wireLocation struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// wireRecord is the JSON shape stored under the well-known record path.
type wireRecord struct {
	Status               string        `json:"status"`
	Nama                 string        `json:"nama"`
	RT                   string        `json:"rt,omitempty"`
	Waktu                float64       `json:"waktu"`
	Lokasi               *wireLocation `json:"lokasi,omitempty"`
	EmergencyType        string        `json:"emergencyType,omitempty"`
	EmergencyDescription string        `json:"emergencyDescription,omitempty"`
	TestType             string        `json:"testType,omitempty"`
	CustomMessage        string        `json:"customMessage,omitempty"`
}

// Marshal encodes the record into its wire JSON shape.
func Marshal(r *Record) ([]byte, error) {
	if r == nil {
		r = Inactive()
	}

	data, err := json.Marshal(toWire(r))
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	return data, nil
}

// Decode parses a wire payload. It never fails open: on any error the returned
// record is INACTIVE and the error explains why the payload was rejected.
func Decode(data []byte) (*Record, error) {
	if len(data) == 0 || string(data) == "null" {
		return Inactive(), errEmptyPayload
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Inactive(), fmt.Errorf("unmarshal record: %w", err)
	}

	record, err := fromWire(&w)
	if err != nil {
		return Inactive(), err
	}

	if err = record.Validate(); err != nil {
		return Inactive(), fmt.Errorf("invalid record: %w", err)
	}

	return record, nil
}

// ToStruct converts the record into a google.protobuf.Struct with the wire shape.
func ToStruct(r *Record) (*structpb.Struct, error) {
	data, err := Marshal(r)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal record fields: %w", err)
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build record struct: %w", err)
	}

	return st, nil
}

// FromStruct decodes a google.protobuf.Struct with the same guarantees as Decode.
func FromStruct(st *structpb.Struct) (*Record, error) {
	if st == nil {
		return Inactive(), errEmptyPayload
	}

	data, err := json.Marshal(st.AsMap())
	if err != nil {
		return Inactive(), fmt.Errorf("marshal record fields: %w", err)
	}

	return Decode(data)
}

// toWire converts a domain record to its wire shape.
func toWire(r *Record) *wireRecord {
	w := &wireRecord{
		Status:               string(r.Status),
		Nama:                 r.ReporterName,
		RT:                   r.ReporterArea,
		EmergencyType:        r.IncidentType,
		EmergencyDescription: r.IncidentNote,
		CustomMessage:        r.AnnouncementText,
	}

	if !r.TriggeredAt.IsZero() {
		w.Waktu = float64(r.TriggeredAt.UnixMilli())
	}

	if r.Location != nil {
		w.Lokasi = &wireLocation{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Accuracy:  r.Location.Clone().AccuracyMeters,
		}
	}

	for name, kind := range wireTestKinds {
		if kind == r.TestKind {
			w.TestType = name
		}
	}

	return w
}

// fromWire converts the wire shape into a domain record without validating invariants.
func fromWire(w *wireRecord) (*Record, error) {
	status, err := parseWireStatus(w.Status)
	if err != nil {
		return nil, err
	}

	if math.IsNaN(w.Waktu) || math.IsInf(w.Waktu, 0) {
		return nil, fmt.Errorf("invalid waktu: %v", w.Waktu)
	}

	r := &Record{Status: status}

	if w.Waktu > 0 {
		r.TriggeredAt = time.UnixMilli(int64(w.Waktu))
	}

	if status == StatusInactive {
		return r, nil
	}

	r.ReporterName = strings.TrimSpace(w.Nama)
	r.ReporterArea = strings.TrimSpace(w.RT)

	if w.Lokasi != nil {
		r.Location = &Location{
			Latitude:       w.Lokasi.Latitude,
			Longitude:      w.Lokasi.Longitude,
			AccuracyMeters: w.Lokasi.Accuracy,
		}
	}

	if status == StatusActive {
		r.IncidentType = strings.TrimSpace(w.EmergencyType)
		r.IncidentNote = strings.TrimSpace(w.EmergencyDescription)

		return r, nil
	}

	if w.TestType != "" {
		kind, ok := wireTestKinds[w.TestType]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTestKind, w.TestType)
		}

		r.TestKind = kind
	}

	r.AnnouncementText = strings.TrimSpace(w.CustomMessage)

	return r, nil
}

// parseWireStatus maps a wire status to the domain enum.
func parseWireStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case wireStatusActive, wireStatusLegacyActive:
		return StatusActive, nil
	case wireStatusInactive, wireStatusLegacyInactive:
		return StatusInactive, nil
	case wireStatusTest:
		return StatusTest, nil
	default:
		return StatusInactive, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}
