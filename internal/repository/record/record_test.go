package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// waitTimeout bounds how long tests wait for a pushed record.
const waitTimeout = 5 * time.Second

// collect returns a handler pushing every record into a buffered channel.
func collect() (Handler, <-chan *alert.Record) {
	records := make(chan *alert.Record, 16)

	return func(record *alert.Record) {
		records <- record
	}, records
}

// next waits for the next pushed record.
func next(t *testing.T, records <-chan *alert.Record) *alert.Record {
	t.Helper()

	select {
	case record := <-records:
		return record
	case <-time.After(waitTimeout):
		t.Fatal("no record delivered")

		return nil
	}
}

// emergency builds a valid ACTIVE record.
func emergency(t *testing.T, name string) *alert.Record {
	t.Helper()

	record, err := alert.NewEmergency(time.UnixMilli(1_700_000_000_000), alert.Emergency{
		Name: name,
		Area: "RT 03",
	})
	require.NoError(t, err)

	return record
}
