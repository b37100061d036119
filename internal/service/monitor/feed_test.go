package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/repository/history"
	"github.com/oshokin/alert-broadcast/internal/service/phase"
)

// readTimeout bounds websocket reads in tests.
const readTimeout = 5 * time.Second

// idleSnapshot reports an idle scheduler.
func idleSnapshot(context.Context) (phase.Event, bool) {
	return phase.Event{Phase: phase.PhaseIdle, Status: alert.StatusInactive}, true
}

// readEvent reads the next event from the connection.
func readEvent(t *testing.T, conn *websocket.Conn) phase.Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var event phase.Event

	require.NoError(t, conn.ReadJSON(&event))

	return event
}

// TestFeed_WebSocket verifies peers start with the current phase and receive published events.
func TestFeed_WebSocket(t *testing.T) {
	t.Parallel()

	feed := NewFeed(idleSnapshot, nil)

	srv := httptest.NewServer(feed.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(t.Context(), url, nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	t.Cleanup(func() {
		//nolint:errcheck // Test teardown.
		conn.Close()
	})

	require.Equal(t, phase.PhaseIdle, readEvent(t, conn).Phase)
	require.Equal(t, 1, feed.Clients())

	feed.Publish(phase.Event{
		Phase:        phase.PhaseSiren,
		Status:       alert.StatusActive,
		ReporterName: "Budi",
	})

	event := readEvent(t, conn)
	require.Equal(t, phase.PhaseSiren, event.Phase)
	require.Equal(t, "Budi", event.ReporterName)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		return feed.Clients() == 0
	}, readTimeout, 10*time.Millisecond)
}

// TestFeed_API verifies the phase and history endpoints.
func TestFeed_API(t *testing.T) {
	t.Parallel()

	repo, err := history.Open(t.Context(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	budi := emergency(t, "Budi")

	_, err = repo.Append(t.Context(), budi)
	require.NoError(t, err)

	srv := httptest.NewServer(NewFeed(idleSnapshot, repo).Router())
	t.Cleanup(srv.Close)

	var event phase.Event

	get(t, srv.URL+"/api/phase", http.StatusOK, &event)
	require.Equal(t, phase.PhaseIdle, event.Phase)

	var rows []historyEntry

	get(t, srv.URL+"/api/history?limit=10", http.StatusOK, &rows)
	require.Len(t, rows, 1)
	require.NotEmpty(t, rows[0].ID)

	got, err := alert.Decode(rows[0].Record)
	require.NoError(t, err)
	require.True(t, budi.Equal(got))

	disabled := httptest.NewServer(NewFeed(idleSnapshot, nil).Router())
	t.Cleanup(disabled.Close)

	get(t, disabled.URL+"/api/history", http.StatusNotFound, nil)
}

// get performs a GET request and decodes the JSON body into v when set.
func get(t *testing.T, url string, status int, v any) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // Test helper.

	require.Equal(t, status, resp.StatusCode)

	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
}
