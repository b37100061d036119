package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
	"github.com/oshokin/alert-broadcast/internal/logger"
	"github.com/oshokin/alert-broadcast/internal/repository/history"
	"github.com/oshokin/alert-broadcast/internal/service/phase"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// pongWait is how long a silent peer is kept.
	pongWait = 60 * time.Second
	// pingPeriod must stay below pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize limits client messages, which are ignored anyway.
	maxMessageSize = 512
	// sendBuffer is the per-client event backlog.
	sendBuffer = 16
)

// Snapshot returns the current phase event.
type Snapshot func(ctx context.Context) (phase.Event, bool)

// Feed publishes phase events to websocket clients and serves the
// current phase and the alert history over HTTP.
type Feed struct {
	// current returns the phase a new client starts with.
	current Snapshot
	// history serves /api/history, nil when disabled.
	history history.Repository
	// upgrader upgrades /ws requests.
	upgrader websocket.Upgrader

	// mu protects clients.
	mu sync.Mutex
	// clients are the connected websocket peers.
	clients map[*feedClient]struct{}
}

// feedClient is a connected websocket peer.
type feedClient struct {
	// conn is the websocket connection.
	conn *websocket.Conn
	// send queues events for the writer.
	send chan phase.Event
}

// historyEntry is the JSON shape of a history row.
type historyEntry struct {
	ID         string          `json:"id"`
	RecordedAt time.Time       `json:"recordedAt"`
	Record     json.RawMessage `json:"record"`
}

// NewFeed creates a feed. history may be nil.
func NewFeed(current Snapshot, hist history.Repository) *Feed {
	return &Feed{
		current: current,
		history: hist,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// Publish queues the event for every client. Slow clients miss events instead of blocking.
func (f *Feed) Publish(event phase.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for client := range f.clients {
		select {
		case client.send <- event:
		default:
		}
	}
}

// Clients returns the number of connected websocket peers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.clients)
}

// Router returns the HTTP handler of the feed.
func (f *Feed) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ws", f.serveWebSocket)
	router.HandleFunc("/api/phase", f.servePhase).Methods(http.MethodGet)
	router.HandleFunc("/api/history", f.serveHistory).Methods(http.MethodGet)

	return router
}

// servePhase writes the current phase event.
func (f *Feed) servePhase(w http.ResponseWriter, r *http.Request) {
	event, ok := f.current(r.Context())
	if !ok {
		http.Error(w, "phase unavailable", http.StatusServiceUnavailable)

		return
	}

	writeJSON(r.Context(), w, event)
}

// serveHistory writes the newest history entries.
func (f *Feed) serveHistory(w http.ResponseWriter, r *http.Request) {
	if f.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)

		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = history.DefaultListLimit
	}

	entries, err := f.history.List(r.Context(), limit)
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to list alert history", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)

		return
	}

	rows := make([]historyEntry, 0, len(entries))

	for _, entry := range entries {
		data, err := alert.Marshal(entry.Record)
		if err != nil {
			logger.WarnKV(r.Context(), "Skipping history entry", "id", entry.ID, "error", err)

			continue
		}

		rows = append(rows, historyEntry{
			ID:         entry.ID,
			RecordedAt: entry.RecordedAt,
			Record:     data,
		})
	}

	writeJSON(r.Context(), w, rows)
}

// serveWebSocket streams phase events to one peer, starting with the current phase.
func (f *Feed) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "feed")

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(ctx, "WebSocket upgrade failed", "error", err)

		return
	}

	client := &feedClient{
		conn: conn,
		send: make(chan phase.Event, sendBuffer),
	}

	if event, ok := f.current(ctx); ok {
		client.send <- event
	}

	f.register(client)

	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Go(func() {
		f.write(ctx, client, done)
	})

	f.read(ctx, client)

	f.unregister(client)
	close(done)
	wg.Wait()

	//nolint:errcheck // Connection is gone anyway.
	conn.Close()
}

// read discards peer messages until the connection fails.
func (f *Feed) read(ctx context.Context, client *feedClient) {
	conn := client.conn

	conn.SetReadLimit(maxMessageSize)

	//nolint:errcheck // A failed deadline surfaces as a read error.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.DebugKV(ctx, "WebSocket closed", "error", err)
			}

			return
		}
	}
}

// write sends queued events and pings until done.
func (f *Feed) write(ctx context.Context, client *feedClient, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	conn := client.conn

	for {
		select {
		case <-done:
			//nolint:errcheck // Best effort close frame.
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))

			return
		case event := <-client.send:
			//nolint:errcheck // A failed deadline surfaces as a write error.
			conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteJSON(event); err != nil {
				logger.DebugKV(ctx, "WebSocket write failed", "error", err)

				//nolint:errcheck // Unblocks the reader.
				conn.Close()

				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				//nolint:errcheck // Unblocks the reader.
				conn.Close()

				return
			}
		}
	}
}

// register adds a client.
func (f *Feed) register(client *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clients[client] = struct{}{}
}

// unregister removes a client.
func (f *Feed) unregister(client *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.clients, client)
}

// writeJSON writes v as a JSON response.
func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.DebugKV(ctx, "Failed to write response", "error", err)
	}
}
