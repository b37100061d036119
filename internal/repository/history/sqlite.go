package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // Registers the sqlite3 driver.

	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// DefaultListLimit is used by List when the limit is not positive.
const DefaultListLimit = 50

// Entry is a single history row.
type Entry struct {
	// ID is the generated entry id.
	ID string
	// RecordedAt is when the monitor observed the record.
	RecordedAt time.Time
	// Record is the observed record.
	Record *alert.Record
}

// Repository defines the history operations the monitor depends on.
type Repository interface {
	Append(ctx context.Context, record *alert.Record) (string, error)
	List(ctx context.Context, limit int) ([]*Entry, error)
}

// SQLiteRepository stores history entries in a SQLite database.
type SQLiteRepository struct {
	// db is the open database handle.
	db *sql.DB
	// now returns the current time, replaceable in tests.
	now func() time.Time
}

// Open opens (or creates) the history database at the given path.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared between calls.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{
		db:  db,
		now: time.Now,
	}

	if err = repo.initialize(ctx); err != nil {
		//nolint:errcheck // Initialization error is more important.
		db.Close()

		return nil, err
	}

	return repo, nil
}

// initialize creates the necessary tables if they don't exist.
func (r *SQLiteRepository) initialize(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alert_history (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			reporter TEXT NOT NULL,
			payload TEXT NOT NULL,
			recorded_at INTEGER NOT NULL,
			seq INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_alert_history_order ON alert_history(recorded_at, seq);
	`)
	if err != nil {
		return fmt.Errorf("initialize history database: %w", err)
	}

	return nil
}

// Append stores the record and returns the generated entry id.
func (r *SQLiteRepository) Append(ctx context.Context, record *alert.Record) (string, error) {
	payload, err := alert.Marshal(record)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alert_history (id, status, reporter, payload, recorded_at, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM alert_history))`,
		id,
		string(record.Status),
		record.ReporterName,
		string(payload),
		r.now().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("append history entry: %w", err)
	}

	return id, nil
}

// List returns up to limit entries, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, payload, recorded_at
		FROM alert_history
		ORDER BY recorded_at DESC, seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	//nolint:errcheck // Read-only cursor.
	defer rows.Close()

	var entries []*Entry

	for rows.Next() {
		var (
			entry      Entry
			payload    string
			recordedAt int64
		)

		if err = rows.Scan(&entry.ID, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		// Rows were validated on the way in, a failed decode still yields INACTIVE.
		entry.Record, _ = alert.Decode([]byte(payload))
		entry.RecordedAt = time.UnixMilli(recordedAt)

		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
