package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alert-broadcast/internal/config"
	"github.com/oshokin/alert-broadcast/internal/domain/alert"
)

// Repository defines persistence operations for the alert record.
type Repository interface {
	Load(ctx context.Context) (*alert.Record, error)
	Save(ctx context.Context, record *alert.Record) error
}

// FileRepository persists the alert record to a JSON file on disk.
// The file holds the wire shape of the record encoded as a google.protobuf.Struct,
// so it matches what gRPC clients receive.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("record not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the record from disk.
func (r *FileRepository) Load(_ context.Context) (*alert.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st structpb.Struct
	if err = protojson.Unmarshal(contents, &st); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	record, err := alert.FromStruct(&st)
	if err != nil {
		return nil, fmt.Errorf("decode state record: %w", err)
	}

	return record, nil
}

// Save writes the record to disk using JSON representation.
func (r *FileRepository) Save(_ context.Context, record *alert.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := alert.ToStruct(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
