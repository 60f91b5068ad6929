package meetings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/houzhh15/meetbot/pkg/metrics"
)

// Store persists the meeting collection as one unit.
type Store interface {
	// LoadAll returns the persisted collection. On a read or parse fault it
	// returns an empty collection together with the error.
	LoadAll(ctx context.Context) ([]Meeting, error)
	// SaveAll replaces the persisted collection wholesale.
	SaveAll(ctx context.Context, ms []Meeting) error
	// Update runs fn between a load and a save with no other writer in between.
	// When fn returns an error nothing is written.
	Update(ctx context.Context, fn func([]Meeting) ([]Meeting, error)) error
}

// FileStore keeps meetings in a pretty-printed JSON file.
type FileStore struct {
	fs   afero.Fs
	path string
	log  *slog.Logger

	mu sync.Mutex
}

// NewFileStore creates a store backed by path on fs.
func NewFileStore(fs afero.Fs, path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{fs: fs, path: filepath.Clean(path), log: log.With("component", "meeting-store")}
}

// Path returns the file the store writes to.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) LoadAll(ctx context.Context) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) SaveAll(ctx context.Context, ms []Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, ms)
}

func (s *FileStore) Update(ctx context.Context, fn func([]Meeting) ([]Meeting, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.save(ctx, next)
}

func (s *FileStore) load(ctx context.Context) ([]Meeting, error) {
	if err := ctx.Err(); err != nil {
		return []Meeting{}, err
	}

	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// first run: create the empty collection
			if err := s.save(ctx, []Meeting{}); err != nil {
				return []Meeting{}, err
			}
			return []Meeting{}, nil
		}
		metrics.RecordStoreError("load")
		s.log.Error("failed to read meetings", "path", s.path, "error", err)
		return []Meeting{}, fmt.Errorf("read meetings file: %w", err)
	}

	var ms []Meeting
	if err := json.Unmarshal(b, &ms); err != nil {
		metrics.RecordStoreError("load")
		s.log.Error("failed to parse meetings", "path", s.path, "error", err)
		return []Meeting{}, fmt.Errorf("unmarshal meetings: %w", err)
	}
	if ms == nil {
		ms = []Meeting{}
	}
	return ms, nil
}

func (s *FileStore) save(ctx context.Context, ms []Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ms == nil {
		ms = []Meeting{}
	}

	b, err := json.MarshalIndent(ms, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meetings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			metrics.RecordStoreError("save")
			s.log.Error("failed to create meetings dir", "dir", dir, "error", err)
			return fmt.Errorf("create meetings dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		metrics.RecordStoreError("save")
		s.log.Error("failed to save meetings", "path", tmp, "error", err)
		return fmt.Errorf("write tmp file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		metrics.RecordStoreError("save")
		s.log.Error("failed to save meetings", "path", s.path, "error", err)
		return fmt.Errorf("rename tmp file: %w", err)
	}

	s.log.Debug("meetings saved", "count", len(ms))
	return nil
}
