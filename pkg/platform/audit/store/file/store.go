// Package file persists audit events as newline-delimited JSON, one event per
// line, appended to a single file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	audit "opsgate/pkg/platform/audit"
)

// Store appends events to path. The directory is created on first write.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file the store appends to.
func (s *Store) Path() string {
	return s.path
}

// Append writes event as one JSON line. Lines are written with a single
// write call under the store lock so concurrent appends never interleave.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("append event: %w", err)
	}
	return f.Close()
}
