// Package artifact provides the run-scoped artifact store: named bundles
// of files published by one job instance and fetched by later consumers in
// the same run. The store lives on local disk for the duration of a run
// and is torn down with it.
//
// Publish is atomic from a consumer's viewpoint: files are staged into a
// private directory and moved into place under a per-name exclusive
// section, so a reader never observes a partially written artifact.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/fsutil"
)

// ErrNotFound is returned by Fetch for a name that was never published.
var ErrNotFound = errors.New("artifact not found")

// Handle describes one published artifact.
type Handle struct {
	Name      string    `json:"name"`
	Producer  string    `json:"producer"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the process-wide artifact store for one run.
type Store struct {
	root string

	mu      sync.Mutex
	entries map[string]*Handle
	locks   map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact store root: %w", err)
	}
	return &Store{
		root:    dir,
		entries: make(map[string]*Handle),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Publish stores the given files under name. An empty file set is an
// error: a silent empty artifact would hide a broken producing step.
// Re-publishing an existing name overwrites it; the scheduler's static
// provenance check ensures only ordered writers ever share a name.
func (s *Store) Publish(ctx context.Context, name, producer string, files []string) (*Handle, error) {
	logger := ctxlog.FromContext(ctx)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to publish for artifact %q", name)
	}

	// Stage into a private directory first so the rename below is the only
	// moment of visibility.
	staging := filepath.Join(s.root, ".staging", uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("staging artifact %q: %w", name, err)
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		if _, dup := seen[base]; dup {
			return nil, fmt.Errorf("artifact %q: duplicate file name %q", name, base)
		}
		seen[base] = struct{}{}
		if err := fsutil.CopyFile(f, filepath.Join(staging, base)); err != nil {
			return nil, fmt.Errorf("staging artifact %q: %w", name, err)
		}
		names = append(names, base)
	}

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	final := filepath.Join(s.root, name)
	if err := os.RemoveAll(final); err != nil {
		return nil, fmt.Errorf("replacing artifact %q: %w", name, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return nil, fmt.Errorf("committing artifact %q: %w", name, err)
	}

	handle := &Handle{
		Name:      name,
		Producer:  producer,
		Files:     names,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.entries[name] = handle
	s.mu.Unlock()

	logger.Info("📦 Artifact published.", "artifact", name, "files", len(names), "producer", producer)
	return handle, nil
}

// Fetch copies the named artifact's files into destDir and returns their
// paths. A name that was never published yields ErrNotFound.
func (s *Store) Fetch(ctx context.Context, name, destDir string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	lock := s.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	handle, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("artifact %q: %w", name, ErrNotFound)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("fetching artifact %q: %w", name, err)
	}

	paths := make([]string, 0, len(handle.Files))
	for _, base := range handle.Files {
		src := filepath.Join(s.root, name, base)
		dst := filepath.Join(destDir, base)
		if err := fsutil.CopyFile(src, dst); err != nil {
			return nil, fmt.Errorf("fetching artifact %q: %w", name, err)
		}
		paths = append(paths, dst)
	}

	logger.Info("📥 Artifact fetched.", "artifact", name, "files", len(paths))
	return paths, nil
}

// Handles returns the published artifacts, for the run report.
func (s *Store) Handles() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, 0, len(s.entries))
	for _, h := range s.entries {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close tears the store down. Published files are removed; handles remain
// readable in any report already built.
func (s *Store) Close() error {
	return os.RemoveAll(s.root)
}

func (s *Store) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func validateName(name string) error {
	if name == "" {
		return errors.New("artifact name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." || strings.HasPrefix(name, ".staging") {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
