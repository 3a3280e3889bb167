package generator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// FSStore writes artifacts below a root directory on the local filesystem.
type FSStore struct {
	root string
}

var (
	_ interfaces.ArtifactStore  = (*FSStore)(nil)
	_ interfaces.ArtifactReader = (*FSStore)(nil)
)

// NewFSStore returns a store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: filepath.Clean(dir)}
}

// Root returns the directory artifacts are written to.
func (s *FSStore) Root() string {
	return s.root
}

// EnsureDir creates dir and its parents.
func (s *FSStore) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.abs(dir)
	return os.MkdirAll(target, 0o755)
}

// Write stores artifact.Content at artifact.Path, creating parent
// directories. The file is replaced atomically.
func (s *FSStore) Write(ctx context.Context, artifact interfaces.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if artifact.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	target := s.abs(artifact.Path)
	if target == s.root {
		return errors.New("generator: write requires path")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+filepath.Base(target)+"-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, artifact.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Remove deletes path and anything below it. Missing paths are ignored.
func (s *FSStore) Remove(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.abs(rel)
	if target == s.root {
		return errors.New("generator: refusing to remove the output root")
	}
	err := os.RemoveAll(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Read returns the bytes stored at rel. Missing files report fs.ErrNotExist.
func (s *FSStore) Read(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := s.abs(rel)
	return os.ReadFile(target)
}

// abs resolves rel below the root. Cleaning against "/" drops any leading
// "..", so results never escape the root.
func (s *FSStore) abs(rel string) string {
	cleaned := path.Clean("/" + filepath.ToSlash(strings.TrimSpace(rel)))
	if cleaned == "/" {
		return s.root
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
}

// MemoryStore keeps artifacts in memory. Builds that should not touch disk
// and tests use it.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
	types map[string]string
}

var (
	_ interfaces.ArtifactStore  = (*MemoryStore)(nil)
	_ interfaces.ArtifactReader = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: map[string][]byte{},
		types: map[string]string{},
	}
}

func (m *MemoryStore) EnsureDir(context.Context, string) error { return nil }

func (m *MemoryStore) Write(ctx context.Context, artifact interfaces.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if artifact.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	data, err := io.ReadAll(artifact.Content)
	if err != nil {
		return err
	}
	key := cleanKey(artifact.Path)
	m.mu.Lock()
	m.files[key] = data
	m.types[key] = artifact.ContentType
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, rel string) error {
	prefix := cleanKey(rel)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.files {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(m.files, key)
			delete(m.types, key)
		}
	}
	return nil
}

func (m *MemoryStore) Read(_ context.Context, rel string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[cleanKey(rel)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return bytes.Clone(data), nil
}

// Paths lists stored paths in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for key := range m.files {
		paths = append(paths, key)
	}
	sort.Strings(paths)
	return paths
}

// ContentType returns the content type recorded for rel.
func (m *MemoryStore) ContentType(rel string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[cleanKey(rel)]
}

func cleanKey(rel string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(strings.TrimSpace(rel))), "/")
}
