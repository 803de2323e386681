// Package sink implements destinations for finished resource artifacts.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

import (
	"github.com/louist103/OTRExporter/resource"
)

// A Memory keeps every registered artifact in memory.
type Memory struct {
	mu        sync.Mutex
	artifacts map[string][]byte
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string][]byte)}
}

// Register stores a copy of data under path.
func (m *Memory) Register(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artifacts[path]; ok {
		return fmt.Errorf("%s: %w", path, resource.ErrDuplicatePath)
	}
	m.artifacts[path] = append([]byte(nil), data...)
	return nil
}

// Get returns the artifact registered under path.
func (m *Memory) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.artifacts[path]
	return data, ok
}

// Paths returns the paths of every registered artifact, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.artifacts))
	for p := range m.artifacts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered artifacts.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.artifacts)
}

// A Dir writes every artifact to a file below a root directory. Artifact
// paths are slash-separated and are converted to the host's separator.
// Files left by an earlier export are overwritten; a path registered twice
// through the same Dir is a duplicate.
type Dir struct {
	Root string

	mu         sync.Mutex
	registered map[string]bool
}

// NewDir returns a Dir writing below root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// claim marks path as registered, failing if it already was.
func (d *Dir) claim(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registered == nil {
		d.registered = make(map[string]bool)
	}
	if d.registered[path] {
		return fmt.Errorf("%s: %w", path, resource.ErrDuplicatePath)
	}
	d.registered[path] = true
	return nil
}

// Register writes data to the file for path.
func (d *Dir) Register(path string, data []byte) error {
	if err := d.claim(path); err != nil {
		return err
	}
	name := filepath.Join(d.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0644)
}
