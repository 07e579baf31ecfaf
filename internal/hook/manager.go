package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/aronvision/internal/pipeline"
)

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager discovers hooks and selects the ones a transition fires.
type Manager struct {
	dir   string
	hooks map[string]*Hook
	mu    sync.RWMutex
}

// NewManager creates a Manager for the given hooks directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		hooks: make(map[string]*Hook),
	}
}

// Discover scans the hooks directory for hook.json manifests and replaces
// the known hooks with what it finds. A missing directory yields no hooks.
// Unreadable or invalid manifests are skipped and reported in the returned
// error; valid hooks are loaded regardless.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("hooks path %s is not a directory", m.dir)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		hookPath := filepath.Join(m.dir, entry.Name())
		h, err := load(hookPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("hook %s: %w", entry.Name(), err))
			continue
		}
		m.hooks[h.Manifest.Name] = h
	}
	return errors.Join(errs...)
}

func load(hookPath string) (*Hook, error) {
	data, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}

	return &Hook{
		Manifest:   manifest,
		Path:       hookPath,
		Executable: filepath.Join(hookPath, manifest.Executable),
	}, nil
}

// Get returns a hook by name.
// Returns ErrHookNotFound if the hook does not exist.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns every discovered hook sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].Manifest.Name < hooks[j].Manifest.Name })
	return hooks
}

// Match returns one binding per hook trigger fired by tr, ordered by hook
// name and then by trigger order in the manifest.
func (m *Manager) Match(tr pipeline.Transition) []Binding {
	var out []Binding
	for _, h := range m.List() {
		for _, t := range h.Manifest.Triggers {
			if t.Matches(tr) {
				out = append(out, Binding{Hook: h, Trigger: t})
			}
		}
	}
	return out
}

// Dir returns the hooks directory path.
func (m *Manager) Dir() string {
	return m.dir
}
