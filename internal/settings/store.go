package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Hook observes a settings snapshot. Before-change hooks see the value that
// is about to be replaced, after-change hooks see the committed value.
type Hook func(Settings)

// Store holds the in-memory settings of one vault and persists them as YAML.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Settings
	nextID  int
	before  map[Key]map[int]Hook
	after   map[Key]map[int]Hook

	saveMu  sync.Mutex
	pending sync.WaitGroup
}

// DefaultPath returns ~/.config/vaulttray/<vault>.settings.yaml.
func DefaultPath(vault string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "vaulttray", vault+".settings.yaml"), nil
}

// Open loads settings from path. A missing file yields the defaults; keys
// not present in the file keep their default value.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := NewStore(Defaults(), logger)
	s.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	current, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	s.current = current
	return s, nil
}

func decode(path string, data []byte) (Settings, error) {
	current := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&current); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	if current.QuickNoteDateFormat == "" {
		current.QuickNoteDateFormat = DefaultDateFormat
	}
	return current, nil
}

// NewStore creates a store that keeps settings in memory only.
func NewStore(initial Settings, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:  logger,
		current: initial,
		before:  make(map[Key]map[int]Hook),
		after:   make(map[Key]map[int]Hook),
	}
}

// Path returns the backing file, or "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the committed settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnBeforeChange registers a hook that runs before key is committed. The
// returned function removes the hook.
func (s *Store) OnBeforeChange(key Key, hook Hook) func() {
	return s.subscribe(s.before, key, hook)
}

// OnChange registers a hook that runs after key is committed.
func (s *Store) OnChange(key Key, hook Hook) func() {
	return s.subscribe(s.after, key, hook)
}

func (s *Store) subscribe(hooks map[Key]map[int]Hook, key Key, hook Hook) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if hooks[key] == nil {
		hooks[key] = make(map[int]Hook)
	}
	hooks[key][id] = hook
	return func() {
		s.mu.Lock()
		delete(hooks[key], id)
		s.mu.Unlock()
	}
}

func (s *Store) hooksFor(hooks map[Key]map[int]Hook, key Key) []Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(hooks[key]))
	for id := range hooks[key] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Hook, 0, len(ids))
	for _, id := range ids {
		out = append(out, hooks[key][id])
	}
	return out
}

// Set parses raw for key, runs before-change hooks, commits the value,
// schedules a save and runs after-change hooks. The save is not awaited.
func (s *Store) Set(key Key, raw string) error {
	opt, err := Lookup(key)
	if err != nil {
		return err
	}
	value, err := opt.Parse(raw)
	if err != nil {
		return err
	}

	for _, hook := range s.hooksFor(s.before, key) {
		hook(s.Snapshot())
	}

	s.mu.Lock()
	if err := s.current.set(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	committed := s.current
	s.mu.Unlock()

	s.saveAsync()

	for _, hook := range s.hooksFor(s.after, key) {
		hook(committed)
	}
	return nil
}

func (s *Store) saveAsync() {
	if s.path == "" {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Save(); err != nil {
			s.logger.Error("failed to save settings", "path", s.path, "error", err)
		}
	}()
}

// Save writes the latest committed settings to disk.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.Snapshot()
	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// Flush waits for scheduled saves to finish.
func (s *Store) Flush() {
	s.pending.Wait()
}
