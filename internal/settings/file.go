package settings

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/util"
)

// DefaultSaveDelay is how long a FileStorage waits after a change before
// writing the file.
const DefaultSaveDelay = 5 * time.Second

// FileStorage is a Storage backed by a flat YAML document on an afero
// filesystem. Changes are held in memory and written after a save delay,
// so a burst of StoreValue calls results in a single write.
type FileStorage struct {
	fs        afero.Fs
	path      string
	saveDelay time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	values map[string]any
	dirty  bool
	timer  *time.Timer
	closed bool
	saves  int
}

// Option configures a FileStorage.
type Option func(*FileStorage)

// WithSaveDelay sets the delay between a change and the file write.
// A delay of zero writes synchronously on every change.
func WithSaveDelay(d time.Duration) Option {
	return func(s *FileStorage) {
		s.saveDelay = d
	}
}

// WithLogger sets the logger used for background save failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStorage) {
		s.logger = logger
	}
}

// Open loads the settings file at path. A missing file yields an empty
// storage; the file is created on the first save.
func Open(fs afero.Fs, path string, opts ...Option) (*FileStorage, error) {
	s := &FileStorage{
		fs:        fs,
		path:      path,
		saveDelay: DefaultSaveDelay,
		values:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithComponent("settings")
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat settings file: %w", err)
	}
	if !exists {
		return s, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}

	return s, nil
}

// Path returns the settings file path.
func (s *FileStorage) Path() string {
	return s.path
}

// LoadValue implements Storage.
func (s *FileStorage) LoadValue(key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// StoreValue implements Storage. Storing a value equal to the current one
// does not schedule a save. Values stored after Close are dropped.
func (s *FileStorage) StoreValue(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("dropping settings write after close", "key", key)
		return
	}
	if old, ok := s.values[key]; ok && sameValue(old, value) {
		return
	}

	s.values[key] = value
	s.dirty = true

	if s.saveDelay <= 0 {
		if err := s.saveLocked(); err != nil {
			s.logger.Error("failed to save settings", "path", s.path, "error", err)
		}
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.saveDelay, s.saveFromTimer)
	}
}

func (s *FileStorage) saveFromTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer = nil
	if s.closed {
		return
	}
	if err := s.saveLocked(); err != nil {
		s.logger.Error("failed to save settings", "path", s.path, "error", err)
	}
}

// Save writes pending changes immediately.
func (s *FileStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return util.ErrClosed
	}
	return s.saveLocked()
}

// saveLocked writes the document through a temporary file so a crash
// never leaves a truncated settings file behind.
func (s *FileStorage) saveLocked() error {
	if !s.dirty {
		return nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil { //nolint:gosec // G301: settings directory
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// 0600: the document holds the proxy password.
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.dirty = false
	s.saves++
	return nil
}

// Saves returns how many times the file has been written.
func (s *FileStorage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close flushes pending changes and stops the save timer. Further calls
// are no-ops.
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	err := s.saveLocked()
	s.closed = true
	return err
}
