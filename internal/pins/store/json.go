package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/smazurov/pinpanel/internal/pins"
)

const (
	configFile  = "cfg.json"
	snapshotDir = "cfg"
	dateLayout  = "2006-01-02"
)

// jsonStore implements pins.Store with a JSON file under the data directory.
type jsonStore struct {
	dataDir  string
	logger   *slog.Logger
	now      func() time.Time
	renameFn func(oldpath, newpath string) error
}

// Option configures the JSON store.
type Option func(*jsonStore)

// WithClock overrides the clock used to date snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *jsonStore) { s.now = now }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *jsonStore) { s.logger = logger }
}

// NewJSON creates a store rooted at dataDir.
// The live document is <dataDir>/cfg.json and snapshots live in <dataDir>/cfg/.
func NewJSON(dataDir string, opts ...Option) pins.Store {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &jsonStore{
		dataDir:  dataDir,
		logger:   slog.Default(),
		now:      time.Now,
		renameFn: os.Rename,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *jsonStore) path() string {
	return filepath.Join(s.dataDir, configFile)
}

// SnapshotPath returns the snapshot file for an ISO date.
func (s *jsonStore) SnapshotPath(date string) string {
	return filepath.Join(s.dataDir, snapshotDir, date+".json")
}

// Initialize writes the defaults when no config exists.
// The defaults are staged in a temp file and hard-linked into place, so
// concurrent callers never observe a partial file and only the first link wins.
func (s *jsonStore) Initialize() (string, error) {
	target := s.path()
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := marshal(pins.DefaultConfig())
	if err != nil {
		return "", err
	}

	tmp, err := writeTemp(s.dataDir, data)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	if linkErr := os.Link(tmp, target); linkErr != nil {
		if errors.Is(linkErr, os.ErrExist) {
			return target, nil
		}
		return "", fmt.Errorf("failed to install default config: %w", linkErr)
	}
	s.syncDir(s.dataDir)
	s.logger.Info("Wrote default config", "path", target)
	return target, nil
}

// Load reads and validates the live document.
func (s *jsonStore) Load() (*pins.Config, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil, pins.NewPinError(pins.ErrCodeConfigError, "failed to read config", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, pins.NewPinError(pins.ErrCodeConfigCorrupt, fmt.Sprintf("config %s is invalid", s.path()), err)
	}
	return cfg, nil
}

// Save atomically replaces the live document.
// Temp file in the same directory, fsync, rename, then fsync the directory.
// The dated snapshot is best-effort.
func (s *jsonStore) Save(cfg *pins.Config) error {
	data, err := marshal(cfg)
	if err != nil {
		return err
	}

	if mkErr := os.MkdirAll(s.dataDir, 0o755); mkErr != nil {
		return fmt.Errorf("failed to create data directory: %w", mkErr)
	}

	tmp, err := writeTemp(s.dataDir, data)
	if err != nil {
		return err
	}

	if renameErr := s.renameFn(tmp, s.path()); renameErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", renameErr)
	}
	s.syncDir(s.dataDir)

	if snapErr := s.writeSnapshot(data); snapErr != nil {
		s.logger.Warn("Failed to write config snapshot", "error", snapErr)
	}
	return nil
}

func (s *jsonStore) writeSnapshot(data []byte) error {
	dir := filepath.Join(s.dataDir, snapshotDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := writeTemp(dir, data)
	if err != nil {
		return err
	}
	if err := s.renameFn(tmp, s.SnapshotPath(s.now().Format(dateLayout))); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ListSnapshots returns snapshot dates, newest first.
func (s *jsonStore) ListSnapshots(excludeToday bool) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, snapshotDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	today := s.now().Format(dateLayout)
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		if _, parseErr := time.Parse(dateLayout, name); parseErr != nil {
			continue
		}
		if excludeToday && name == today {
			continue
		}
		dates = append(dates, name)
	}
	// ISO dates sort lexically
	slices.Sort(dates)
	slices.Reverse(dates)
	return dates, nil
}

// ResolveSnapshot returns the snapshot file for date.
// Today falls back to the live document when no snapshot has been written yet.
func (s *jsonStore) ResolveSnapshot(date string) (string, error) {
	iso, err := ParseDate(date)
	if err != nil {
		return "", pins.NewPinError(pins.ErrCodeInvalidParams, err.Error(), nil)
	}

	path := s.SnapshotPath(iso)
	if _, statErr := os.Stat(path); statErr == nil {
		return path, nil
	}
	if iso == s.now().Format(dateLayout) {
		if _, statErr := os.Stat(s.path()); statErr == nil {
			return s.path(), nil
		}
	}
	return "", pins.NewPinError(pins.ErrCodeNotFound, fmt.Sprintf("no snapshot for %s", iso), os.ErrNotExist)
}

// requiredKeys must appear at the top level of the document.
var requiredKeys = []string{"network", "gpio"}

func parse(data []byte) (*pins.Config, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	if top == nil {
		return nil, errors.New("document is not an object")
	}
	for _, key := range requiredKeys {
		if _, ok := top[key]; !ok {
			return nil, fmt.Errorf("missing %q", key)
		}
	}

	var cfg pins.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func marshal(cfg *pins.Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// writeTemp writes data to a synced temp file in dir and returns its path.
func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".cfg-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return name, nil
}

// syncDir makes a rename durable. Not every filesystem supports it, so failures
// are only logged.
func (s *jsonStore) syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		s.logger.Debug("Directory sync skipped", "dir", dir, "error", err)
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		s.logger.Debug("Directory sync failed", "dir", dir, "error", err)
	}
}
