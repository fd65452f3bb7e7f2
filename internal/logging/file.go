package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/pinpanel/internal/metrics"
)

// DateLayout names daily log files.
const DateLayout = "2006-01-02"

// DailyFile is the log sink bound to one file per calendar date.
//
// Every write carries the entry's own timestamp and lands in that date's file.
// The active handle is swapped under mu: the new file is opened before the old
// one is closed, so no writer sees a half-closed handle.
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	date string
	f    *os.File
}

// DailyFileOption configures a DailyFile.
type DailyFileOption func(*DailyFile)

// WithClock overrides the clock used by BindToToday.
func WithClock(now func() time.Time) DailyFileOption {
	return func(d *DailyFile) { d.now = now }
}

// NewDailyFile creates an unbound sink writing <dir>/YYYY-MM-DD.log.
func NewDailyFile(dir string, opts ...DailyFileOption) *DailyFile {
	d := &DailyFile{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dir returns the log directory.
func (d *DailyFile) Dir() string {
	return d.dir
}

// BindToToday binds the sink to the current date. No-op when already bound to it.
func (d *DailyFile) BindToToday() error {
	return d.Bind(d.now())
}

// Bind binds the sink to the date of t. No-op when already bound to it.
func (d *DailyFile) Bind(t time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bindLocked(t.Format(DateLayout))
}

func (d *DailyFile) bindLocked(date string) error {
	if d.f != nil && d.date == date {
		return nil
	}

	next, err := d.open(date)
	if err != nil {
		return err
	}

	prev := d.f
	rotated := d.date != ""
	d.f, d.date = next, date
	if prev != nil {
		if closeErr := prev.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "close previous log file: %v\n", closeErr)
		}
	}
	if rotated {
		metrics.RecordRotation()
	}
	return nil
}

func (d *DailyFile) open(date string) (*os.File, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(d.pathFor(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// WriteLine appends line to the file for the date of t.
// A later date rebinds the sink. A straggler from an earlier date is appended
// to its own file without disturbing the binding.
func (d *DailyFile) WriteLine(t time.Time, line string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	date := t.Format(DateLayout)
	if d.f != nil && date < d.date {
		f, err := d.open(date)
		if err != nil {
			return err
		}
		_, err = io.WriteString(f, line+"\n")
		return errors.Join(err, f.Close())
	}

	if err := d.bindLocked(date); err != nil {
		return err
	}
	_, err := io.WriteString(d.f, line+"\n")
	return err
}

// Date returns the bound date, or "" when unbound.
func (d *DailyFile) Date() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.date
}

// Path returns the bound file path, or "" when unbound.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.date == "" {
		return ""
	}
	return d.pathFor(d.date)
}

func (d *DailyFile) pathFor(date string) string {
	return filepath.Join(d.dir, date+".log")
}

// Close closes the active file. Later writes reopen it.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f, d.date = nil, ""
	return err
}

// ListLogDates returns the dates that have a log file in dir, newest first.
func ListLogDates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".log")
		if e.IsDir() || !ok {
			continue
		}
		if _, parseErr := time.Parse(DateLayout, name); parseErr != nil {
			continue
		}
		dates = append(dates, name)
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	return dates, nil
}

// LogPathForDate returns the log file for an ISO date.
func LogPathForDate(dir, date string) (string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid log date %q: %w", date, err)
	}
	return filepath.Join(dir, date+".log"), nil
}
