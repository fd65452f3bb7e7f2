package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestDailyFile_BindIsNoOpForSameDate(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyFile(dir)
	defer d.Close()

	if err := d.Bind(at("2025-01-27 08:00:00")); err != nil {
		t.Fatal(err)
	}
	first := d.f
	if err := d.Bind(at("2025-01-27 23:00:00")); err != nil {
		t.Fatal(err)
	}
	if d.f != first {
		t.Error("same-date Bind replaced the file handle")
	}
	if d.Path() != filepath.Join(dir, "2025-01-27.log") {
		t.Errorf("unexpected path %s", d.Path())
	}
}

func TestDailyFile_RotatesAcrossMidnight(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyFile(dir)
	defer d.Close()

	h := NewFileHandler(d, slog.LevelInfo)
	logger := slog.New(h).With("module", "gpio")

	emit := func(ts time.Time, msg string) {
		r := slog.NewRecord(ts, slog.LevelInfo, msg, 0)
		if err := logger.Handler().Handle(context.Background(), r); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	emit(at("2025-01-27 23:59:59"), "before midnight")
	emit(at("2025-01-28 00:00:01"), "after midnight")

	before := readLines(t, filepath.Join(dir, "2025-01-27.log"))
	after := readLines(t, filepath.Join(dir, "2025-01-28.log"))

	if len(before) != 1 || !strings.HasSuffix(before[0], "INFO gpio: before midnight") {
		t.Errorf("2025-01-27.log = %q", before)
	}
	if !strings.HasPrefix(before[0], "2025-01-27 23:59:59,000 ") {
		t.Errorf("unexpected timestamp in %q", before[0])
	}
	if len(after) != 1 || !strings.HasSuffix(after[0], "INFO gpio: after midnight") {
		t.Errorf("2025-01-28.log = %q", after)
	}
	if d.Date() != "2025-01-28" {
		t.Errorf("bound date = %s, want 2025-01-28", d.Date())
	}
}

func TestDailyFile_StragglerGoesToItsOwnDate(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyFile(dir)
	defer d.Close()

	if err := d.WriteLine(at("2025-01-28 00:00:01"), "new day"); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteLine(at("2025-01-27 23:59:59"), "late"); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteLine(at("2025-01-28 00:00:02"), "new day again"); err != nil {
		t.Fatal(err)
	}

	if got := readLines(t, filepath.Join(dir, "2025-01-27.log")); !reflect.DeepEqual(got, []string{"late"}) {
		t.Errorf("2025-01-27.log = %q", got)
	}
	if got := readLines(t, filepath.Join(dir, "2025-01-28.log")); !reflect.DeepEqual(got, []string{"new day", "new day again"}) {
		t.Errorf("2025-01-28.log = %q", got)
	}
	if d.Date() != "2025-01-28" {
		t.Errorf("straggler moved the binding to %s", d.Date())
	}
}

func TestDailyFile_ConcurrentWritesDuringRotation(t *testing.T) {
	dir := t.TempDir()
	now := at("2025-01-27 23:59:59")
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	d := NewDailyFile(dir, WithClock(clock))
	defer d.Close()

	if err := d.BindToToday(); err != nil {
		t.Fatal(err)
	}

	const writers = 8
	const perWriter = 100
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				ts := at("2025-01-27 23:59:59")
				if i >= perWriter/2 {
					ts = at("2025-01-28 00:00:01")
				}
				if err := d.WriteLine(ts, ts.Format(DateLayout)); err != nil {
					t.Errorf("writer %d: %v", w, err)
				}
			}
		}()
	}

	clockMu.Lock()
	now = at("2025-01-28 00:00:00")
	clockMu.Unlock()
	if err := d.BindToToday(); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	for _, date := range []string{"2025-01-27", "2025-01-28"} {
		lines := readLines(t, filepath.Join(dir, date+".log"))
		if len(lines) != writers*perWriter/2 {
			t.Errorf("%s: %d lines, want %d", date, len(lines), writers*perWriter/2)
		}
		for _, l := range lines {
			if l != date {
				t.Fatalf("%s contains entry for %s", date, l)
			}
		}
	}
}

func TestDailyFile_CloseThenWriteReopens(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyFile(dir)

	if err := d.WriteLine(at("2025-01-27 10:00:00"), "one"); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if d.Path() != "" {
		t.Errorf("closed file still reports path %s", d.Path())
	}
	if err := d.WriteLine(at("2025-01-27 10:00:01"), "two"); err != nil {
		t.Fatal(err)
	}
	d.Close()

	got := readLines(t, filepath.Join(dir, "2025-01-27.log"))
	if !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("lines = %q", got)
	}
}

func TestListLogDates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2025-01-26.log", "2025-01-28.log", "2025-01-27.log", "README", "bad.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := ListLogDates(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-01-28", "2025-01-27", "2025-01-26"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("ListLogDates = %v, want %v", dates, want)
	}

	empty, err := ListLogDates(filepath.Join(dir, "missing"))
	if err != nil || len(empty) != 0 {
		t.Errorf("missing dir: %v, %v", empty, err)
	}
}

func TestLogPathForDate(t *testing.T) {
	path, err := LogPathForDate("/var/log/pinpanel", "2025-01-27")
	if err != nil || path != filepath.Join("/var/log/pinpanel", "2025-01-27.log") {
		t.Errorf("LogPathForDate = %s, %v", path, err)
	}
	if _, err := LogPathForDate("/var/log/pinpanel", "../secrets"); err == nil {
		t.Error("expected error for non-date input")
	}
}

func TestRotator_StartBindsAndStopCloses(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyFile(dir, WithClock(func() time.Time { return at("2025-01-27 12:00:00") }))

	r, err := NewRotator(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	if d.Date() != "2025-01-27" {
		t.Errorf("Start bound %q, want 2025-01-27", d.Date())
	}
	if len(r.cron.Entries()) != 1 {
		t.Errorf("expected one scheduled job, got %d", len(r.cron.Entries()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if d.Date() != "" {
		t.Error("Stop should close the file")
	}
}

func TestRotator_RotateRebinds(t *testing.T) {
	dir := t.TempDir()
	now := at("2025-01-27 23:59:59")
	d := NewDailyFile(dir, WithClock(func() time.Time { return now }))
	defer d.Close()

	r, err := NewRotator(d, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.BindToToday(); err != nil {
		t.Fatal(err)
	}

	now = at("2025-01-28 00:00:00")
	r.rotate()

	if d.Date() != "2025-01-28" {
		t.Errorf("rotate bound %q, want 2025-01-28", d.Date())
	}
	if _, err := os.Stat(filepath.Join(dir, "2025-01-28.log")); err != nil {
		t.Errorf("new day file not created: %v", err)
	}
}
