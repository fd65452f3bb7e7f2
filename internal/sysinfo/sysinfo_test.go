package sysinfo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeProc(t *testing.T, dir, stat string) {
	t.Helper()
	files := map[string]string{
		"stat":    stat,
		"meminfo": "MemTotal:        1000000 kB\nMemFree:          200000 kB\nMemAvailable:     250000 kB\n",
		"loadavg": "0.42 0.30 0.25 1/123 4567\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestSampler_Sample(t *testing.T) {
	proc := t.TempDir()
	// user nice system idle iowait irq softirq steal guest guest_nice
	writeProc(t, proc, "cpu  100 0 100 800 0 0 0 0 0 0\nbtime 1700000000\n")

	s, err := NewSampler(proc, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !near(snap.CPUPercent, 20) {
		t.Errorf("first CPU sample = %v, want 20 (since boot)", snap.CPUPercent)
	}
	if !near(snap.RAMPercent, 75) {
		t.Errorf("RAM = %v, want 75", snap.RAMPercent)
	}
	if !near(snap.Load1, 0.42) {
		t.Errorf("Load1 = %v, want 0.42", snap.Load1)
	}
	if snap.DiskPercent < 0 || snap.DiskPercent > 100 {
		t.Errorf("Disk = %v, out of range", snap.DiskPercent)
	}

	// Next interval: 50 busy, 50 idle
	writeProc(t, proc, "cpu  150 0 100 850 0 0 0 0 0 0\nbtime 1700000000\n")
	snap, err = s.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if !near(snap.CPUPercent, 50) {
		t.Errorf("delta CPU sample = %v, want 50", snap.CPUPercent)
	}
}

func TestSampler_MissingFilesReturnPartialSnapshot(t *testing.T) {
	proc := t.TempDir()
	if err := os.WriteFile(filepath.Join(proc, "loadavg"), []byte("1.50 1.00 0.50 1/1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewSampler(proc, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Sample()
	if err == nil {
		t.Error("expected error for missing stat/meminfo")
	}
	if !near(snap.Load1, 1.5) {
		t.Errorf("Load1 = %v, want 1.5", snap.Load1)
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[float64]float64{-3: 0, 42: 42, 130: 100} {
		if got := clamp(in); got != want {
			t.Errorf("clamp(%v) = %v, want %v", in, got, want)
		}
	}
}
