// Package sysinfo samples host CPU, memory, disk and load for the status endpoint.
package sysinfo

import (
	"fmt"
	"sync"

	"github.com/prometheus/procfs"
)

// Snapshot is one resource sample. Percentages are 0-100.
type Snapshot struct {
	CPUPercent  float64
	RAMPercent  float64
	DiskPercent float64
	Load1       float64
}

// Sampler reads /proc and the filesystem holding diskPath.
// CPU usage is computed against the previous sample.
type Sampler struct {
	fs       procfs.FS
	diskPath string

	mu        sync.Mutex
	prevBusy  float64
	prevTotal float64
}

// NewSampler creates a sampler. procPath is normally procfs.DefaultMountPoint.
func NewSampler(procPath, diskPath string) (*Sampler, error) {
	fs, err := procfs.NewFS(procPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}
	return &Sampler{fs: fs, diskPath: diskPath}, nil
}

// Sample reads every metric. A metric that cannot be read is reported as 0
// and the first error is returned alongside the partial snapshot.
func (s *Sampler) Sample() (Snapshot, error) {
	var snap Snapshot
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if cpu, err := s.cpuPercent(); err != nil {
		keep(err)
	} else {
		snap.CPUPercent = cpu
	}

	if ram, err := s.ramPercent(); err != nil {
		keep(err)
	} else {
		snap.RAMPercent = ram
	}

	if disk, err := diskPercent(s.diskPath); err != nil {
		keep(err)
	} else {
		snap.DiskPercent = disk
	}

	if load, err := s.fs.LoadAvg(); err != nil {
		keep(fmt.Errorf("read loadavg: %w", err))
	} else {
		snap.Load1 = load.Load1
	}

	return snap, firstErr
}

func (s *Sampler) cpuPercent() (float64, error) {
	stat, err := s.fs.Stat()
	if err != nil {
		return 0, fmt.Errorf("read stat: %w", err)
	}
	c := stat.CPUTotal
	idle := c.Idle + c.Iowait
	busy := c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	total := busy + idle

	s.mu.Lock()
	defer s.mu.Unlock()
	dBusy, dTotal := busy-s.prevBusy, total-s.prevTotal
	s.prevBusy, s.prevTotal = busy, total

	if dTotal <= 0 {
		return 0, nil
	}
	return clamp(dBusy / dTotal * 100), nil
}

func (s *Sampler) ramPercent() (float64, error) {
	mem, err := s.fs.Meminfo()
	if err != nil {
		return 0, fmt.Errorf("read meminfo: %w", err)
	}
	if mem.MemTotal == nil || *mem.MemTotal == 0 {
		return 0, fmt.Errorf("meminfo: MemTotal missing")
	}
	total := float64(*mem.MemTotal)

	var available float64
	switch {
	case mem.MemAvailable != nil:
		available = float64(*mem.MemAvailable)
	case mem.MemFree != nil:
		// Kernels before 3.14 have no MemAvailable
		available = float64(*mem.MemFree)
	}
	return clamp((total - available) / total * 100), nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
