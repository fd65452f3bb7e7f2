// Package gpio abstracts digital I/O lines across boards.
// The real backend drives the Linux GPIO character device; the mock backend keeps
// levels in memory so the panel runs unchanged on machines without GPIO hardware.
package gpio

import (
	"fmt"
	"strings"
)

// Mode is the direction a pin is configured for.
type Mode string

const (
	ModeOutput Mode = "output"
	ModeInput  Mode = "input"
)

// ParseMode coerces a user supplied mode string.
// Only "input" and "in" select input; everything else, including "", is output.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input", "in":
		return ModeInput
	default:
		return ModeOutput
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeOutput || m == ModeInput
}

// Backend controls physical lines.
// Values are 0 (low) or 1 (high).
type Backend interface {
	// Configure prepares a pin. Outputs are driven to initial as a side effect;
	// inputs are left floating and initial is ignored.
	Configure(pin int, mode Mode, initial int) error

	// Write drives an output pin.
	Write(pin int, value int) error

	// Read returns the instantaneous level of a pin.
	Read(pin int) (int, error)

	// Release returns the pin to an unconfigured state and frees its resources.
	Release(pin int) error

	// Name identifies the backend in logs and the API.
	Name() string

	// Close releases every pin still held.
	Close() error
}

// HardwareFault is returned by backends when the underlying I/O fails.
type HardwareFault struct {
	Op  string
	Pin int
	Err error
}

func (e *HardwareFault) Error() string {
	return fmt.Sprintf("gpio %s pin %d: %v", e.Op, e.Pin, e.Err)
}

func (e *HardwareFault) Unwrap() error {
	return e.Err
}

func fault(op string, pin int, err error) error {
	return &HardwareFault{Op: op, Pin: pin, Err: err}
}

func normalize(value int) int {
	if value != 0 {
		return 1
	}
	return 0
}
