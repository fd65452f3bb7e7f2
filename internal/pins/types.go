// Package pins owns the pin configuration: the in-memory model, its durable
// store, and the manager that serializes every read and write to the lines.
package pins

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/gpio"
)

// PinRecord is one configured pin.
// Value is the last commanded level for outputs and the last observed level for inputs.
type PinRecord struct {
	Pin   int       `json:"pin"`
	Name  string    `json:"name"`
	Mode  gpio.Mode `json:"mode"`
	Value int       `json:"value"`
}

// ToModel converts the record to its API shape.
func (r PinRecord) ToModel() models.PinData {
	return models.PinData{
		Pin:   r.Pin,
		Name:  r.Name,
		Mode:  string(r.Mode),
		Value: r.Value,
	}
}

// Config is the persisted document.
// Network is passed through untouched.
type Config struct {
	Network json.RawMessage `json:"network"`
	GPIO    []PinRecord     `json:"gpio"`
}

const defaultNetwork = `{"interface":"wlan0","mode":"dhcp","address":null,"gateway":null}`

// DefaultConfig returns the configuration written on first boot.
func DefaultConfig() *Config {
	return &Config{
		Network: json.RawMessage(defaultNetwork),
		GPIO: []PinRecord{
			{Pin: 17, Name: "Power Relay", Mode: gpio.ModeOutput, Value: 0},
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	return &Config{
		Network: slices.Clone(c.Network),
		GPIO:    append(make([]PinRecord, 0, len(c.GPIO)), c.GPIO...),
	}
}

// Index returns the position of pin in GPIO, or -1.
func (c *Config) Index(pin int) int {
	return slices.IndexFunc(c.GPIO, func(r PinRecord) bool { return r.Pin == pin })
}

// DefaultName is the label given to pins without one.
func DefaultName(pin int) string {
	return fmt.Sprintf("Pin %d", pin)
}

// Validate checks the document and fills in defaults.
// Network must be an object and GPIO an array. Blank names become "Pin N";
// bad modes, values outside {0,1} and duplicate pins are rejected.
func (c *Config) Validate() error {
	if !isObject(c.Network) {
		return fmt.Errorf("network must be an object")
	}
	if c.GPIO == nil {
		return fmt.Errorf("gpio must be an array")
	}
	seen := make(map[int]struct{}, len(c.GPIO))
	for i := range c.GPIO {
		r := &c.GPIO[i]
		if r.Pin < 0 {
			return fmt.Errorf("gpio[%d]: negative pin %d", i, r.Pin)
		}
		if _, dup := seen[r.Pin]; dup {
			return fmt.Errorf("gpio[%d]: duplicate pin %d", i, r.Pin)
		}
		seen[r.Pin] = struct{}{}
		if !r.Mode.Valid() {
			return fmt.Errorf("gpio[%d]: invalid mode %q", i, r.Mode)
		}
		if r.Value != 0 && r.Value != 1 {
			return fmt.Errorf("gpio[%d]: value %d is not 0 or 1", i, r.Value)
		}
		if strings.TrimSpace(r.Name) == "" {
			r.Name = DefaultName(r.Pin)
		}
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

// Store persists a Config.
type Store interface {
	// Initialize ensures the config file exists, writing defaults if missing.
	// Safe to call concurrently; exactly one caller writes the defaults.
	Initialize() (string, error)

	// Load parses the durable document. Invalid content fails with CONFIG_CORRUPT.
	Load() (*Config, error)

	// Save atomically replaces the durable document and refreshes today's snapshot.
	Save(cfg *Config) error

	// ListSnapshots returns snapshot dates (YYYY-MM-DD), newest first.
	ListSnapshots(excludeToday bool) ([]string, error)

	// SnapshotPath returns the snapshot file for an ISO date, whether or not it exists.
	SnapshotPath(date string) string

	// ResolveSnapshot returns the file holding the config for date.
	ResolveSnapshot(date string) (string, error)
}
