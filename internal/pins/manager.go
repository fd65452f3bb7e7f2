package pins

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/gpio"
	"github.com/smazurov/pinpanel/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Manager owns the live configuration and serializes every pin operation.
//
// All operations hold mu for their whole duration, including ListState which
// updates the edge-detection cache. Events are published while holding mu; the
// bus hands them to per-subscriber queues, so subscribers never run on this stack.
type Manager struct {
	mu         sync.Mutex
	cfg        *Config
	store      Store
	hw         gpio.Backend
	bus        EventPublisher
	logger     *slog.Logger
	lastInputs map[int]int
	now        func() time.Time
}

// ManagerOptions contains optional collaborators for NewManager.
type ManagerOptions struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

// NewManager loads the configuration and sets up every configured pin.
// A corrupt config aborts construction; pin setup failures are logged only.
func NewManager(store Store, hw gpio.Backend, bus EventPublisher, opts *ManagerOptions) (*Manager, error) {
	m := &Manager{
		store:      store,
		hw:         hw,
		bus:        bus,
		logger:     slog.Default(),
		lastInputs: make(map[int]int),
		now:        time.Now,
	}
	if opts != nil {
		if opts.Logger != nil {
			m.logger = opts.Logger
		}
		if opts.Clock != nil {
			m.now = opts.Clock
		}
	}

	path, err := store.Initialize()
	if err != nil {
		return nil, NewPinError(ErrCodeConfigError, "failed to initialize config", err)
	}

	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	m.logger.Info("Loaded pin config", "path", path, "pins", len(cfg.GPIO), "backend", hw.Name())

	for _, r := range cfg.GPIO {
		m.setup(r)
	}
	return m, nil
}

// setup configures one pin from its persisted record.
// Inputs are primed so the first ListState is a baseline rather than an edge.
func (m *Manager) setup(r PinRecord) {
	err := m.hw.Configure(r.Pin, r.Mode, r.Value)
	if err != nil {
		metrics.RecordFault("configure")
		m.logger.Error("gpio_setup", "pin", r.Pin, "mode", r.Mode, "ok", 0, "error", err)
		return
	}
	m.logger.Info("gpio_setup", "pin", r.Pin, "mode", r.Mode, "ok", 1)

	if r.Mode == gpio.ModeInput {
		if v, readErr := m.hw.Read(r.Pin); readErr == nil {
			m.lastInputs[r.Pin] = v
			metrics.SetLevel(r.Pin, string(r.Mode), v)
		}
		return
	}
	metrics.SetLevel(r.Pin, string(r.Mode), r.Value)
}

// ListState returns every configured pin.
// Outputs report their persisted value; inputs are read live and edges are logged.
func (m *Manager) ListState() []PinRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]PinRecord, len(m.cfg.GPIO))
	for i, r := range m.cfg.GPIO {
		if r.Mode == gpio.ModeInput {
			r.Value = m.observe(r.Pin, r.Value)
		}
		out[i] = r
	}
	return out
}

// observe reads an input and records an edge when the level moved.
// On read failure the last known level is reported.
func (m *Manager) observe(pin, fallback int) int {
	v, err := m.hw.Read(pin)
	if err != nil {
		metrics.RecordFault("read")
		m.logger.Warn("gpio_read", "pin", pin, "hw_ok", 0, "error", err)
		if last, ok := m.lastInputs[pin]; ok {
			return last
		}
		return fallback
	}

	prev, seen := m.lastInputs[pin]
	m.lastInputs[pin] = v
	if seen && prev != v {
		m.logger.Info("gpio_read_change", "pin", pin, "from", prev, "to", v)
		metrics.RecordEdge(pin)
		metrics.SetLevel(pin, string(gpio.ModeInput), v)
		m.bus.Publish(events.PinInputChangedEvent{
			Pin:       pin,
			From:      prev,
			To:        v,
			Timestamp: m.timestamp(),
		})
	}
	return v
}

// Get returns one pin, reading inputs live.
func (m *Manager) Get(pin int) (PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.cfg.Index(pin)
	if i < 0 {
		return PinRecord{}, m.reject(ErrCodeUnknownPin, "get", pin)
	}
	r := m.cfg.GPIO[i]
	if r.Mode == gpio.ModeInput {
		r.Value = m.observe(r.Pin, r.Value)
	}
	return r, nil
}

// SetValue drives an output pin and persists the new value.
// A hardware fault is logged and the logical value is committed anyway.
func (m *Manager) SetValue(pin, value int) (PinRecord, error) {
	return m.UpdatePin(pin, nil, &value)
}

// AddPin configures a new pin and appends it to the configuration.
// Blank names default to "Pin N"; inputs ignore initial.
func (m *Manager) AddPin(pin int, name string, mode gpio.Mode, initial int) (PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pin < 0 {
		return PinRecord{}, NewPinError(ErrCodeInvalidParams, fmt.Sprintf("pin must be non-negative, got %d", pin), nil)
	}
	if !mode.Valid() {
		return PinRecord{}, NewPinError(ErrCodeInvalidParams, fmt.Sprintf("invalid mode %q", mode), nil)
	}
	if initial != 0 && initial != 1 {
		return PinRecord{}, NewPinError(ErrCodeInvalidParams, fmt.Sprintf("value must be 0 or 1, got %d", initial), nil)
	}
	if m.cfg.Index(pin) >= 0 {
		return PinRecord{}, m.reject(ErrCodeDuplicatePin, "add", pin)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(pin)
	}
	if mode == gpio.ModeInput {
		initial = 0
	}
	rec := PinRecord{Pin: pin, Name: name, Mode: mode, Value: initial}

	hwOK := 1
	if err := m.hw.Configure(pin, mode, initial); err != nil {
		hwOK = 0
		metrics.RecordFault("configure")
		m.logger.Error("gpio_setup", "pin", pin, "mode", mode, "ok", 0, "error", err)
	}

	next := m.cfg.Clone()
	next.GPIO = append(next.GPIO, rec)
	if err := m.commit(next); err != nil {
		m.release(pin)
		return PinRecord{}, err
	}

	if mode == gpio.ModeInput && hwOK == 1 {
		if v, err := m.hw.Read(pin); err == nil {
			m.lastInputs[pin] = v
		}
	}
	metrics.SetLevel(pin, string(mode), initial)
	m.logger.Info("gpio_add", "pin", pin, "name", name, "mode", mode, "value", initial, "hw_ok", hwOK)

	m.bus.Publish(events.PinAddedEvent{
		PinData:   rec.ToModel(),
		Timestamp: m.timestamp(),
	})
	return rec, nil
}

// RemovePin releases a pin and drops it from the configuration.
func (m *Manager) RemovePin(pin int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.cfg.Index(pin)
	if i < 0 {
		return m.reject(ErrCodeUnknownPin, "remove", pin)
	}

	next := m.cfg.Clone()
	next.GPIO = append(next.GPIO[:i], next.GPIO[i+1:]...)
	if err := m.commit(next); err != nil {
		return err
	}

	m.release(pin)
	delete(m.lastInputs, pin)
	metrics.DeletePin(pin)
	m.logger.Info("gpio_remove", "pin", pin)

	m.bus.Publish(events.PinRemovedEvent{
		Pin:       pin,
		Timestamp: m.timestamp(),
	})
	return nil
}

// RenamePin changes a pin's display name. A blank name keeps the current one.
func (m *Manager) RenamePin(pin int, name string) (PinRecord, error) {
	return m.UpdatePin(pin, &name, nil)
}

// UpdatePin renames a pin and/or drives an output in one commit.
// Every check runs before anything changes, so a rejected update leaves the
// pin, the file and the line untouched. Nil fields are left as they are.
func (m *Manager) UpdatePin(pin int, name *string, value *int) (PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := "update"
	switch {
	case value == nil:
		op = "rename"
	case name == nil:
		op = "set_value"
	}

	if value != nil && *value != 0 && *value != 1 {
		return PinRecord{}, NewPinError(ErrCodeInvalidParams, fmt.Sprintf("value must be 0 or 1, got %d", *value), nil)
	}
	i := m.cfg.Index(pin)
	if i < 0 {
		return PinRecord{}, m.reject(ErrCodeUnknownPin, op, pin)
	}
	if value != nil && m.cfg.GPIO[i].Mode != gpio.ModeOutput {
		return PinRecord{}, m.reject(ErrCodeInvalidPin, op, pin)
	}

	cur := m.cfg.GPIO[i]
	newName := cur.Name
	if name != nil {
		if trimmed := strings.TrimSpace(*name); trimmed != "" {
			newName = trimmed
		}
	}
	renamed := newName != cur.Name
	if !renamed && value == nil {
		return cur, nil
	}

	next := m.cfg.Clone()
	next.GPIO[i].Name = newName

	var hwErr error
	if value != nil {
		hwErr = m.hw.Write(pin, *value)
		if hwErr != nil {
			metrics.RecordFault("write")
		}
		metrics.RecordWrite(pin, hwErr == nil)
		next.GPIO[i].Value = *value
	}

	if err := m.commit(next); err != nil {
		if value != nil && hwErr == nil {
			// Put the line back so it keeps matching the persisted value.
			_ = m.hw.Write(pin, cur.Value)
		}
		return PinRecord{}, err
	}

	ts := m.timestamp()
	if renamed {
		m.logger.Info("gpio_rename", "pin", pin, "from", cur.Name, "to", newName)
		m.bus.Publish(events.PinRenamedEvent{
			Pin:       pin,
			Name:      newName,
			Timestamp: ts,
		})
	}
	if value != nil {
		if hwErr != nil {
			m.logger.Error("gpio_write", "pin", pin, "from", cur.Value, "to", *value, "hw_ok", 0, "error", hwErr)
		} else {
			m.logger.Info("gpio_write", "pin", pin, "from", cur.Value, "to", *value, "hw_ok", 1)
		}
		metrics.SetLevel(pin, string(gpio.ModeOutput), *value)
		m.bus.Publish(events.PinValueChangedEvent{
			Pin:       pin,
			Value:     *value,
			Timestamp: ts,
		})
	}
	return m.cfg.GPIO[i], nil
}

// Config returns a copy of the in-memory configuration.
func (m *Manager) Config() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone()
}

// BackendName reports the active hardware backend.
func (m *Manager) BackendName() string {
	return m.hw.Name()
}

// Close releases every pin and the backend.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.cfg.GPIO {
		m.release(r.Pin)
	}
	clear(m.lastInputs)
	if err := m.hw.Close(); err != nil {
		return NewPinError(ErrCodeHardwareFault, "failed to close gpio backend", err)
	}
	return nil
}

// commit persists next and swaps it in. Memory is left untouched on failure.
func (m *Manager) commit(next *Config) error {
	if err := m.store.Save(next); err != nil {
		metrics.RecordSave(false)
		m.logger.Error("Failed to save pin config", "error", err)
		return NewPinError(ErrCodeConfigError, "failed to save config", err)
	}
	metrics.RecordSave(true)
	m.cfg = next
	return nil
}

// release frees a pin, logging instead of returning failures.
func (m *Manager) release(pin int) {
	if err := m.hw.Release(pin); err != nil {
		metrics.RecordFault("release")
		var hf *gpio.HardwareFault
		if errors.As(err, &hf) {
			m.logger.Warn("gpio_release", "pin", pin, "ok", 0, "op", hf.Op, "error", hf.Err)
			return
		}
		m.logger.Warn("gpio_release", "pin", pin, "ok", 0, "error", err)
	}
}

func (m *Manager) reject(code, op string, pin int) *PinError {
	var msg string
	switch code {
	case ErrCodeUnknownPin:
		msg = fmt.Sprintf("pin %d is not configured", pin)
	case ErrCodeDuplicatePin:
		msg = fmt.Sprintf("pin %d already exists", pin)
	case ErrCodeInvalidPin:
		msg = fmt.Sprintf("pin %d is not an output", pin)
	default:
		msg = fmt.Sprintf("pin %d rejected", pin)
	}
	m.logger.Warn("Rejected pin operation", "op", op, "pin", pin, "code", code)
	return NewPinError(code, msg, nil)
}

func (m *Manager) timestamp() string {
	return m.now().Format(time.RFC3339)
}
