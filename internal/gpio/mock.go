package gpio

import (
	"log/slog"
	"sync"
)

// Mock implements Backend in memory for systems without GPIO hardware.
type Mock struct {
	mu     sync.Mutex
	modes  map[int]Mode
	levels map[int]int
	logger *slog.Logger
}

// NewMock creates an empty in-memory backend.
func NewMock(logger *slog.Logger) *Mock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mock{
		modes:  make(map[int]Mode),
		levels: make(map[int]int),
		logger: logger,
	}
}

// Configure records the pin; outputs take the initial level.
func (m *Mock) Configure(pin int, mode Mode, initial int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modes[pin] = mode
	if mode == ModeOutput {
		m.levels[pin] = normalize(initial)
	} else if _, ok := m.levels[pin]; !ok {
		m.levels[pin] = 0
	}
	m.logger.Debug("mock gpio configured", "pin", pin, "mode", mode, "initial", initial)
	return nil
}

// Write stores the level.
func (m *Mock) Write(pin int, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = normalize(value)
	return nil
}

// Read returns the stored level, 0 for unknown pins.
func (m *Mock) Read(pin int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin], nil
}

// Release forgets the pin.
func (m *Mock) Release(pin int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.modes, pin)
	delete(m.levels, pin)
	return nil
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Close forgets every pin.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.modes)
	clear(m.levels)
	return nil
}

// SetLevel simulates an external signal on a pin.
func (m *Mock) SetLevel(pin int, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = normalize(value)
}

// Level returns the current level and whether the pin is configured.
func (m *Mock) Level(pin int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, configured := m.modes[pin]
	return m.levels[pin], configured
}

// ModeOf returns the configured mode of a pin.
func (m *Mock) ModeOf(pin int) (Mode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode, ok := m.modes[pin]
	return mode, ok
}
