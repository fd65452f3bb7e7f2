//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// cdev drives lines through the Linux GPIO character device.
// Each configured pin holds its own line request.
type cdev struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewCdev opens the named chip (e.g. "gpiochip0").
func NewCdev(chipName string) (Backend, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("pinpanel"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &cdev{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

// Configure requests the line, or reconfigures it when already held.
func (c *cdev) Configure(pin int, mode Mode, initial int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[pin]; ok {
		var err error
		if mode == ModeOutput {
			err = line.Reconfigure(gpiocdev.AsOutput(normalize(initial)))
		} else {
			err = line.Reconfigure(gpiocdev.AsInput)
		}
		if err != nil {
			return fault("configure", pin, err)
		}
		return nil
	}

	var opt gpiocdev.LineReqOption = gpiocdev.AsInput
	if mode == ModeOutput {
		opt = gpiocdev.AsOutput(normalize(initial))
	}
	line, err := c.chip.RequestLine(pin, opt)
	if err != nil {
		return fault("configure", pin, err)
	}
	c.lines[pin] = line
	return nil
}

// Write drives the requested line.
func (c *cdev) Write(pin int, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[pin]
	if !ok {
		return fault("write", pin, errors.New("line not requested"))
	}
	if err := line.SetValue(normalize(value)); err != nil {
		return fault("write", pin, err)
	}
	return nil
}

// Read returns the line value.
func (c *cdev) Read(pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[pin]
	if !ok {
		return 0, fault("read", pin, errors.New("line not requested"))
	}
	v, err := line.Value()
	if err != nil {
		return 0, fault("read", pin, err)
	}
	return normalize(v), nil
}

// Release puts the line back to input with pull-down, matching Pi boot defaults,
// and closes the request.
func (c *cdev) Release(pin int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[pin]
	if !ok {
		return nil
	}
	delete(c.lines, pin)
	return releaseLine(pin, line)
}

// Name returns "cdev".
func (c *cdev) Name() string {
	return "cdev"
}

// Close releases all lines and the chip.
func (c *cdev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, line := range c.lines {
		if err := releaseLine(pin, line); err != nil {
			errs = append(errs, err)
		}
		delete(c.lines, pin)
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}
	return errors.Join(errs...)
}

func releaseLine(pin int, line *gpiocdev.Line) error {
	var errs []error
	if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fault("release", pin, err))
	}
	if err := line.Close(); err != nil {
		errs = append(errs, fault("release", pin, err))
	}
	return errors.Join(errs...)
}
