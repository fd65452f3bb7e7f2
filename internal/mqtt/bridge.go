package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/pins"
)

// Message is the JSON payload of a state topic.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Bridge republishes pin events to <prefix>/<pin>/state.
// Removing a pin clears its retained message.
type Bridge struct {
	pub    Publisher
	prefix string
	logger *slog.Logger

	mu    sync.Mutex
	unsub func()
}

// NewBridge creates a bridge. prefix defaults to "pinpanel".
func NewBridge(pub Publisher, prefix string, logger *slog.Logger) *Bridge {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "pinpanel"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{pub: pub, prefix: prefix, logger: logger}
}

// Topic returns the state topic for pin.
func (b *Bridge) Topic(pin int) string {
	return fmt.Sprintf("%s/%d/state", b.prefix, pin)
}

// Start publishes the current records and then follows the bus.
func (b *Bridge) Start(bus *events.Bus, current []pins.PinRecord) {
	for _, r := range current {
		b.publish(r.Pin, Message{Event: "pin-state", Data: r.ToModel()})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsub != nil {
		return
	}
	b.unsub = bus.SubscribePins(b.handle)
}

// Stop unsubscribes and closes the publisher.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return b.pub.Close()
}

func (b *Bridge) handle(ev events.PinEvent) {
	if _, removed := ev.(events.PinRemovedEvent); removed {
		if err := b.pub.Publish(b.Topic(ev.PinNumber()), true, nil); err != nil {
			b.logger.Warn("Failed to clear retained pin state", "pin", ev.PinNumber(), "error", err)
		}
		return
	}
	b.publish(ev.PinNumber(), Message{Event: ev.EventName(), Data: ev})
}

func (b *Bridge) publish(pin int, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to encode pin state", "pin", pin, "error", err)
		return
	}
	if err := b.pub.Publish(b.Topic(pin), true, payload); err != nil {
		b.logger.Warn("Failed to publish pin state", "pin", pin, "error", err)
		return
	}
	b.logger.Debug("Published pin state", "pin", pin, "event", msg.Event)
}
