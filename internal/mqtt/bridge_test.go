package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/gpio"
	"github.com/smazurov/pinpanel/internal/pins"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakePublisher records published messages for test assertions.
type fakePublisher struct {
	mu     sync.Mutex
	msgs   []published
	err    error
	closed bool
	notify chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{notify: make(chan struct{}, 100)}
}

func (f *fakePublisher) Publish(topic string, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic: topic, retained: retained, payload: payload})
	f.notify <- struct{}{}
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) wait(t *testing.T, n int) []published {
	t.Helper()
	for range n {
		select {
		case <-f.notify:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %d messages", n)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func TestBridge_Topic(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "pinpanel/17/state"},
		{"home/panel", "home/panel/17/state"},
		{"/home/panel/", "home/panel/17/state"},
	}
	for _, tt := range tests {
		b := NewBridge(newFakePublisher(), tt.prefix, nil)
		if got := b.Topic(17); got != tt.want {
			t.Errorf("prefix %q: Topic = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestBridge_PublishesCurrentStateOnStart(t *testing.T) {
	pub := newFakePublisher()
	bridge := NewBridge(pub, "panel", nil)
	bus := events.New()

	bridge.Start(bus, []pins.PinRecord{
		{Pin: 17, Name: "Power Relay", Mode: gpio.ModeOutput, Value: 1},
	})
	defer bridge.Stop()

	msgs := pub.wait(t, 1)
	if msgs[0].topic != "panel/17/state" || !msgs[0].retained {
		t.Errorf("unexpected message %+v", msgs[0])
	}

	var msg struct {
		Event string         `json:"event"`
		Data  models.PinData `json:"data"`
	}
	if err := json.Unmarshal(msgs[0].payload, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "pin-state" || msg.Data.Value != 1 || msg.Data.Name != "Power Relay" {
		t.Errorf("unexpected payload %+v", msg)
	}
}

func TestBridge_FollowsPinEvents(t *testing.T) {
	pub := newFakePublisher()
	bridge := NewBridge(pub, "panel", nil)
	bus := events.New()
	bridge.Start(bus, nil)
	defer bridge.Stop()

	bus.Publish(events.PinValueChangedEvent{Pin: 17, Value: 1, Timestamp: "2025-01-27T10:30:00Z"})
	bus.Publish(events.PinRemovedEvent{Pin: 17, Timestamp: "2025-01-27T10:31:00Z"})

	msgs := pub.wait(t, 2)

	var msg struct {
		Event string                      `json:"event"`
		Data  events.PinValueChangedEvent `json:"data"`
	}
	if err := json.Unmarshal(msgs[0].payload, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != events.NamePinValueChanged || msg.Data.Value != 1 {
		t.Errorf("unexpected payload %s", msgs[0].payload)
	}

	if msgs[1].topic != "panel/17/state" || len(msgs[1].payload) != 0 || !msgs[1].retained {
		t.Errorf("remove should clear retained state, got %+v", msgs[1])
	}
}

func TestBridge_IgnoresLogEvents(t *testing.T) {
	pub := newFakePublisher()
	bridge := NewBridge(pub, "", nil)
	bus := events.New()
	bridge.Start(bus, nil)
	defer bridge.Stop()

	bus.Publish(events.LogEntryEvent{Message: "hello"})
	bus.Publish(events.PinRenamedEvent{Pin: 4, Name: "Fan"})

	msgs := pub.wait(t, 1)
	if len(msgs) != 1 || msgs[0].topic != "pinpanel/4/state" {
		t.Errorf("expected only the rename message, got %+v", msgs)
	}
}

func TestBridge_PublishErrorDoesNotStopBridge(t *testing.T) {
	pub := newFakePublisher()
	pub.err = errors.New("broker down")
	bridge := NewBridge(pub, "", nil)
	bus := events.New()
	bridge.Start(bus, []pins.PinRecord{{Pin: 1, Name: "A", Mode: gpio.ModeOutput}})
	defer bridge.Stop()

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	bus.Publish(events.PinValueChangedEvent{Pin: 1, Value: 1})
	if msgs := pub.wait(t, 1); msgs[0].topic != "pinpanel/1/state" {
		t.Errorf("unexpected message %+v", msgs[0])
	}
}

func TestBridge_StopClosesPublisher(t *testing.T) {
	pub := newFakePublisher()
	bridge := NewBridge(pub, "", nil)
	bridge.Start(events.New(), nil)

	if err := bridge.Stop(); err != nil {
		t.Fatal(err)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
	// Second stop is harmless
	if err := bridge.Stop(); err != nil {
		t.Fatal(err)
	}
}
