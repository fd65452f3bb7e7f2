package events

import "github.com/smazurov/pinpanel/internal/api/models"

// Event type constants for kelindar/event.
const (
	TypePinValueChanged uint32 = iota + 1
	TypePinAdded
	TypePinRemoved
	TypePinRenamed
	TypePinInputChanged
	TypeLogEntry
	typePinChange
)

// Wire names used for SSE event types and MQTT payloads.
const (
	NamePinValueChanged = "pin-value-changed"
	NamePinAdded        = "pin-added"
	NamePinRemoved      = "pin-removed"
	NamePinRenamed      = "pin-renamed"
	NamePinInputChanged = "pin-input-changed"
	NameLogLine         = "log-line"
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PinEvent is implemented by every pin-* event.
type PinEvent interface {
	Event
	EventName() string
	PinNumber() int
}

// PinValueChangedEvent is published after an output pin was commanded.
type PinValueChangedEvent struct {
	Pin       int    `json:"pin" example:"17" doc:"Pin identifier"`
	Value     int    `json:"value" example:"1" doc:"New logical value (0 or 1)"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PinValueChangedEvent.
func (e PinValueChangedEvent) Type() uint32 { return TypePinValueChanged }

// EventName returns the wire name.
func (e PinValueChangedEvent) EventName() string { return NamePinValueChanged }

// PinNumber returns the pin the event refers to.
func (e PinValueChangedEvent) PinNumber() int { return e.Pin }

// PinAddedEvent is published after a pin was added to the configuration.
type PinAddedEvent struct {
	models.PinData
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PinAddedEvent.
func (e PinAddedEvent) Type() uint32 { return TypePinAdded }

// EventName returns the wire name.
func (e PinAddedEvent) EventName() string { return NamePinAdded }

// PinNumber returns the pin the event refers to.
func (e PinAddedEvent) PinNumber() int { return e.Pin }

// PinRemovedEvent is published after a pin was removed from the configuration.
type PinRemovedEvent struct {
	Pin       int    `json:"pin" example:"17" doc:"Pin identifier"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PinRemovedEvent.
func (e PinRemovedEvent) Type() uint32 { return TypePinRemoved }

// EventName returns the wire name.
func (e PinRemovedEvent) EventName() string { return NamePinRemoved }

// PinNumber returns the pin the event refers to.
func (e PinRemovedEvent) PinNumber() int { return e.Pin }

// PinRenamedEvent is published after a pin's display name changed.
type PinRenamedEvent struct {
	Pin       int    `json:"pin" example:"17" doc:"Pin identifier"`
	Name      string `json:"name" example:"Garage Door" doc:"New display name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PinRenamedEvent.
func (e PinRenamedEvent) Type() uint32 { return TypePinRenamed }

// EventName returns the wire name.
func (e PinRenamedEvent) EventName() string { return NamePinRenamed }

// PinNumber returns the pin the event refers to.
func (e PinRenamedEvent) PinNumber() int { return e.Pin }

// PinInputChangedEvent is published when an edge is observed on an input pin.
type PinInputChangedEvent struct {
	Pin       int    `json:"pin" example:"27" doc:"Pin identifier"`
	From      int    `json:"from" example:"0" doc:"Previously observed level"`
	To        int    `json:"to" example:"1" doc:"Newly observed level"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PinInputChangedEvent.
func (e PinInputChangedEvent) Type() uint32 { return TypePinInputChanged }

// EventName returns the wire name.
func (e PinInputChangedEvent) EventName() string { return NamePinInputChanged }

// PinNumber returns the pin the event refers to.
func (e PinInputChangedEvent) PinNumber() int { return e.Pin }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"gpio" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Line       string         `json:"line" doc:"Formatted log line as written to the daily file"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// pinChange wraps any pin event so all of them share one subscriber queue.
type pinChange struct {
	PinEvent
}

func (pinChange) Type() uint32 { return typePinChange }
