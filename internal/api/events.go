package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/logging"
)

// registerSSERoutes registers the pin and log event streams.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Pin Event Stream",
		Description: "Real-time pin changes and input edges",
		Tags:        []string{"events"},
	}, map[string]any{
		events.NamePinValueChanged: events.PinValueChangedEvent{},
		events.NamePinAdded:        events.PinAddedEvent{},
		events.NamePinRemoved:      events.PinRemovedEvent{},
		events.NamePinRenamed:      events.PinRenamedEvent{},
		events.NamePinInputChanged: events.PinInputChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribePinsToChannel(s.eventBus, eventCh)
		defer unsubscribe()

		forward(ctx, eventCh, send)
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log lines. Buffered history is sent first, then new lines as they are written.",
		Tags:        []string{"logs"},
	}, map[string]any{
		events.NameLogLine: events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before replaying so nothing written in between is lost.
		// Entries seen in both are told apart by Seq on the client.
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				if err := send.Data(LogEvent(entry)); err != nil {
					return
				}
			}
		}

		forward(ctx, eventCh, send)
	})
}

func forward(ctx context.Context, eventCh <-chan any, send sse.Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventCh:
			if err := send.Data(event); err != nil {
				return
			}
		}
	}
}

// LogEvent converts a buffered log entry into its bus event.
func LogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Line:       logging.FormatLogLine(entry),
		Attributes: entry.Attributes,
	}
}
