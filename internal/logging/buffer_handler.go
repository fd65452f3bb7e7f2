package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// LogCallback is called when a new log entry is written.
// Used to publish log events without creating import cycles.
type LogCallback func(entry LogEntry)

// BufferHandler is a slog.Handler that writes to the global ring buffer
// and calls the global callback for each log entry.
// Both are looked up per record, so handlers created before Initialize pick them up.
type BufferHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewBufferHandler creates a handler that feeds the log history and live tail.
func NewBufferHandler(level slog.Leveler) *BufferHandler {
	return &BufferHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	mutex.RLock()
	buffer, callback := logBuffer, logCallback
	mutex.RUnlock()

	if buffer == nil {
		return nil
	}

	entry := buffer.Write(buildEntry(r, h.attrs, h.groups))
	if callback != nil {
		forward(callback, entry)
	}
	return nil
}

// forward runs the callback, swallowing panics so a broken subscriber never
// takes down the caller that logged.
func forward(callback LogCallback, entry LogEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(os.Stderr, "log forwarding failed: %v\n", rec)
		}
	}()
	callback(entry)
}

// buildEntry converts a record plus handler attrs into a LogEntry.
// The "module" attribute is lifted out of the attributes.
func buildEntry(r slog.Record, handlerAttrs []slog.Attr, groups []string) LogEntry {
	entry := LogEntry{
		Timestamp:  r.Time,
		Level:      levelToString(r.Level),
		Module:     "app",
		Message:    r.Message,
		Attributes: make(map[string]any),
	}

	add := func(a slog.Attr) bool {
		if a.Key == "module" {
			entry.Module = a.Value.String()
			return true
		}
		entry.keys = flattenAttr(entry.Attributes, entry.keys, groups, a)
		return true
	}

	for _, a := range handlerAttrs {
		add(a)
	}
	r.Attrs(add)

	return entry
}

// flattenAttr extracts a slog.Attr into a flat map with dot-notation keys for groups.
// New keys are appended to keys in the order they are seen.
func flattenAttr(attrs map[string]any, keys []string, groups []string, a slog.Attr) []string {
	if a.Equal(slog.Attr{}) {
		return keys
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		// Recursively flatten group attributes
		for _, ga := range a.Value.Group() {
			keys = flattenAttr(attrs, keys, append(groups, a.Key), ga)
		}
		return keys
	}

	if _, exists := attrs[key]; !exists {
		keys = append(keys, key)
	}

	switch a.Value.Kind() {
	case slog.KindTime:
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		// Handle error type specially
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
	return keys
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &BufferHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &BufferHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// levelToString converts slog.Level to a lowercase string.
func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// LineTimeLayout is the timestamp layout of a log file line.
const LineTimeLayout = "2006-01-02 15:04:05,000"

// FormatLogLine renders an entry the way it is written to the daily file:
//
//	2025-01-27 10:30:00,123 INFO gpio: gpio_write pin=17 from=0 to=1 hw_ok=1
func FormatLogLine(entry LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp.Format(LineTimeLayout))
	sb.WriteString(" ")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString(" ")
	sb.WriteString(formatBody(entry))
	return sb.String()
}

// formatBody renders "module: message k=v ..." without timestamp or level.
func formatBody(entry LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Module)
	sb.WriteString(": ")
	sb.WriteString(entry.Message)

	keys := entry.keys
	if len(keys) != len(entry.Attributes) {
		keys = make([]string, 0, len(entry.Attributes))
		for k := range entry.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(formatValue(entry.Attributes[k]))
	}

	return sb.String()
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
