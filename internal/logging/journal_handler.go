package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

const journalIdentifier = "pinpanel"

// journalSend matches journal.Send.
type journalSend func(message string, priority journal.Priority, vars map[string]string) error

// JournalHandler sends records to systemd-journald. MESSAGE carries the same
// "module: message k=v" body as the daily file, so `journalctl -t pinpanel`
// reads like the log download; each attribute is also a structured field
// (gpio_write pin=17 becomes PIN=17) for `journalctl PIN=17`.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
	send   journalSend
}

// NewJournalHandler creates a handler writing to the local journal.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level, send: journal.Send}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	entry := buildEntry(r, h.attrs, h.groups)

	fields := make(map[string]string, len(entry.Attributes)+2)
	for k, v := range entry.Attributes {
		if name := journalField(k); name != "" {
			fields[name] = fmt.Sprint(v)
		}
	}
	fields["SYSLOG_IDENTIFIER"] = journalIdentifier
	fields["PINPANEL_MODULE"] = entry.Module

	if err := h.send(formatBody(entry), priorityFor(r.Level), fields); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func priorityFor(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalField turns an attribute key into a journald field name: uppercase
// letters, digits and underscores, not starting with an underscore (those are
// reserved for journald itself). Keys that reduce to nothing are dropped.
func journalField(key string) string {
	var sb strings.Builder
	for _, c := range strings.ToUpper(key) {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	name := strings.TrimLeft(sb.String(), "_")
	switch name {
	case "", "MESSAGE", "PRIORITY", "SYSLOG_IDENTIFIER":
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "F_" + name
	}
	return name
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
