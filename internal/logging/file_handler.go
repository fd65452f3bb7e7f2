package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// FileHandler is a slog.Handler that appends formatted lines to a DailyFile.
type FileHandler struct {
	file   *DailyFile
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewFileHandler creates a handler writing to file.
func NewFileHandler(file *DailyFile, level slog.Leveler) *FileHandler {
	return &FileHandler{file: file, level: level}
}

// Enabled implements slog.Handler.
func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *FileHandler) Handle(_ context.Context, r slog.Record) error {
	entry := buildEntry(r, h.attrs, h.groups)
	if err := h.file.WriteLine(entry.Timestamp, FormatLogLine(entry)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log file: %v\n", err)
		return err
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &FileHandler{
		file:   h.file,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *FileHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &FileHandler{
		file:   h.file,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
