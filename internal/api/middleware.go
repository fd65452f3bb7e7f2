package api

import (
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// auditEvents names the audit record written for each state-changing operation.
var auditEvents = map[string]string{
	"add-pin":    "api_gpio_add",
	"update-pin": "api_gpio_patch",
	"delete-pin": "api_gpio_delete",
}

// clientIP returns the first X-Forwarded-For hop, or the peer host when the
// request did not come through a proxy.
func clientIP(forwarded, remoteAddr string) string {
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	if remoteAddr == "" {
		return "-"
	}
	return remoteAddr
}

// NewHTTPLoggingMiddleware logs every request to httpLogger and writes an
// api_gpio_* audit record to auditLogger for pin mutations, accepted or not.
func NewHTTPLoggingMiddleware(httpLogger, auditLogger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		ip := clientIP(ctx.Header("X-Forwarded-For"), ctx.RemoteAddr())

		next(ctx)

		status := ctx.Status()
		if op := ctx.Operation(); op != nil {
			if event, ok := auditEvents[op.OperationID]; ok {
				audit(ctx, auditLogger, event, ip, status)
			}
		}

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", ctx.URL().Path),
			slog.String("ip", ip),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if query := ctx.URL().RawQuery; query != "" {
			attrs = append(attrs, slog.String("query", query))
		}

		level := slog.LevelInfo
		switch {
		case method == "OPTIONS":
			level = slog.LevelDebug
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		httpLogger.LogAttrs(ctx.Context(), level, "HTTP request completed", attrs...)
	}
}

func audit(ctx huma.Context, logger *slog.Logger, event, ip string, status int) {
	attrs := []slog.Attr{slog.String("ip", ip)}
	if pin := ctx.Param("pin"); pin != "" {
		attrs = append(attrs, slog.String("pin", pin))
	}
	if status >= 400 {
		attrs = append(attrs, slog.Int("ok", 0), slog.Int("status", status))
		logger.LogAttrs(ctx.Context(), slog.LevelWarn, event, attrs...)
		return
	}
	attrs = append(attrs, slog.Int("ok", 1))
	logger.LogAttrs(ctx.Context(), slog.LevelInfo, event, attrs...)
}
