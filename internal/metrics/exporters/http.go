// Package exporters exposes metrics over HTTP.
package exporters

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/pinpanel/internal/version"
)

var buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pinpanel",
	Name:      "build_info",
	Help:      "Always 1; labelled with the running version and GPIO backend",
}, []string{"version", "backend"})

// HTTPHandler serves every promauto series plus pinpanel_build_info, so a
// dashboard can tell a panel on the mock backend from one on real lines.
// A collector that fails is logged and skipped rather than failing the scrape.
func HTTPHandler(backend string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	buildInfo.Reset()
	buildInfo.WithLabelValues(version.String(), backend).Set(1)

	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      errorLog{logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLog adapts slog to promhttp.Logger.
type errorLog struct {
	logger *slog.Logger
}

func (l errorLog) Println(v ...any) {
	l.logger.Warn("Metrics gather failed", "error", fmt.Sprint(v...))
}
