// Package metrics provides Prometheus metrics for pins, config persistence and logging.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gpioWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinpanel",
		Subsystem: "gpio",
		Name:      "writes_total",
		Help:      "Output writes by result (ok, fault)",
	}, []string{"pin", "result"})

	gpioFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinpanel",
		Subsystem: "gpio",
		Name:      "hardware_faults_total",
		Help:      "Backend failures by operation",
	}, []string{"op"})

	gpioEdges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinpanel",
		Subsystem: "gpio",
		Name:      "input_edges_total",
		Help:      "Detected input edges",
	}, []string{"pin"})

	gpioLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pinpanel",
		Subsystem: "gpio",
		Name:      "level",
		Help:      "Last known pin level (0 or 1)",
	}, []string{"pin", "mode"})

	configSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pinpanel",
		Subsystem: "config",
		Name:      "saves_total",
		Help:      "Config saves by result (ok, error)",
	}, []string{"result"})

	logRotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pinpanel",
		Subsystem: "log",
		Name:      "rotations_total",
		Help:      "Daily log file rebinds",
	})

	// Local cache of pin modes so DeletePin can drop the right gauge series.
	pinModes   = make(map[int]string)
	pinModesMu sync.Mutex
)

func pinLabel(pin int) string {
	return strconv.Itoa(pin)
}

// RecordWrite counts an output write.
func RecordWrite(pin int, ok bool) {
	result := "ok"
	if !ok {
		result = "fault"
	}
	gpioWrites.WithLabelValues(pinLabel(pin), result).Inc()
}

// RecordFault counts a backend failure.
func RecordFault(op string) {
	gpioFaults.WithLabelValues(op).Inc()
}

// RecordEdge counts an input edge.
func RecordEdge(pin int) {
	gpioEdges.WithLabelValues(pinLabel(pin)).Inc()
}

// SetLevel records the last known level of a pin.
func SetLevel(pin int, mode string, value int) {
	pinModesMu.Lock()
	if prev, ok := pinModes[pin]; ok && prev != mode {
		gpioLevel.DeleteLabelValues(pinLabel(pin), prev)
	}
	pinModes[pin] = mode
	pinModesMu.Unlock()

	gpioLevel.WithLabelValues(pinLabel(pin), mode).Set(float64(value))
}

// DeletePin removes every per-pin series.
func DeletePin(pin int) {
	pinModesMu.Lock()
	mode, ok := pinModes[pin]
	delete(pinModes, pin)
	pinModesMu.Unlock()

	label := pinLabel(pin)
	if ok {
		gpioLevel.DeleteLabelValues(label, mode)
	}
	gpioEdges.DeleteLabelValues(label)
	gpioWrites.DeleteLabelValues(label, "ok")
	gpioWrites.DeleteLabelValues(label, "fault")
}

// RecordSave counts a config save.
func RecordSave(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	configSaves.WithLabelValues(result).Inc()
}

// RecordRotation counts a log file rebind.
func RecordRotation() {
	logRotations.Inc()
}
