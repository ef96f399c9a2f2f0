package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/prt7/internal/decoder"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt7",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served by the monitor.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prt7",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Monitor HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	decoderEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prt7",
			Subsystem: "decoder",
			Name:      "events_total",
			Help:      "Decoder session events by kind.",
		},
		[]string{"kind"},
	)
	rotorOffset = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prt7",
			Subsystem: "decoder",
			Name:      "rotor_offset",
			Help:      "Current rotor offset of the active session.",
		},
	)
	decodedBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prt7",
			Subsystem: "decoder",
			Name:      "message_bytes",
			Help:      "Length of the last rendered message.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, decoderEvents, rotorOffset, decodedBytes)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// MetricsSink counts session events. It never fails.
type MetricsSink struct{}

func NewMetricsSink() MetricsSink {
	RegisterMetrics()
	return MetricsSink{}
}

func (MetricsSink) Emit(ev decoder.Event) error {
	decoderEvents.WithLabelValues(ev.Kind.String()).Inc()
	rotorOffset.Set(float64(ev.Offset))
	if ev.Kind == decoder.EventMessage {
		decodedBytes.Set(float64(len(ev.Message)))
	}
	return nil
}
