package assistant

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of the provider calls.
const (
	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

// Metrics holds prometheus metrics of the provider calls.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics makes metrics and registers them in the registerer.
// Nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsportal",
			Subsystem: "assistant",
			Name:      "requests_total",
			Help:      "Number of requests to the assistant provider by intent and outcome.",
		}, []string{"intent", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsportal",
			Subsystem: "assistant",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the assistant provider.",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"intent"}),
	}
}

func (m *Metrics) observe(intent Intent, err error, elapsed time.Duration) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, errEmptyResponse):
		outcome = outcomeEmpty
	case err != nil:
		outcome = outcomeError
	}

	m.Requests.WithLabelValues(string(intent), outcome).Inc()
	m.Duration.WithLabelValues(string(intent)).Observe(elapsed.Seconds())
}
