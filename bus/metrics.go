package bus

import (
	"github.com/prometheus/client_golang/prometheus"

	kithttp "github.com/tidemark-io/tidemark/kit/transport/http"
)

var kithttpErrorHandler = kithttp.ErrorHandler(0)

type handlerMetrics struct {
	envelopes *prometheus.CounterVec
}

func newHandlerMetrics() *handlerMetrics {
	return &handlerMetrics{
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidemark",
			Subsystem: "bus",
			Name:      "envelopes_total",
			Help:      "Inbound bus envelopes by message type and outcome.",
		}, []string{"type", "outcome"}),
	}
}

func (m *handlerMetrics) observe(msgType, outcome string) {
	if msgType == "" {
		msgType = "unknown"
	}
	m.envelopes.WithLabelValues(msgType, outcome).Inc()
}

// PrometheusCollectors exposes the handler's metrics for registration.
func (h *Handler) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{h.metrics.envelopes}
}
