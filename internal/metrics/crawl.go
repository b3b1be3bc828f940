package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Crawl exploration metrics.
var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawlscope",
			Name:      "gateway_requests_total",
			Help:      "Document gateway calls by operation and outcome",
		},
		[]string{"op", "status"}, // status: ok / error
	)

	GatewayRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawlscope",
			Name:      "gateway_retries_total",
			Help:      "Document gateway read attempts retried after a transient failure",
		},
		[]string{"op"},
	)

	ProjectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crawlscope",
			Name:      "projection_duration_seconds",
			Help:      "Time to place a page set on the 2-D map",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"}, // projected / degenerate / error
	)

	TagEditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crawlscope",
			Name:      "tag_edits_total",
			Help:      "Tag edits submitted to the store",
		},
		[]string{"kind", "op"}, // kind: page / term, op: create / update
	)

	SessionsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crawlscope",
			Name:      "sessions_opened_total",
			Help:      "Exploration sessions created",
		},
	)
)

var registerOnce sync.Once

// RegisterCrawlMetrics registers the exploration metrics with the default registry.
func RegisterCrawlMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			GatewayRequestsTotal,
			GatewayRetriesTotal,
			ProjectionDuration,
			TagEditsTotal,
			SessionsOpenedTotal,
		)
	})
}

// Status maps an error to the status label used by gateway metrics.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
