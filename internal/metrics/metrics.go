package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_http_requests_total",
	Help: "Total number of requests labelled by route and status",
}, []string{"method", "route", "status"})

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "docchat_http_request_duration_seconds",
	Help:    "Time spent serving a request.",
	Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"route"})

var gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "docchat_gateway_latency_seconds",
	Help:    "Latency of completion gateway calls.",
	Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"mode"})

var gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_gateway_requests_total",
	Help: "Completion gateway calls labelled by mode and outcome",
}, []string{"mode", "outcome"})

var documentsIngested = promauto.NewCounter(prometheus.CounterOpts{
	Name: "docchat_documents_ingested_total",
	Help: "Number of PDF documents stored",
})

var chunksIngested = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "docchat_document_chunks",
	Help:    "Chunks produced per ingested document.",
	Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
})

func CaptureHTTPRequest(method, route, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// CaptureGatewayCall records one gateway round trip. mode is "complete" or
// "stream"; outcome is "ok", "error" or "timeout".
func CaptureGatewayCall(mode, outcome string, elapsed time.Duration) {
	gatewayRequestsTotal.WithLabelValues(mode, outcome).Inc()
	gatewayLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func CaptureDocumentIngested(chunks int) {
	documentsIngested.Inc()
	chunksIngested.Observe(float64(chunks))
}
