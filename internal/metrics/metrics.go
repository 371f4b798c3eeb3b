// Package metrics holds the Prometheus collectors shared by the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_extract_documents_total",
			Help: "Documents processed by the ingestion subsystem",
		},
		[]string{"kind", "outcome"},
	)
	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_extract_tool_invocations_total",
			Help: "External extraction tool invocations",
		},
		[]string{"tool", "outcome"},
	)
	OCRFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_extract_ocr_fallback_total",
			Help: "PDF rasterize+OCR fallback attempts",
		},
		[]string{"outcome"},
	)
	ExtractDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfp_extract_duration_seconds",
			Help:    "Duration of document text extraction",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"kind"},
	)
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_extract_cache_lookups_total",
			Help: "Extraction cache lookups",
		},
		[]string{"result"},
	)
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_pipeline_runs_total",
			Help: "Proposal pipeline runs",
		},
		[]string{"outcome"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_http_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(ToolInvocationsTotal)
	prometheus.MustRegister(OCRFallbackTotal)
	prometheus.MustRegister(ExtractDuration)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
