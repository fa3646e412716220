// Package metrics defines the Prometheus collectors of the fact-check pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	checks          *prometheus.CounterVec
	checkDuration   *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	modelCalls      *prometheus.CounterVec
	searchResults   *prometheus.CounterVec
	searchFailures  *prometheus.CounterVec
	mediaAnalyses   *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	uploadsRejected *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in production.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "factchecks_total",
			Help:      "Fact-check requests by content type and outcome",
		}, []string{"content_type", "outcome"}),
		checkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "factcheck_duration_seconds",
			Help:      "End-to-end fact-check pipeline duration",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"content_type"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "factcheck_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		modelCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Generative model calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		searchResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Sources returned by each search provider",
		}, []string{"provider"}),
		searchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_failures_total",
			Help:      "Failed search provider calls",
		}, []string{"provider"}),
		mediaAnalyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_analyses_total",
			Help:      "Image and video analyses by kind and analysis mode",
		}, []string{"kind", "mode"}),
		uploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes received through file uploads",
		}),
		uploadsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Uploads rejected before analysis",
		}, []string{"reason"}),
	}
}

// RecordCheck records the outcome and duration of one pipeline run
func (m *Metrics) RecordCheck(contentType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(contentType, outcome).Inc()
	m.checkDuration.WithLabelValues(contentType).Observe(d.Seconds())
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordModelCall counts a model invocation
func (m *Metrics) RecordModelCall(operation string, err error) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(operation, outcome(err)).Inc()
}

// RecordSearch counts provider results, or a failure when err is non-nil
func (m *Metrics) RecordSearch(provider string, results int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.searchFailures.WithLabelValues(provider).Inc()
		return
	}
	m.searchResults.WithLabelValues(provider).Add(float64(results))
}

// RecordMediaAnalysis counts an image or video analysis in the given capability mode
func (m *Metrics) RecordMediaAnalysis(kind, mode string) {
	if m == nil {
		return
	}
	m.mediaAnalyses.WithLabelValues(kind, mode).Inc()
}

// RecordUpload adds accepted upload bytes
func (m *Metrics) RecordUpload(bytes int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Add(float64(bytes))
}

// RecordUploadRejected counts an upload refused for reason
func (m *Metrics) RecordUploadRejected(reason string) {
	if m == nil {
		return
	}
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
