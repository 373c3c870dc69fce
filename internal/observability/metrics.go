// Package observability exposes Prometheus metrics for query serving
// and document ingestion.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query metrics
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursemind_queries_total",
		Help: "Total number of answered queries",
	}, []string{"status"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coursemind_query_duration_seconds",
		Help:    "End-to-end query latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})

	// Tool metrics
	toolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coursemind_tool_executions_total",
		Help: "Total number of tool executions",
	}, []string{"tool", "status"})

	toolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coursemind_tool_latency_seconds",
		Help:    "Tool execution latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	}, []string{"tool"})

	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coursemind_active_sessions",
		Help: "Number of live conversation sessions",
	})

	// Ingestion metrics
	ingestedCourses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursemind_ingested_courses_total",
		Help: "Total number of courses ingested",
	})

	ingestedChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coursemind_ingested_chunks_total",
		Help: "Total number of content chunks indexed",
	})
)

// RecordQuery records one answered query and its latency.
func RecordQuery(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	queriesTotal.WithLabelValues(status).Inc()
	queryDuration.Observe(time.Since(start).Seconds())
}

// RecordToolExecution records one tool dispatch.
func RecordToolExecution(tool string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	toolExecutions.WithLabelValues(tool, status).Inc()
	toolLatency.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// SessionOpened increments the live session gauge.
func SessionOpened() { activeSessions.Inc() }

// SessionClosed decrements the live session gauge.
func SessionClosed() { activeSessions.Dec() }

// RecordIngestion records a completed course ingestion.
func RecordIngestion(chunks int) {
	ingestedCourses.Inc()
	ingestedChunks.Add(float64(chunks))
}
