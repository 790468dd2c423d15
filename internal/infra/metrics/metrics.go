// Package metrics provides Prometheus metrics for news-chat.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestsTotal counts chat turns by outcome (ok, validation, timeout, error).
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "chat_requests_total",
			Help:      "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	// ChatStageFailuresTotal counts failed chat turns by the stage they failed in.
	ChatStageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "chat_stage_failures_total",
			Help:      "Total number of chat turns that failed, by stage",
		},
		[]string{"stage"},
	)

	// QueryCacheLookupsTotal counts query-cache lookups by result (hit, miss, error).
	QueryCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "query_cache_lookups_total",
			Help:      "Total number of query cache lookups",
		},
		[]string{"result"},
	)

	// UpstreamDuration measures collaborator call duration.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newschat",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of upstream collaborator calls in seconds",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"upstream", "status"},
	)

	// SessionOperationsTotal counts session lifecycle operations.
	SessionOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "session_operations_total",
			Help:      "Total number of session operations",
		},
		[]string{"operation"},
	)

	// ArticlesIndexedTotal counts ingested articles by status.
	ArticlesIndexedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newschat",
			Name:      "articles_indexed_total",
			Help:      "Total number of articles processed by ingestion",
		},
		[]string{"status"},
	)
)

// RecordChat records the outcome of one chat turn.
func RecordChat(outcome string) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordStageFailure records the stage a chat turn failed in.
func RecordStageFailure(stage string) {
	ChatStageFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordQueryCache records a query-cache lookup result.
func RecordQueryCache(result string) {
	QueryCacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveUpstream records the duration of a collaborator call.
func ObserveUpstream(upstream string, err error, seconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamDuration.WithLabelValues(upstream, status).Observe(seconds)
}

// RecordSession records a session operation (create, append, clear).
func RecordSession(operation string) {
	SessionOperationsTotal.WithLabelValues(operation).Inc()
}

// RecordIndexed records the number of articles processed with the given status.
func RecordIndexed(status string, n int) {
	ArticlesIndexedTotal.WithLabelValues(status).Add(float64(n))
}
