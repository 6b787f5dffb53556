package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus instruments. A single instance
// is created at startup and threaded through the handlers and the RAG
// pipeline.
type Metrics struct {
	Uploads         *prometheus.CounterVec
	ChatTurns       *prometheus.CounterVec
	EmbeddingCalls  prometheus.Counter
	LLMCalls        prometheus.Counter
	EmbeddingErrors prometheus.Counter
	LLMErrors       prometheus.Counter
	EmbeddingTime   prometheus.Histogram
	LLMTime         prometheus.Histogram
	ActiveSessions  prometheus.GaugeFunc
}

// New registers the docchat metrics with the default registry.
// activeSessions is sampled on scrape.
func New(activeSessions func() float64) *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_uploads_total",
			Help: "PDF uploads processed, labelled by outcome",
		}, []string{"status"}),
		ChatTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_chat_turns_total",
			Help: "Chat turns processed, labelled by outcome",
		}, []string{"status"}),
		EmbeddingCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docchat_embedding_requests_total",
			Help: "Requests sent to the embedding service",
		}),
		LLMCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docchat_llm_requests_total",
			Help: "Requests sent to the LLM endpoint",
		}),
		EmbeddingErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docchat_embedding_errors_total",
			Help: "Failed embedding service calls",
		}),
		LLMErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docchat_llm_errors_total",
			Help: "Failed LLM calls",
		}),
		EmbeddingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docchat_embedding_duration_seconds",
			Help:    "Latency of embedding service calls",
			Buckets: prometheus.DefBuckets,
		}),
		LLMTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docchat_llm_duration_seconds",
			Help:    "Latency of LLM calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ActiveSessions: promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "docchat_active_sessions",
			Help: "Sessions currently held in memory",
		}, activeSessions),
	}
}

// ObserveEmbedding records one embedding call.
func (m *Metrics) ObserveEmbedding(start time.Time, err error) {
	if m == nil {
		return
	}
	m.EmbeddingCalls.Inc()
	m.EmbeddingTime.Observe(time.Since(start).Seconds())
	if err != nil {
		m.EmbeddingErrors.Inc()
	}
}

// ObserveLLM records one LLM call.
func (m *Metrics) ObserveLLM(start time.Time, err error) {
	if m == nil {
		return
	}
	m.LLMCalls.Inc()
	m.LLMTime.Observe(time.Since(start).Seconds())
	if err != nil {
		m.LLMErrors.Inc()
	}
}

// CountUpload tallies an upload outcome ("ok" or "error").
func (m *Metrics) CountUpload(status string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(status).Inc()
}

// CountChat tallies a chat turn outcome ("ok" or "error").
func (m *Metrics) CountChat(status string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(status).Inc()
}
