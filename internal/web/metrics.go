// ABOUTME: Prometheus metrics for chat requests, tool calls and index rebuilds
// ABOUTME: Uses a private registry so tests and multiple servers don't collide
package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harper/orpheo/internal/agent"
)

// Metrics holds the server's collectors
type Metrics struct {
	registry     *prometheus.Registry
	chatRequests *prometheus.CounterVec
	chatDuration prometheus.Histogram
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	rebuilds     *prometheus.CounterVec
	documents    prometheus.Gauge
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orpheo",
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"status"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orpheo",
			Name:      "chat_duration_seconds",
			Help:      "Time to answer a chat request.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orpheo",
			Name:      "tool_calls_total",
			Help:      "Agent tool calls by tool and outcome.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orpheo",
			Name:      "tool_call_duration_seconds",
			Help:      "Agent tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orpheo",
			Name:      "index_rebuilds_total",
			Help:      "Document graph rebuilds by outcome.",
		}, []string{"status"}),
		documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orpheo",
			Name:      "documents",
			Help:      "Documents in the served graph.",
		}),
	}

	m.registry.MustRegister(
		m.chatRequests, m.chatDuration,
		m.toolCalls, m.toolDuration,
		m.rebuilds, m.documents,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveToolCall records an agent tool call; pass it as the agents' OnToolCall hook
func (m *Metrics) ObserveToolCall(e agent.ToolEvent) {
	m.toolCalls.WithLabelValues(e.Tool, status(e.Err)).Inc()
	m.toolDuration.WithLabelValues(e.Tool).Observe(e.Duration.Seconds())
}

// ObserveRebuild records a graph rebuild and the resulting document count
func (m *Metrics) ObserveRebuild(err error, documents int) {
	m.rebuilds.WithLabelValues(status(err)).Inc()
	if err == nil {
		m.documents.Set(float64(documents))
	}
}

func (m *Metrics) observeChat(err error, d time.Duration) {
	m.chatRequests.WithLabelValues(status(err)).Inc()
	m.chatDuration.Observe(d.Seconds())
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
