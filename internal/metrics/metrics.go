// Package metrics exposes Prometheus instruments for the chat loop and an
// optional HTTP endpoint to scrape them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatloop"

// Metrics groups all Prometheus instruments used by the chat session.
type Metrics struct {
	registry *prometheus.Registry

	Turns             prometheus.Counter
	GenerationLatency prometheus.Histogram
	GenerationErrors  *prometheus.CounterVec
	FallbackReplies   prometheus.Counter
	PromptEchoMisses  prometheus.Counter
	StopTruncations   *prometheus.CounterVec
	MemoryTurns       prometheus.Gauge
	PromptLengthChars prometheus.Histogram
}

// New creates the instruments on a private registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed user-bot exchanges.",
		}),
		GenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of generation backend calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		GenerationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Failed generation calls by error kind.",
		}, []string{"kind"}),
		FallbackReplies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_replies_total",
			Help:      "Turns where the extracted reply was empty and the fallback message was used.",
		}),
		PromptEchoMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_echo_misses_total",
			Help:      "Generations that did not start with the prompt.",
		}),
		StopTruncations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stop_marker_truncations_total",
			Help:      "Replies cut short by a stop marker, by marker.",
		}, []string{"marker"}),
		MemoryTurns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_turns",
			Help:      "Turns currently held in conversation memory.",
		}),
		PromptLengthChars: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_length_chars",
			Help:      "Length of prompts sent to the backend, in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
		}),
	}
}

// Registry returns the registry the instruments live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveGeneration records the duration of a backend call and, when it
// failed, its error kind.
func (m *Metrics) ObserveGeneration(d time.Duration, errKind string) {
	m.GenerationLatency.Observe(d.Seconds())
	if errKind != "" {
		m.GenerationErrors.WithLabelValues(errKind).Inc()
	}
}
