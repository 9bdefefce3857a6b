// Package metrics exposes speech and cache activity as Prometheus
// collectors, optionally served over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors for the process.
type Metrics struct {
	registry *prometheus.Registry

	renders     *prometheus.CounterVec
	renderChars *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_renders_total",
				Help: "Successful renders per speech backend.",
			},
			[]string{"backend"},
		),
		renderChars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tts_render_chars_total",
				Help: "Characters sent per speech backend.",
			},
			[]string{"backend"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tts_cache_hits_total",
			Help: "Artifact cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tts_cache_misses_total",
			Help: "Artifact cache misses.",
		}),
	}
	m.registry.MustRegister(m.renders, m.renderChars, m.cacheHits, m.cacheMisses)
	return m
}

// RecordRender counts one successful render of chars characters.
func (m *Metrics) RecordRender(backend string, chars int) {
	m.renders.WithLabelValues(backend).Inc()
	m.renderChars.WithLabelValues(backend).Add(float64(chars))
}

// RecordCacheHit counts one artifact cache hit.
func (m *Metrics) RecordCacheHit() { m.cacheHits.Inc() }

// RecordCacheMiss counts one artifact cache miss.
func (m *Metrics) RecordCacheMiss() { m.cacheMisses.Inc() }

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
