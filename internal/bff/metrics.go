package bff

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	picks    *prometheus.CounterVec
	rejected prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	m := &metrics{
		registry: registry,
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnibox_picks_total",
			Help: "Search results picked, by entity kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "omnibox_picks_rejected_total",
			Help: "Pick events rejected as invalid.",
		}),
	}
	registry.MustRegister(m.picks, m.rejected)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
