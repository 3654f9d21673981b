// Package metrics exposes prometheus instruments for mesh generation and path
// search. Instruments register on the default registry at init.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridnav_generation_total",
		Help: "Total navigation mesh generations by strategy",
	}, []string{"strategy"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridnav_generation_duration_seconds",
		Help:    "Navigation mesh generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"strategy"})

	meshNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridnav_mesh_nodes",
		Help: "Nodes in the last generated mesh by accessibility",
	}, []string{"accessible"})

	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridnav_search_total",
		Help: "Total path searches by result",
	}, []string{"result"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridnav_search_duration_seconds",
		Help:    "Path search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
	})

	searchExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridnav_search_expanded_nodes",
		Help:    "Nodes expanded per path search",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})
)

// ObserveGeneration records one finished mesh generation.
func ObserveGeneration(strategy string, nodes, accessible int, d time.Duration) {
	generationTotal.WithLabelValues(strategy).Inc()
	generationDuration.WithLabelValues(strategy).Observe(d.Seconds())
	meshNodes.WithLabelValues(label(true)).Set(float64(accessible))
	meshNodes.WithLabelValues(label(false)).Set(float64(nodes - accessible))
}

// ObserveSearch records one finished path search.
func ObserveSearch(ok bool, expanded int, d time.Duration) {
	searchTotal.WithLabelValues(result(ok)).Inc()
	searchDuration.Observe(d.Seconds())
	searchExpanded.Observe(float64(expanded))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(ok bool) string {
	if ok {
		return "found"
	}
	return "failed"
}

// label formats a bool the way prometheus labels are written.
func label(b bool) string {
	return strconv.FormatBool(b)
}
