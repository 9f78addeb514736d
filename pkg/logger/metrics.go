package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics registry for Prometheus metrics

var (
	// RefreshCyclesTotal counts fetch-and-compute cycles per symbol and outcome
	RefreshCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_cycles_total",
			Help: "Total number of fetch-and-compute cycles",
		},
		[]string{"symbol", "status"},
	)

	// FetchDuration measures the duration of provider fetch stages
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fetch_duration_seconds",
			Help: "Duration of provider fetch stages in seconds",
		},
		[]string{"stage"},
	)

	// CacheHitsTotal counts cache lookups per sub-cache and result
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"},
	)

	// RequestTotal counts HTTP requests
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// WSConnectionsActive tracks active websocket connections
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of active websocket connections",
		},
	)
)
