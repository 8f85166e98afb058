package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request cache metrics
var (
	// CacheHitsTotal tracks cache lookups served from a fresh entry
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "request_cache_hits_total",
			Help: "Cache lookups served from a fresh entry without an upstream call",
		},
	)

	// CacheMissesTotal tracks cache lookups that required an upstream fetch
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "request_cache_misses_total",
			Help: "Cache lookups that required an upstream fetch",
		},
	)

	// CacheSharedFlightsTotal tracks callers that attached to an in-flight fetch
	CacheSharedFlightsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "request_cache_shared_flights_total",
			Help: "Callers that attached to an already in-flight fetch instead of starting one",
		},
	)

	// CacheFetchDuration tracks upstream fetch latency in seconds
	CacheFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "request_cache_fetch_duration_seconds",
			Help:    "Upstream fetch duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)

// Poll loop metrics
var (
	// PollerTicksTotal tracks poll loop wake-ups by outcome
	PollerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_ticks_total",
			Help: "Poll loop wake-ups by outcome (polled, no_session, no_audience, error)",
		},
		[]string{"outcome"},
	)

	// PollerTickDuration tracks poll tick duration in seconds
	PollerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_tick_duration_seconds",
			Help:    "Poll tick duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

// Broadcast hub metrics
var (
	// HubConnectedClients tracks currently connected WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of currently connected WebSocket clients",
		},
	)

	// HubSlowClientsEvicted tracks clients disconnected for not keeping up
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// HubMessagesSentTotal tracks messages fanned out to clients
	HubMessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_messages_sent_total",
			Help: "Messages fanned out to WebSocket clients",
		},
	)
)

// Notification bus metrics
var (
	// BusPublishedTotal tracks messages published by stream
	BusPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_published_total",
			Help: "Messages published to the notification bus by stream",
		},
		[]string{"stream"},
	)

	// BusDroppedTotal tracks messages dropped because a subscriber buffer was full
	BusDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_dropped_total",
			Help: "Messages dropped for a slow subscriber by stream",
		},
		[]string{"stream"},
	)
)

// Provider metrics
var (
	// ProviderRequestsTotal tracks upstream provider calls by operation and status
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Upstream provider calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// ProviderBreakerState tracks the provider circuit breaker state (0=closed, 1=half-open, 2=open)
	ProviderBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "provider_breaker_state",
			Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)
