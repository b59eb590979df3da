package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireflow_provider_attempts_total",
			Help: "Calls made to an external provider, by chain and provider",
		},
		[]string{"chain", "provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireflow_provider_failures_total",
			Help: "Failed calls to an external provider, by chain and provider",
		},
		[]string{"chain", "provider"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hireflow_provider_duration_seconds",
			Help:    "Latency of external provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider"},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireflow_extractions_total",
			Help: "Resume extractions by resulting profile source",
		},
		[]string{"source"},
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hireflow_ranking_duration_seconds",
			Help:    "Duration of ranking requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"direction", "mode"},
	)

	RankingsDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireflow_rankings_degraded_total",
			Help: "Rankings that fell back to baseline scores",
		},
		[]string{"direction"},
	)

	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireflow_sync_items_total",
			Help: "Profiles processed by embedding sync, by owner type and outcome",
		},
		[]string{"owner_type", "outcome"},
	)
)
