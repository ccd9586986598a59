package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal tracks single requests per source and classification
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqfetch_probes_total",
			Help: "Total number of source requests by classification",
		},
		[]string{"source", "class"},
	)

	// ProbeLatency tracks source request latency
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seqfetch_probe_latency_seconds",
			Help:    "Source request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// RetriesTotal tracks retry waits per source
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqfetch_retries_total",
			Help: "Total number of retries after a failed attempt",
		},
		[]string{"source"},
	)

	// ReplacementsTotal tracks metadata lookups by result
	ReplacementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqfetch_replacement_lookups_total",
			Help: "Total number of obsolete-entry lookups by result",
		},
		[]string{"result"},
	)

	// ItemsTotal tracks processed items by audit status
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seqfetch_items_total",
			Help: "Total number of processed items",
		},
		[]string{"status"},
	)
)
