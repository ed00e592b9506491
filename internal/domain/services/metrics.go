package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_snapshot_builds_total",
		Help: "Snapshot rebuilds by result",
	}, []string{"result"})

	graphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_graph_nodes",
		Help: "Nodes in the published graph",
	})

	graphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_graph_edges",
		Help: "Edges in the published graph",
	})

	ruleFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_rule_fired_total",
		Help: "Risk factors produced by rule",
	}, []string{"rule"})

	ruleDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_rule_degraded_total",
		Help: "Rule evaluations skipped for missing inputs",
	}, []string{"rule"})

	scoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentinel_score_duration_seconds",
		Help:    "Time to score tenders",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"operation"})
)
