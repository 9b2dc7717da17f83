package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mechanic_service", Name: "job_runs_total", Help: "Background job runs, by job and outcome"},
		[]string{"job", "outcome"},
	)
	JobItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mechanic_service", Name: "job_items_total", Help: "Items processed by background jobs, by job and outcome"},
		[]string{"job", "outcome"},
	)
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mechanic_service",
			Name:      "job_duration_seconds",
			Help:      "Background job run duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)
	SlaBreachesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mechanic_service", Name: "sla_breaches_total", Help: "SLA breaches detected, by stage"},
		[]string{"stage"},
	)
)
