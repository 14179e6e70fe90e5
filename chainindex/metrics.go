package chainindex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusAppendBlock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainindex_append_block_total",
		Help: "Number of AppendBlock calls handled by the control handler",
	})
	prometheusRollback = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainindex_rollback_total",
		Help: "Number of Rollback calls handled by the control handler",
	})
	prometheusCollectGarbage = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainindex_collect_garbage_total",
		Help: "Number of CollectGarbage calls handled by the control handler",
	})
	prometheusControlErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainindex_control_errors_total",
		Help: "Number of control handler errors by operation",
	}, []string{"operation"})

	prometheusQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainindex_query_duration_seconds",
		Help:    "Latency of query handler methods",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
