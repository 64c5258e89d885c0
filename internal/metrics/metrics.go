package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransformsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execgraph_transforms_total",
		Help: "Total number of graph-to-pipeline transforms, labelled by mode (sync, batch).",
	}, []string{"mode"})

	TransformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "execgraph_transform_duration_ms",
		Help:    "Time spent building one execution pipeline, in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	})

	StagesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execgraph_stages_emitted_total",
		Help: "Total number of stage items emitted.",
	})

	ItemStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execgraph_step_status_total",
		Help: "Total number of step items emitted, labelled by general status bucket.",
	}, []string{"bucket"})

	BrokenChains = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execgraph_broken_chains_total",
		Help: "Step walks that stopped on a missing or revisited vertex.",
	})

	DependencyGroups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execgraph_dependency_groups_total",
		Help: "Total number of service-dependency groups built.",
	})

	BatchRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execgraph_batch_rejected_total",
		Help: "Batch entries rejected because the work queue was full.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "execgraph_queue_utilization_ratio",
		Help: "Current batch queue utilization (0–1).",
	})

	ConfigReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execgraph_config_reloads_total",
		Help: "Config reload attempts, labelled by result.",
	}, []string{"result"})
)
