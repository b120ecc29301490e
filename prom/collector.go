package prom

import (
	"time"

	"github.com/hupe1980/kanon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "kanon"

// Collector implements kanon.MetricsCollector with Prometheus metrics.
// It is safe for concurrent use.
type Collector struct {
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	phaseDuration  *prometheus.HistogramVec
	phasesChanged  *prometheus.CounterVec
	recordsMoved   prometheus.Counter
	clustersSplit  prometheus.Counter
	clustersMerged prometheus.Counter
	rounds         prometheus.Histogram
	finalLoss      prometheus.Gauge
	clusters       prometheus.Gauge
}

var _ kanon.MetricsCollector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace replaces DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithConstLabels attaches labels to every metric, e.g. the dataset name.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) { o.constLabels = labels }
}

// NewCollector creates the metrics and registers them with reg. It panics
// if a metric of the same name is already registered, like
// prometheus.MustRegister.
func NewCollector(reg prometheus.Registerer, optFns ...Option) *Collector {
	o := options{namespace: DefaultNamespace}
	for _, fn := range optFns {
		fn(&o)
	}
	f := promauto.With(reg)
	ns, cl := o.namespace, o.constLabels

	return &Collector{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "runs_total", ConstLabels: cl,
			Help: "Completed Execute calls by outcome: ok, not_converged or error.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "run_duration_seconds", ConstLabels: cl,
			Help:    "Wall time of Execute calls.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 18),
		}),
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "phase_duration_seconds", ConstLabels: cl,
			Help:    "Wall time of optimizer phases.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 20),
		}, []string{"phase"}),
		phasesChanged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "phases_changed_total", ConstLabels: cl,
			Help: "Optimizer phases that modified the partition.",
		}, []string{"phase"}),
		recordsMoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "records_moved_total", ConstLabels: cl,
			Help: "Records moved between clusters.",
		}),
		clustersSplit: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "clusters_split_total", ConstLabels: cl,
			Help: "Oversized clusters split in two.",
		}),
		clustersMerged: f.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "clusters_merged_total", ConstLabels: cl,
			Help: "Undersized clusters merged while finalizing.",
		}),
		rounds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "rounds", ConstLabels: cl,
			Help:    "Move/split rounds per run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		}),
		finalLoss: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "final_loss", ConstLabels: cl,
			Help: "Normalized final loss of the last successful run.",
		}),
		clusters: f.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "clusters", ConstLabels: cl,
			Help: "Number of clusters of the last successful run.",
		}),
	}
}

// RecordPhase implements kanon.MetricsCollector.
func (c *Collector) RecordPhase(phase kanon.Phase, duration time.Duration, changed bool) {
	name := phase.String()
	c.phaseDuration.WithLabelValues(name).Observe(duration.Seconds())
	if changed {
		c.phasesChanged.WithLabelValues(name).Inc()
	}
}

// RecordRun implements kanon.MetricsCollector.
func (c *Collector) RecordRun(stats *kanon.Statistics, duration time.Duration, err error) {
	c.runDuration.Observe(duration.Seconds())
	if err != nil {
		c.runs.WithLabelValues("error").Inc()
		return
	}
	if stats.Converged {
		c.runs.WithLabelValues("ok").Inc()
	} else {
		c.runs.WithLabelValues("not_converged").Inc()
	}
	c.recordsMoved.Add(float64(stats.RecordsMoved))
	c.clustersSplit.Add(float64(stats.ClustersSplit))
	c.clustersMerged.Add(float64(stats.ClustersMerged))
	c.rounds.Observe(float64(stats.Rounds))
	c.finalLoss.Set(stats.FinalLoss)
	c.clusters.Set(float64(stats.NumberOfClusters))
}
