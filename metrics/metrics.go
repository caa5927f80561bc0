// Package metrics exports the shape of an index and the operations run on it
// as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/acadlib/rtree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	indexLabel     = "index"
	operationLabel = "operation"
)

// Operation names recorded by InstrumentOperation.
const (
	OperationAdd        = "add"
	OperationDelete     = "delete"
	OperationIntersects = "intersects"
	OperationContains   = "contains"
	OperationNearest    = "nearest"
)

var (
	operationCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtree_operations",
		Help: "The number of operations run on the index.",
	}, []string{
		operationLabel,
	})

	operationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtree_operation_results",
		Help: "The number of items matched or removed by operations.",
	}, []string{
		operationLabel,
	})

	operationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rtree_operation_latency",
		Help:    "The time to run an operation on the index.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{
		operationLabel,
	})
)

// InstrumentOperation records an operation that started at start and matched
// or removed the given number of items.
func InstrumentOperation(operation string, start time.Time, results int) {
	labels := prometheus.Labels{operationLabel: operation}

	operationLatency.With(labels).Observe(time.Since(start).Seconds())
	operationCount.With(labels).Inc()
	if results > 0 {
		operationResults.With(labels).Add(float64(results))
	}
}

// StatsSource is implemented by indexes that can describe their shape.
type StatsSource interface {
	Stats() rtree.Stats
}

// Collector is a prometheus.Collector that reads the stats of an index at
// every scrape.
type Collector struct {
	source StatsSource
	items  *prometheus.Desc
	height *prometheus.Desc
	nodes  *prometheus.Desc
	leaves *prometheus.Desc
}

// NewCollector creates a collector for the given index. The name is attached
// to every metric as the index label.
func NewCollector(name string, source StatsSource) *Collector {
	labels := prometheus.Labels{indexLabel: name}

	return &Collector{
		source: source,
		items: prometheus.NewDesc(
			"rtree_items",
			"The number of items in the index.",
			nil, labels,
		),
		height: prometheus.NewDesc(
			"rtree_height",
			"The number of levels in the index.",
			nil, labels,
		),
		nodes: prometheus.NewDesc(
			"rtree_nodes",
			"The number of nodes in the index.",
			nil, labels,
		),
		leaves: prometheus.NewDesc(
			"rtree_leaves",
			"The number of leaf nodes in the index.",
			nil, labels,
		),
	}
}

// Describe sends the descriptors of the index metrics to ch.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.height
	ch <- c.nodes
	ch <- c.leaves
}

// Collect reads the index stats and sends them to ch as gauges.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(s.Items))
	ch <- prometheus.MustNewConstMetric(c.height, prometheus.GaugeValue, float64(s.Height))
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(s.Nodes))
	ch <- prometheus.MustNewConstMetric(c.leaves, prometheus.GaugeValue, float64(s.Leaves))
}
