package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreStats is the view of the key-value store the collector needs.
type StoreStats interface {
	Len() int
	ShardKeys() []int
}

// StoreCollector reports store size at scrape time.
type StoreCollector struct {
	store StoreStats

	keys      *prometheus.Desc
	shards    *prometheus.Desc
	shardKeys *prometheus.Desc
}

// NewStoreCollector creates a collector over store.
func NewStoreCollector(store StoreStats) *StoreCollector {
	return &StoreCollector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of keys currently stored.",
			nil, nil,
		),
		shards: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "shards"),
			"Number of shards in the in-memory store.",
			nil, nil,
		),
		shardKeys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "shard_keys"),
			"Number of keys held by each shard.",
			[]string{"shard"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.shards
	ch <- c.shardKeys
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.store.ShardKeys()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len()))
	ch <- prometheus.MustNewConstMetric(c.shards, prometheus.GaugeValue, float64(len(counts)))
	for i, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.shardKeys, prometheus.GaugeValue, float64(n), strconv.Itoa(i))
	}
}
