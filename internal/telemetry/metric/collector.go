package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ShardStat describes one shard of a sharded ledger.
type ShardStat struct {
	Index     int
	Allocated bool
	Capacity  int
	Len       int
}

// LedgerStats is a point-in-time view of the ledger.
type LedgerStats struct {
	TotalSupply     float64
	Unused          float64
	Holders         int
	Allowances      int
	Paused          bool
	BalanceShards   []ShardStat
	AllowanceShards []ShardStat
}

// StatsSource yields the current ledger view on every scrape.
type StatsSource interface {
	LedgerStats() LedgerStats
}

// StatsFunc adapts a function to StatsSource.
type StatsFunc func() LedgerStats

// LedgerStats implements StatsSource.
func (f StatsFunc) LedgerStats() LedgerStats { return f() }

// Collector collects ledger gauges from a StatsSource.
type Collector struct {
	source StatsSource

	totalSupply    *prometheus.Desc
	unused         *prometheus.Desc
	holders        *prometheus.Desc
	allowances     *prometheus.Desc
	paused         *prometheus.Desc
	shardCapacity  *prometheus.Desc
	shardLen       *prometheus.Desc
	shardAllocated *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source StatsSource) *Collector {
	shardLabels := []string{"ledger", "shard"}
	return &Collector{
		source:         source,
		totalSupply:    prometheus.NewDesc(Namespace+"_total_supply", "Sum of all balances plus unused supply", nil, nil),
		unused:         prometheus.NewDesc(Namespace+"_unused_supply", "Supply dropped below the minimum balance", nil, nil),
		holders:        prometheus.NewDesc(Namespace+"_holders", "Accounts with a stored balance", nil, nil),
		allowances:     prometheus.NewDesc(Namespace+"_allowances", "Stored allowance entries", nil, nil),
		paused:         prometheus.NewDesc(Namespace+"_paused", "1 when mutations are paused", nil, nil),
		shardCapacity:  prometheus.NewDesc(Namespace+"_shard_capacity", "Fixed capacity of a shard", shardLabels, nil),
		shardLen:       prometheus.NewDesc(Namespace+"_shard_entries", "Entries stored in a shard", shardLabels, nil),
		shardAllocated: prometheus.NewDesc(Namespace+"_shard_allocated", "1 when a shard has been allocated", shardLabels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalSupply
	ch <- c.unused
	ch <- c.holders
	ch <- c.allowances
	ch <- c.paused
	ch <- c.shardCapacity
	ch <- c.shardLen
	ch <- c.shardAllocated
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.LedgerStats()

	ch <- prometheus.MustNewConstMetric(c.totalSupply, prometheus.GaugeValue, s.TotalSupply)
	ch <- prometheus.MustNewConstMetric(c.unused, prometheus.GaugeValue, s.Unused)
	ch <- prometheus.MustNewConstMetric(c.holders, prometheus.GaugeValue, float64(s.Holders))
	ch <- prometheus.MustNewConstMetric(c.allowances, prometheus.GaugeValue, float64(s.Allowances))
	ch <- prometheus.MustNewConstMetric(c.paused, prometheus.GaugeValue, boolGauge(s.Paused))

	c.collectShards(ch, "balances", s.BalanceShards)
	c.collectShards(ch, "allowances", s.AllowanceShards)
}

func (c *Collector) collectShards(ch chan<- prometheus.Metric, ledger string, shards []ShardStat) {
	for _, sh := range shards {
		idx := strconv.Itoa(sh.Index)
		ch <- prometheus.MustNewConstMetric(c.shardCapacity, prometheus.GaugeValue, float64(sh.Capacity), ledger, idx)
		ch <- prometheus.MustNewConstMetric(c.shardLen, prometheus.GaugeValue, float64(sh.Len), ledger, idx)
		ch <- prometheus.MustNewConstMetric(c.shardAllocated, prometheus.GaugeValue, boolGauge(sh.Allocated), ledger, idx)
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
