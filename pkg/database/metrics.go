package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exposes pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	pool *pgxpool.Pool

	acquiredConns   *prometheus.Desc
	idleConns       *prometheus.Desc
	totalConns      *prometheus.Desc
	maxConns        *prometheus.Desc
	acquireCount    *prometheus.Desc
	acquireDuration *prometheus.Desc
	emptyAcquire    *prometheus.Desc
	canceledAcquire *prometheus.Desc
}

// NewPoolStatsCollector creates a collector for the given pool. The dbName
// label distinguishes pools when a process holds more than one.
func NewPoolStatsCollector(pool *pgxpool.Pool, dbName string) *PoolStatsCollector {
	labels := prometheus.Labels{"db_name": dbName}
	return &PoolStatsCollector{
		pool: pool,
		acquiredConns: prometheus.NewDesc(
			"pgxpool_acquired_conns",
			"Number of currently acquired connections in the pool",
			nil, labels,
		),
		idleConns: prometheus.NewDesc(
			"pgxpool_idle_conns",
			"Number of currently idle connections in the pool",
			nil, labels,
		),
		totalConns: prometheus.NewDesc(
			"pgxpool_total_conns",
			"Total number of connections in the pool",
			nil, labels,
		),
		maxConns: prometheus.NewDesc(
			"pgxpool_max_conns",
			"Maximum size of the pool",
			nil, labels,
		),
		acquireCount: prometheus.NewDesc(
			"pgxpool_acquire_count_total",
			"Cumulative count of successful connection acquires",
			nil, labels,
		),
		acquireDuration: prometheus.NewDesc(
			"pgxpool_acquire_duration_seconds_total",
			"Total duration of all successful connection acquires",
			nil, labels,
		),
		emptyAcquire: prometheus.NewDesc(
			"pgxpool_empty_acquire_count_total",
			"Cumulative count of acquires that waited for a connection",
			nil, labels,
		),
		canceledAcquire: prometheus.NewDesc(
			"pgxpool_canceled_acquire_count_total",
			"Cumulative count of acquires canceled by context",
			nil, labels,
		),
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.emptyAcquire
	ch <- c.canceledAcquire
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stats.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stats.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stats.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stats.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stats.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, stats.AcquireDuration().Seconds())
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(stats.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.canceledAcquire, prometheus.CounterValue, float64(stats.CanceledAcquireCount()))
}

// RegisterPoolMetrics registers a pool stats collector with the given registerer.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, dbName string) error {
	return reg.Register(NewPoolStatsCollector(pool, dbName))
}
