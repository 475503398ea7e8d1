package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics covers Redis commands and Postgres queries. It implements the
// redis adapter's CommandObserver and the postgres adapter's QueryObserver.
type StorageMetrics struct {
	RedisOps        *prometheus.CounterVec
	RedisOpDuration *prometheus.HistogramVec
	RedisDialErrors prometheus.Counter
	DBQueryDuration *prometheus.HistogramVec
	DBErrors        *prometheus.CounterVec

	reg prometheus.Registerer
}

func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		RedisOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "ops_total",
			Help:      "Total number of Redis operations, by command and status.",
		}, []string{"operation", "status"}),
		RedisOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "op_duration_seconds",
			Help:      "Duration of Redis operations in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"operation"}),
		RedisDialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total number of failed Redis dials.",
		}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of Postgres queries in seconds, by leading SQL keyword.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total number of failed Postgres queries.",
		}, []string{"operation"}),
		reg: reg,
	}

	reg.MustRegister(m.RedisOps, m.RedisOpDuration, m.RedisDialErrors, m.DBQueryDuration, m.DBErrors)
	return m
}

func (m *StorageMetrics) ObserveCommand(operation string, duration time.Duration, err error) {
	m.RedisOps.WithLabelValues(operation, status(err)).Inc()
	m.RedisOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *StorageMetrics) ObserveDialError() {
	m.RedisDialErrors.Inc()
}

func (m *StorageMetrics) ObserveQuery(operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBErrors.WithLabelValues(operation).Inc()
	}
}

// WatchPool exports connection counts of a pgx pool, read at scrape time.
func (m *StorageMetrics) WatchPool(pool *pgxpool.Pool) {
	gauge := func(state string, read func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "db",
			Name:        "connections_current",
			Help:        "Current number of Postgres pool connections, by state.",
			ConstLabels: prometheus.Labels{"state": state},
		}, func() float64 {
			return float64(read(pool.Stat()))
		})
	}

	m.reg.MustRegister(
		gauge("acquired", (*pgxpool.Stat).AcquiredConns),
		gauge("idle", (*pgxpool.Stat).IdleConns),
	)
}
