package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "countbot"

// Metrics bundles every metric group of the bot on one registry.
type Metrics struct {
	Registry      *prometheus.Registry
	Counting      *CountingMetrics
	Notifications *NotificationMetrics
	Storage       *StorageMetrics
	Breakers      *BreakerMetrics
	HTTP          *HTTPMetrics
}

func New() *Metrics {
	reg := NewRegistry()
	return &Metrics{
		Registry:      reg,
		Counting:      NewCountingMetrics(reg),
		Notifications: NewNotificationMetrics(reg),
		Storage:       NewStorageMetrics(reg),
		Breakers:      NewBreakerMetrics(reg),
		HTTP:          NewHTTPMetrics(reg),
	}
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry, continuing past individual collector failures.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
