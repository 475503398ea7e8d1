package metrics

import "github.com/prometheus/client_golang/prometheus"

type NotificationMetrics struct {
	Sent *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		Sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of log-channel notifications, by kind and delivery status.",
		}, []string{"kind", "status"}),
	}

	reg.MustRegister(m.Sent)
	return m
}

func (m *NotificationMetrics) OnNotification(kind string, err error) {
	m.Sent.WithLabelValues(kind, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
