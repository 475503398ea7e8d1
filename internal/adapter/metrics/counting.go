package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/countbot/internal/domain"
)

// CountingMetrics tracks the counting game, save economy, decay sweeps and ping alerts.
// It implements the app layer's CountingObserver, PingObserver and DecayObserver.
type CountingMetrics struct {
	Submissions   *prometheus.CounterVec
	Current       prometheus.Gauge
	Record        prometheus.Gauge
	SavesClaimed  *prometheus.CounterVec
	DecayAccounts prometheus.Counter
	PingAlerts    prometheus.Counter
}

func NewCountingMetrics(reg prometheus.Registerer) *CountingMetrics {
	m := &CountingMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "count",
			Name:      "submissions_total",
			Help:      "Total number of judged counting submissions, by verdict.",
		}, []string{"verdict"}),
		Current: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "count",
			Name:      "current",
			Help:      "Next number expected in the counting channel.",
		}),
		Record: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "count",
			Name:      "record",
			Help:      "Highest number ever reached.",
		}),
		SavesClaimed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_claimed_total",
			Help:      "Total number of save claims, by result.",
		}, []string{"result"}),
		DecayAccounts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decay_accounts_total",
			Help:      "Total number of accounts that lost a save to inactivity.",
		}),
		PingAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ping_alerts_total",
			Help:      "Total number of excessive ping alerts raised.",
		}),
	}

	reg.MustRegister(m.Submissions, m.Current, m.Record, m.SavesClaimed, m.DecayAccounts, m.PingAlerts)
	return m
}

func (m *CountingMetrics) OnJudgement(j domain.Judgement) {
	m.Submissions.WithLabelValues(j.Verdict.String()).Inc()
	m.Current.Set(float64(j.State.CurrentCount))
	m.Record.Set(float64(j.State.HighestCount))
}

// SetState primes the gauges after the game is loaded at startup.
func (m *CountingMetrics) SetState(state domain.GameState) {
	m.Current.Set(float64(state.CurrentCount))
	m.Record.Set(float64(state.HighestCount))
}

func (m *CountingMetrics) OnClaim(result domain.ClaimResult) {
	m.SavesClaimed.WithLabelValues(result.String()).Inc()
}

func (m *CountingMetrics) OnDecay(accounts int64) {
	m.DecayAccounts.Add(float64(accounts))
}

func (m *CountingMetrics) OnPingAlert() {
	m.PingAlerts.Inc()
}
