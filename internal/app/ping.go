package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/domain"
)

type pingAlerter interface {
	PingAlert(ctx context.Context, alert domain.PingAlert)
}

// PingDetector counts mentions per user in a sliding window and raises one
// alert each time a user collects limit mentions inside it.
type PingDetector struct {
	limit    int
	window   time.Duration
	clock    clockwork.Clock
	alerter  pingAlerter
	observer PingObserver

	mu    sync.Mutex
	pings map[string][]domain.Ping
}

func NewPingDetector(limit int, window time.Duration, clock clockwork.Clock, alerter pingAlerter) *PingDetector {
	return &PingDetector{
		limit:    limit,
		window:   window,
		clock:    clock,
		alerter:  alerter,
		observer: noopObserver{},
		pings:    make(map[string][]domain.Ping),
	}
}

func (p *PingDetector) Observe(o PingObserver) {
	p.observer = o
}

// OnMention records that pingerID mentioned target and reports whether this
// mention triggered an alert.
func (p *PingDetector) OnMention(ctx context.Context, target domain.UserRef, pingerID string) bool {
	alert, fired := p.record(target, pingerID)
	if !fired {
		return false
	}

	slog.InfoContext(ctx, "Excessive pings detected", "target", target.ID, "pings", len(alert.Pings))
	p.observer.OnPingAlert()
	p.alerter.PingAlert(ctx, alert)
	return true
}

func (p *PingDetector) record(target domain.UserRef, pingerID string) (domain.PingAlert, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	window := append(p.pings[target.ID], domain.Ping{At: now, PingerID: pingerID})

	kept := window[:0]
	for _, ping := range window {
		if now.Sub(ping.At) <= p.window {
			kept = append(kept, ping)
		}
	}

	if len(kept) < p.limit {
		p.pings[target.ID] = kept
		return domain.PingAlert{}, false
	}

	delete(p.pings, target.ID)
	return domain.PingAlert{
		TargetID:   target.ID,
		TargetName: target.Name,
		Pings:      kept,
		Window:     p.window,
	}, true
}

// Pending returns how many mentions of userID are currently inside the window.
func (p *PingDetector) Pending(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pings[userID])
}
