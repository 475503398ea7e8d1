package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/platform/correlation"
)

const decayInterval = 24 * time.Hour

type inactiveDecayer interface {
	DecayInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

// DecayJob removes one save a day from accounts that stopped claiming. Pass the
// CountingGame as the decayer so sweeps serialise with account updates.
type DecayJob struct {
	accounts inactiveDecayer
	after    time.Duration
	clock    clockwork.Clock
	observer DecayObserver
	errs     ErrorRecorder
}

func NewDecayJob(accounts inactiveDecayer, after time.Duration, clock clockwork.Clock) *DecayJob {
	return &DecayJob{
		accounts: accounts,
		after:    after,
		clock:    clock,
		observer: noopObserver{},
		errs:     noopObserver{},
	}
}

func (j *DecayJob) Observe(o DecayObserver) {
	j.observer = o
}

func (j *DecayJob) RecordErrorsTo(r ErrorRecorder) {
	j.errs = r
}

// Run sweeps once immediately and then every 24 hours. It blocks until ctx is cancelled.
func (j *DecayJob) Run(ctx context.Context) {
	j.sweepLogged(ctx)

	ticker := j.clock.NewTicker(decayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			j.sweepLogged(ctx)
		}
	}
}

func (j *DecayJob) sweepLogged(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())
	if _, err := j.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "Save decay failed", "error", err)
		j.errs.RecordError(ctx, "decay", err)
	}
}

// Sweep decays every account whose last claim is older than the decay period.
func (j *DecayJob) Sweep(ctx context.Context) (int64, error) {
	cutoff := j.clock.Now().Add(-j.after)
	n, err := j.accounts.DecayInactive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to decay inactive accounts: %w", err)
	}

	j.observer.OnDecay(n)
	slog.InfoContext(ctx, "Save decay complete", "accounts", n, "cutoff", cutoff)
	return n, nil
}
