package app

import (
	"context"

	"github.com/pscheid92/countbot/internal/domain"
)

// CountingObserver is notified about counting game activity.
type CountingObserver interface {
	OnJudgement(j domain.Judgement)
	OnClaim(result domain.ClaimResult)
}

type PingObserver interface {
	OnPingAlert()
}

// NotificationObserver is told about every notification delivery attempt.
type NotificationObserver interface {
	OnNotification(kind string, err error)
}

type DecayObserver interface {
	OnDecay(accounts int64)
}

// ErrorRecorder collects errors worth surfacing to operators.
type ErrorRecorder interface {
	RecordError(ctx context.Context, source string, err error)
}

type noopObserver struct{}

func (noopObserver) OnJudgement(domain.Judgement)               {}
func (noopObserver) OnClaim(domain.ClaimResult)                 {}
func (noopObserver) OnPingAlert()                               {}
func (noopObserver) OnNotification(string, error)               {}
func (noopObserver) OnDecay(int64)                              {}
func (noopObserver) RecordError(context.Context, string, error) {}
