package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/domain"
)

const countdownInterval = 10 * time.Second

// CountdownTicker keeps one message in the countdown channel showing the time
// left until the target date. The message id survives restarts in the state store.
type CountdownTicker struct {
	sender    domain.Sender
	store     domain.StateStore
	channelID string
	title     string
	target    time.Time
	clock     clockwork.Clock

	messageID string
}

func NewCountdownTicker(sender domain.Sender, store domain.StateStore, channelID, title string, target time.Time, clock clockwork.Clock) *CountdownTicker {
	return &CountdownTicker{
		sender:    sender,
		store:     store,
		channelID: channelID,
		title:     title,
		target:    target,
		clock:     clock,
	}
}

// Run refreshes the countdown every 10 seconds until ctx is cancelled.
func (t *CountdownTicker) Run(ctx context.Context) {
	if t.channelID == "" {
		slog.InfoContext(ctx, "Countdown channel not configured, countdown disabled")
		return
	}

	if err := t.restore(ctx); err != nil {
		slog.WarnContext(ctx, "Countdown message id not restored", "error", err)
	}
	t.refresh(ctx)

	ticker := t.clock.NewTicker(countdownInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.refresh(ctx)
		}
	}
}

func (t *CountdownTicker) restore(ctx context.Context) error {
	id, err := t.store.Get(ctx, domain.KeyCountdownMessageID)
	if errors.Is(err, domain.ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load countdown message id: %w", err)
	}
	t.messageID = id
	return nil
}

func (t *CountdownTicker) refresh(ctx context.Context) {
	n := t.Render()

	if t.messageID != "" {
		err := t.sender.Edit(ctx, t.channelID, t.messageID, n)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrMessageNotFound) {
			slog.WarnContext(ctx, "Failed to edit countdown message", "message", t.messageID, "error", err)
			return
		}
		slog.InfoContext(ctx, "Countdown message gone, posting a new one", "message", t.messageID)
	}

	if err := t.create(ctx, n); err != nil {
		slog.WarnContext(ctx, "Failed to post countdown message", "error", err)
	}
}

func (t *CountdownTicker) create(ctx context.Context, n domain.Notification) error {
	id, err := t.sender.Send(ctx, t.channelID, n)
	if err != nil {
		return fmt.Errorf("failed to send countdown: %w", err)
	}
	t.messageID = id
	if err := t.store.Set(ctx, domain.KeyCountdownMessageID, id); err != nil {
		return fmt.Errorf("failed to store countdown message id: %w", err)
	}
	return nil
}

// Render builds the countdown embed for the current time.
func (t *CountdownTicker) Render() domain.Notification {
	c := domain.CountdownUntil(t.clock.Now(), t.target)
	return domain.Notification{
		Title: t.title,
		Description: fmt.Sprintf("Time remaining until %s:\n**%d** months, **%d** days, **%d** hours, **%d** minutes, **%d** seconds",
			t.target.UTC().Format("02 Jan 2006"), c.Months, c.Days, c.Hours, c.Minutes, c.Seconds),
		Color: domain.ColorYellow,
	}
}
