package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pscheid92/countbot/internal/domain"
)

type mediaCacher interface {
	CacheMedia(ctx context.Context, msg domain.IncomingMessage)
}

type countingSubmitter interface {
	IsCountingChannel(channelID string) bool
	Submit(ctx context.Context, sub domain.Submission) (*domain.Judgement, error)
}

type mentionTracker interface {
	OnMention(ctx context.Context, target domain.UserRef, pingerID string) bool
}

// MessageRouter sends each incoming message to the features that care about it:
// media caching for every message, then either the counting game or the ping
// detector for messages written by humans.
type MessageRouter struct {
	media mediaCacher
	game  countingSubmitter
	pings mentionTracker

	wg sync.WaitGroup
}

func NewMessageRouter(media mediaCacher, game countingSubmitter, pings mentionTracker) *MessageRouter {
	return &MessageRouter{media: media, game: game, pings: pings}
}

func (r *MessageRouter) OnMessage(ctx context.Context, msg domain.IncomingMessage) {
	if len(msg.Attachments) > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.media.CacheMedia(context.WithoutCancel(ctx), msg)
		}()
	}

	if msg.AuthorIsBot {
		return
	}

	if r.game.IsCountingChannel(msg.ChannelID) {
		sub := domain.Submission{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID,
			GuildID:   msg.GuildID,
			UserID:    msg.AuthorID,
			UserName:  msg.AuthorName,
			AvatarURL: msg.AuthorAvatarURL,
			Text:      msg.Content,
		}
		if _, err := r.game.Submit(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Counting submission failed", "message", msg.ID, "user", msg.AuthorID, "error", err)
		}
		return
	}

	for _, target := range msg.Mentions {
		r.pings.OnMention(ctx, target, msg.AuthorID)
	}
}

// Wait blocks until all pending media downloads have finished.
func (r *MessageRouter) Wait() {
	r.wg.Wait()
}
