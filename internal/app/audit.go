package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pscheid92/countbot/internal/domain"
)

type auditDispatcher interface {
	MessageDeleted(ctx context.Context, msg domain.DeletedMessage, files []domain.Attachment)
	Reaction(ctx context.Context, ev domain.ReactionEvent)
}

// AuditLog keeps copies of posted media and reports deletions and reactions
// to the moderation log channels.
type AuditLog struct {
	cache      domain.MediaCache
	fetcher    domain.MediaFetcher
	dispatcher auditDispatcher
}

func NewAuditLog(cache domain.MediaCache, fetcher domain.MediaFetcher, dispatcher auditDispatcher) *AuditLog {
	return &AuditLog{
		cache:      cache,
		fetcher:    fetcher,
		dispatcher: dispatcher,
	}
}

// CacheMedia downloads the message's attachments and stores them so they can be
// re-posted if the message gets deleted. Attachments that fail to download are skipped.
func (a *AuditLog) CacheMedia(ctx context.Context, msg domain.IncomingMessage) {
	if len(msg.Attachments) == 0 {
		return
	}

	files := make([]domain.Attachment, 0, len(msg.Attachments))
	for _, ref := range msg.Attachments {
		data, err := a.fetcher.Fetch(ctx, ref.URL)
		if err != nil {
			slog.WarnContext(ctx, "Failed to download attachment", "message", msg.ID, "filename", ref.Filename, "error", err)
			continue
		}
		files = append(files, domain.Attachment{Filename: ref.Filename, Data: data})
	}
	if len(files) == 0 {
		return
	}

	cached := domain.CachedMessage{
		MessageID:   msg.ID,
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		ChannelID:   msg.ChannelID,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
		Attachments: files,
	}
	if err := a.cache.Put(ctx, cached); err != nil {
		slog.WarnContext(ctx, "Failed to cache media", "message", msg.ID, "error", err)
		return
	}
	slog.DebugContext(ctx, "Media cached", "message", msg.ID, "files", len(files))
}

// OnMessageDelete logs a deleted message together with any media cached for it.
// The bot's own messages are ignored, as are messages nothing is known about.
func (a *AuditLog) OnMessageDelete(ctx context.Context, msg domain.DeletedMessage) {
	if msg.AuthorIsSelf {
		return
	}

	cached, err := a.cache.Pop(ctx, msg.MessageID)
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		slog.WarnContext(ctx, "Media cache lookup failed", "message", msg.MessageID, "error", err)
	}

	var files []domain.Attachment
	if cached != nil {
		files = cached.Attachments
		if msg.AuthorID == "" {
			msg.AuthorID = cached.AuthorID
			msg.AuthorName = cached.AuthorName
		}
		if msg.Content == "" {
			msg.Content = cached.Content
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = cached.CreatedAt
		}
	}

	if msg.AuthorID == "" {
		slog.DebugContext(ctx, "Deleted message unknown, not logging", "message", msg.MessageID)
		return
	}

	a.dispatcher.MessageDeleted(ctx, msg, files)
}

// OnReaction logs reactions by humans.
func (a *AuditLog) OnReaction(ctx context.Context, ev domain.ReactionEvent) {
	if ev.UserIsBot {
		return
	}
	a.dispatcher.Reaction(ctx, ev)
}
