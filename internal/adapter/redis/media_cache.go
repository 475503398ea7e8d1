package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/countbot/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const defaultMediaTTL = 24 * time.Hour

// MediaCache keeps downloaded attachments of recent messages so they can be
// re-uploaded when the message is deleted.
type MediaCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewMediaCache(rdb *goredis.Client) *MediaCache {
	return &MediaCache{rdb: rdb, ttl: defaultMediaTTL}
}

func (c *MediaCache) Put(ctx context.Context, msg domain.CachedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode cached message: %w", err)
	}
	if err := c.rdb.Set(ctx, mediaKey(msg.MessageID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache media: %w", err)
	}
	return nil
}

// Pop atomically reads and removes the entry.
func (c *MediaCache) Pop(ctx context.Context, messageID string) (*domain.CachedMessage, error) {
	data, err := c.rdb.GetDel(ctx, mediaKey(messageID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop cached media: %w", err)
	}

	var msg domain.CachedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode cached message: %w", err)
	}
	return &msg, nil
}

func mediaKey(messageID string) string {
	return "media:" + messageID
}
