package domain

import (
	"context"
	"time"
)

// AttachmentRef points at a file attached to an incoming message.
type AttachmentRef struct {
	URL      string
	Filename string
}

// IncomingMessage is a chat message as delivered by the gateway.
type IncomingMessage struct {
	ID              string
	ChannelID       string
	GuildID         string
	AuthorID        string
	AuthorName      string
	AuthorAvatarURL string
	AuthorIsBot     bool
	Content         string
	CreatedAt       time.Time
	Attachments     []AttachmentRef
	Mentions        []UserRef
}

// UserRef identifies a user together with a display name.
type UserRef struct {
	ID   string
	Name string
}

// CachedMessage keeps a message's media around so it can be logged after deletion.
type CachedMessage struct {
	MessageID   string       `json:"message_id"`
	AuthorID    string       `json:"author_id"`
	AuthorName  string       `json:"author_name"`
	ChannelID   string       `json:"channel_id"`
	Content     string       `json:"content"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments"`
}

type MediaCache interface {
	Put(ctx context.Context, msg CachedMessage) error
	// Pop returns and removes the cached message; ErrCacheMiss if absent.
	Pop(ctx context.Context, messageID string) (*CachedMessage, error)
}

// DeletedMessage is what the gateway knows about a message after deletion.
// Author and content are empty when the message was not in the gateway's state.
type DeletedMessage struct {
	MessageID       string
	ChannelID       string
	ChannelName     string
	AuthorID        string
	AuthorName      string
	AuthorAvatarURL string
	AuthorIsSelf    bool
	Content         string
	CreatedAt       time.Time
}

// ReactionEvent is a reaction being added to or removed from a message.
type ReactionEvent struct {
	Added     bool
	UserID    string
	UserIsBot bool
	GuildID   string
	ChannelID string
	MessageID string
	Emoji     string
}

// MessageURL is the jump link of a message.
func MessageURL(guildID, channelID, messageID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID + "/" + messageID
}

// MediaFetcher downloads attachment bytes.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
