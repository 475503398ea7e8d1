package domain

import (
	"context"
	"time"
)

// Embed colours, matching the Discord palette.
const (
	ColorRed    = 0xe74c3c
	ColorGreen  = 0x2ecc71
	ColorBlue   = 0x3498db
	ColorGold   = 0xf1c40f
	ColorYellow = 0xfee75c
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notification is a rendered embed, independent of the chat platform.
type Notification struct {
	Title         string
	Description   string
	Color         int
	Fields        []Field
	AuthorName    string
	AuthorIconURL string
	ThumbnailURL  string
	Footer        string
	FooterIconURL string
	Timestamp     time.Time
}

// Attachment is a file uploaded alongside a notification.
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Sender posts to channels.
type Sender interface {
	Send(ctx context.Context, channelID string, n Notification) (messageID string, err error)
	// Edit replaces the embed of an existing message; ErrMessageNotFound if it is gone.
	Edit(ctx context.Context, channelID, messageID string, n Notification) error
	SendText(ctx context.Context, channelID, text string) error
	SendFiles(ctx context.Context, channelID string, files []Attachment) error
}

// Responder reacts and replies to a specific message.
type Responder interface {
	React(ctx context.Context, channelID, messageID, emoji string) error
	Reply(ctx context.Context, channelID, messageID, text string) error
}

type RoleManager interface {
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// Member is a guild member as seen by the booster features.
type Member struct {
	UserID      string
	DisplayName string
	Roles       []string
	Boosting    bool
}

func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

type MemberDirectory interface {
	ListMembers(ctx context.Context, guildID string) ([]Member, error)
}

// Mention renders a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// ChannelMention renders a channel mention.
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}
