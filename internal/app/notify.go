package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxDeletedContent = 2048
	dispatchRate      = 2
	dispatchBurst     = 5
)

// Notification kinds, used as metric labels.
const (
	KindPingAlert  = "ping_alert"
	KindBadCounter = "bad_counter"
	KindDeletion   = "deletion"
	KindReaction   = "reaction"
)

var (
	linkPattern     = regexp.MustCompile(`https?://\S+`)
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}
)

// LogChannels maps each notification kind to its destination. Empty entries
// disable that kind.
type LogChannels struct {
	Pings     string
	CountLog  string
	Deletions string
	Reactions string
}

// Dispatcher formats moderation notifications and posts them to their log channels.
// Delivery failures are logged and reported to the observer, never returned.
type Dispatcher struct {
	sender   domain.Sender
	channels LogChannels
	limiter  *rate.Limiter
	clock    clockwork.Clock
	observer NotificationObserver

	mu        sync.RWMutex
	botName   string
	botAvatar string
}

func NewDispatcher(sender domain.Sender, channels LogChannels, clock clockwork.Clock) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		channels: channels,
		limiter:  rate.NewLimiter(rate.Limit(dispatchRate), dispatchBurst),
		clock:    clock,
		observer: noopObserver{},
	}
}

func (d *Dispatcher) Observe(o NotificationObserver) {
	d.observer = o
}

// SetBotIdentity sets the name and avatar used in notification footers.
func (d *Dispatcher) SetBotIdentity(name, avatarURL string) {
	d.mu.Lock()
	d.botName, d.botAvatar = name, avatarURL
	d.mu.Unlock()
}

func (d *Dispatcher) identity() (string, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.botName, d.botAvatar
}

// PingAlert reports a user who received too many mentions.
func (d *Dispatcher) PingAlert(ctx context.Context, alert domain.PingAlert) {
	pingers := make([]string, 0, len(alert.Pings))
	for _, id := range alert.Pingers() {
		pingers = append(pingers, domain.Mention(id))
	}

	name, avatar := d.identity()
	n := domain.Notification{
		Title:       "🚨 Excessive Ping Alert",
		Description: fmt.Sprintf("User **%s** received excessive pings!", alert.TargetName),
		Color:       domain.ColorRed,
		Fields: []domain.Field{
			{Name: "Pinged User", Value: domain.Mention(alert.TargetID)},
			{Name: "Pings Received", Value: fmt.Sprintf("%d pings within %d seconds", len(alert.Pings), int(alert.Window.Seconds()))},
			{Name: "Pingers", Value: strings.Join(pingers, ", ")},
		},
		Footer:        "Detected by " + name,
		FooterIconURL: avatar,
		Timestamp:     d.clock.Now(),
	}
	d.send(ctx, KindPingAlert, d.channels.Pings, n)
}

// BadCounter records that the punitive role was assigned.
func (d *Dispatcher) BadCounter(ctx context.Context, user domain.UserRef, avatarURL string, lockouts int, at time.Time) {
	n := domain.Notification{
		Title:       "Bad Counter Role Assigned",
		Description: fmt.Sprintf("%s has been locked out %d times and was assigned the 'bad counter' role.", domain.Mention(user.ID), lockouts),
		Color:       domain.ColorRed,
		Fields: []domain.Field{
			{Name: "User", Value: fmt.Sprintf("%s (%s)", user.Name, user.ID)},
			{Name: "Timestamp", Value: at.UTC().Format("2006-01-02 15:04:05") + " UTC"},
		},
		ThumbnailURL: avatarURL,
		Footer:       "Counting Game Log",
	}
	d.send(ctx, KindBadCounter, d.channels.CountLog, n)
}

// MessageDeleted logs a deleted message, then its images, then its videos, then
// one line per link found in the content.
func (d *Dispatcher) MessageDeleted(ctx context.Context, msg domain.DeletedMessage, files []domain.Attachment) {
	channelID := d.channels.Deletions
	if channelID == "" {
		return
	}

	content := msg.Content
	if content == "" {
		content = "[Media deleted]"
	}
	content = truncate(content, maxDeletedContent)
	links := ExtractLinks(msg.Content)

	n := domain.Notification{
		Title: "🗑️ Message Deleted",
		Description: fmt.Sprintf("A message sent by **%s** was deleted in **%s**\n\n**Original Message Content:**\n%s",
			msg.AuthorName, msg.ChannelName, content),
		Color:         domain.ColorRed,
		AuthorName:    msg.AuthorName,
		AuthorIconURL: msg.AuthorAvatarURL,
		Footer:        fmt.Sprintf("User ID: %s | Message ID: %s", msg.AuthorID, msg.MessageID),
	}
	if !msg.CreatedAt.IsZero() {
		n.Fields = append(n.Fields, domain.Field{Name: "Timestamp", Value: fmt.Sprintf("Sent at <t:%d:f>", msg.CreatedAt.Unix())})
	}
	if len(links) > 0 {
		n.Fields = append(n.Fields, domain.Field{Name: "Links in Message", Value: "Links have been logged separately."})
	}
	d.send(ctx, KindDeletion, channelID, n)

	images, videos := SplitMedia(files)
	d.sendFiles(ctx, channelID, images)
	d.sendFiles(ctx, channelID, videos)

	for _, link := range links {
		d.sendText(ctx, channelID, "🔗 **Link:** "+link)
	}
}

// Reaction logs a reaction being added or removed.
func (d *Dispatcher) Reaction(ctx context.Context, ev domain.ReactionEvent) {
	title, color := "Reaction Removed", domain.ColorRed
	if ev.Added {
		title, color = "Reaction Added", domain.ColorGreen
	}

	now := d.clock.Now()
	n := domain.Notification{
		Title: title,
		Color: color,
		Fields: []domain.Field{
			{Name: "User", Value: domain.Mention(ev.UserID), Inline: true},
			{Name: "Channel", Value: domain.ChannelMention(ev.ChannelID), Inline: true},
			{Name: "Message", Value: fmt.Sprintf("[Jump to message](%s)", domain.MessageURL(ev.GuildID, ev.ChannelID, ev.MessageID)), Inline: true},
			{Name: "Reaction", Value: ev.Emoji, Inline: true},
			{Name: "Time", Value: fmt.Sprintf("<t:%d:f>", now.Unix())},
		},
		Timestamp: now,
	}
	d.send(ctx, KindReaction, d.channels.Reactions, n)
}

func (d *Dispatcher) send(ctx context.Context, kind, channelID string, n domain.Notification) {
	if channelID == "" {
		slog.DebugContext(ctx, "Notification channel not configured, dropping", "kind", kind)
		return
	}
	if err := d.limiter.Wait(ctx); err != nil {
		d.observer.OnNotification(kind, err)
		return
	}
	_, err := d.sender.Send(ctx, channelID, n)
	d.observer.OnNotification(kind, err)
	if err != nil {
		slog.WarnContext(ctx, "Failed to send notification", "kind", kind, "channel", channelID, "error", err)
	}
}

func (d *Dispatcher) sendFiles(ctx context.Context, channelID string, files []domain.Attachment) {
	if len(files) == 0 {
		return
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}
	if err := d.sender.SendFiles(ctx, channelID, files); err != nil {
		slog.WarnContext(ctx, "Failed to send files", "channel", channelID, "count", len(files), "error", err)
	}
}

func (d *Dispatcher) sendText(ctx context.Context, channelID, text string) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}
	if err := d.sender.SendText(ctx, channelID, text); err != nil {
		slog.WarnContext(ctx, "Failed to send text", "channel", channelID, "error", err)
	}
}

// ExtractLinks returns every http(s) URL in text, in order of appearance.
func ExtractLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// SplitMedia separates images and videos by file extension. Other files are dropped.
func SplitMedia(files []domain.Attachment) (images, videos []domain.Attachment) {
	for _, f := range files {
		name := strings.ToLower(f.Filename)
		switch {
		case hasAnySuffix(name, imageExtensions):
			images = append(images, f)
		case hasAnySuffix(name, videoExtensions):
			videos = append(videos, f)
		}
	}
	return images, videos
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
