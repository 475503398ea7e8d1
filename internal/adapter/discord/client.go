package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pscheid92/countbot/internal/domain"
	"github.com/sony/gobreaker"
)

// restAPI is the subset of *discordgo.Session used for outbound calls.
type restAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// BreakerObserver is notified when the REST circuit breaker changes state.
type BreakerObserver interface {
	OnBreakerStateChange(component, state string)
}

const (
	breakerName         = "discord"
	breakerTripFailures = 5
	breakerTimeout      = 30 * time.Second
	membersPageSize     = 1000
)

var (
	_ domain.Sender          = (*Client)(nil)
	_ domain.Responder       = (*Client)(nil)
	_ domain.RoleManager     = (*Client)(nil)
	_ domain.MemberDirectory = (*Client)(nil)
)

// Client performs REST calls on behalf of the app layer. Consecutive
// server-side failures open the breaker; while open, calls fail immediately
// with gobreaker.ErrOpenState.
type Client struct {
	api restAPI
	cb  *gobreaker.CircuitBreaker
}

func NewClient(api restAPI, observer BreakerObserver) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerTripFailures
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if observer != nil {
				observer.OnBreakerStateChange(name, to.String())
			}
		},
	})
	return &Client{api: api, cb: cb}
}

func (c *Client) State() gobreaker.State {
	return c.cb.State()
}

func (c *Client) do(fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return mapError(err)
}

func (c *Client) Send(ctx context.Context, channelID string, n domain.Notification) (string, error) {
	var id string
	err := c.do(func() error {
		msg, err := c.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{toEmbed(n)},
		}, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
		id = msg.ID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to send embed: %w", err)
	}
	return id, nil
}

func (c *Client) Edit(ctx context.Context, channelID, messageID string, n domain.Notification) error {
	err := c.do(func() error {
		_, err := c.api.ChannelMessageEditComplex(discordgo.NewMessageEdit(channelID, messageID).SetEmbed(toEmbed(n)), discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

func (c *Client) SendText(ctx context.Context, channelID, text string) error {
	err := c.do(func() error {
		_, err := c.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: text}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}

// SendFiles uploads files in batches of ten, the per-message limit.
func (c *Client) SendFiles(ctx context.Context, channelID string, files []domain.Attachment) error {
	for start := 0; start < len(files); start += maxFilesPerMsg {
		batch := files[start:min(start+maxFilesPerMsg, len(files))]
		err := c.do(func() error {
			_, err := c.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Files: toFiles(batch)}, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to upload files: %w", err)
		}
	}
	return nil
}

func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	err := c.do(func() error {
		return c.api.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

func (c *Client) Reply(ctx context.Context, channelID, messageID, text string) error {
	err := c.do(func() error {
		_, err := c.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:   text,
			Reference: &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID},
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reply: %w", err)
	}
	return nil
}

func (c *Client) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	err := c.do(func() error {
		return c.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

func (c *Client) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	err := c.do(func() error {
		return c.api.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// ListMembers pages through the whole guild member list.
func (c *Client) ListMembers(ctx context.Context, guildID string) ([]domain.Member, error) {
	var (
		out   []domain.Member
		after string
	)
	for {
		var page []*discordgo.Member
		err := c.do(func() error {
			var err error
			page, err = c.api.GuildMembers(guildID, after, membersPageSize, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list members: %w", err)
		}

		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, toMember(m))
			after = m.User.ID
		}
		if len(page) < membersPageSize {
			return out, nil
		}
	}
}
