package discord

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pscheid92/countbot/internal/app"
	"github.com/pscheid92/countbot/internal/domain"
	"github.com/pscheid92/countbot/internal/platform/correlation"
)

const eventTimeout = 30 * time.Second

type messageHandler interface {
	OnMessage(ctx context.Context, msg domain.IncomingMessage)
}

type auditHandler interface {
	OnMessageDelete(ctx context.Context, msg domain.DeletedMessage)
	OnReaction(ctx context.Context, ev domain.ReactionEvent)
}

type memberHandler interface {
	OnMemberUpdate(ctx context.Context, guildID string, before *domain.Member, after domain.Member) (domain.RoleAction, error)
}

type identitySetter interface {
	SetBotIdentity(name, avatarURL string)
}

// Handlers are the app services the gateway feeds.
type Handlers struct {
	Messages messageHandler
	Audit    auditHandler
	Members  memberHandler
	Identity identitySetter
	Commands *Commands
	Errors   app.ErrorRecorder
}

// Gateway translates gateway events into app calls. Every event runs with its
// own correlation id and a bounded context.
type Gateway struct {
	h       Handlers
	guildID string

	connected atomic.Bool
}

func NewGateway(h Handlers, guildID string) *Gateway {
	if h.Errors == nil {
		h.Errors = nopRecorder{}
	}
	return &Gateway{h: h, guildID: guildID}
}

// Register attaches all handlers to the session. Call before Open.
func (g *Gateway) Register(s *discordgo.Session) {
	s.AddHandler(g.onReady)
	s.AddHandler(g.onResumed)
	s.AddHandler(g.onDisconnect)
	s.AddHandler(g.onMessageCreate)
	s.AddHandler(g.onMessageDelete)
	s.AddHandler(g.onReactionAdd)
	s.AddHandler(g.onReactionRemove)
	s.AddHandler(g.onMemberUpdate)
	s.AddHandler(g.onInteraction)
}

// Connected reports whether the gateway session is currently usable.
func (g *Gateway) Connected() bool {
	return g.connected.Load()
}

func (g *Gateway) eventContext() (context.Context, context.CancelFunc) {
	ctx := correlation.WithNewID(context.Background())
	return context.WithTimeout(ctx, eventTimeout)
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.connected.Store(true)
	slog.Info("Discord gateway ready", "user", r.User.String(), "guilds", len(r.Guilds))

	if g.h.Identity != nil {
		g.h.Identity.SetBotIdentity(displayName(r.User), r.User.AvatarURL(""))
	}

	if g.h.Commands == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, g.guildID, Definitions(), discordgo.WithContext(ctx)); err != nil {
		slog.ErrorContext(ctx, "Failed to register slash commands", "error", err)
		g.h.Errors.RecordError(ctx, "commands", err)
		return
	}
	slog.InfoContext(ctx, "Slash commands registered", "count", len(Definitions()), "guild", g.guildID)
}

func (g *Gateway) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	g.connected.Store(true)
	slog.Info("Discord gateway resumed")
}

func (g *Gateway) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	g.connected.Store(false)
	slog.Warn("Discord gateway disconnected")
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.ID == selfID(s) {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	g.h.Messages.OnMessage(ctx, toIncomingMessage(m.Message))
}

func (g *Gateway) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	g.h.Audit.OnMessageDelete(ctx, toDeletedMessage(m, channelName(s, m.ChannelID), selfID(s)))
}

func (g *Gateway) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ctx, cancel := g.eventContext()
	defer cancel()

	var isBot bool
	if r.Member != nil && r.Member.User != nil {
		isBot = r.Member.User.Bot
	} else {
		isBot = lookupBot(ctx, s, r.GuildID, r.UserID)
	}
	g.h.Audit.OnReaction(ctx, toReactionEvent(r.MessageReaction, true, isBot))
}

func (g *Gateway) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	ctx, cancel := g.eventContext()
	defer cancel()
	g.h.Audit.OnReaction(ctx, toReactionEvent(r.MessageReaction, false, lookupBot(ctx, s, r.GuildID, r.UserID)))
}

func (g *Gateway) onMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.Member == nil || m.User == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()

	var before *domain.Member
	if m.BeforeUpdate != nil && m.BeforeUpdate.User != nil {
		b := toMember(m.BeforeUpdate)
		before = &b
	}

	action, err := g.h.Members.OnMemberUpdate(ctx, m.GuildID, before, toMember(m.Member))
	if err != nil {
		slog.ErrorContext(ctx, "Booster role sync failed", "user", m.User.ID, "action", action.String(), "error", err)
		g.h.Errors.RecordError(ctx, "booster", err)
		return
	}
	if action != domain.RoleKeep {
		slog.InfoContext(ctx, "Booster role synced", "user", m.User.ID, "action", action.String())
	}
}

func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if g.h.Commands == nil {
		return
	}
	ctx, cancel := g.eventContext()
	defer cancel()
	g.h.Commands.Handle(ctx, s, i.Interaction, func() app.GatewayStats { return Stats(s) })
}

// Stats summarises the session for the status command.
func Stats(s *discordgo.Session) app.GatewayStats {
	stats := app.GatewayStats{Latency: s.HeartbeatLatency()}
	if s.State == nil {
		return stats
	}

	s.State.RLock()
	defer s.State.RUnlock()
	stats.Guilds = len(s.State.Guilds)
	for _, guild := range s.State.Guilds {
		stats.Members += guild.MemberCount
	}
	return stats
}

func selfID(s *discordgo.Session) string {
	if s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

func channelName(s *discordgo.Session, channelID string) string {
	if s.State == nil {
		return ""
	}
	ch, err := s.State.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}

// lookupBot resolves the bot flag of a user from state, falling back to REST.
// Unknown users are treated as humans.
func lookupBot(ctx context.Context, s *discordgo.Session, guildID, userID string) bool {
	if userID == selfID(s) {
		return true
	}
	if s.State != nil {
		if m, err := s.State.Member(guildID, userID); err == nil && m.User != nil {
			return m.User.Bot
		}
	}
	u, err := s.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		slog.DebugContext(ctx, "Could not resolve reacting user", "user", userID, "error", err)
		return false
	}
	return u.Bot
}

type nopRecorder struct{}

func (nopRecorder) RecordError(context.Context, string, error) {}
