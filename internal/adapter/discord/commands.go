package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/app"
	"github.com/pscheid92/countbot/internal/domain"
)

const (
	cmdCountChannel = "count_channel"
	cmdCollectSave  = "collectsave"
	cmdSave         = "save"
	cmdCountRecord  = "count_record"
	cmdListBoosters = "listboosters"
	cmdPing         = "ping"

	assignBoosterButton = "assign_booster"

	msgGenericFailure   = "Something went wrong, please try again later."
	msgAdminOnly        = "You need administrator permission to use this command."
	msgBoosterRoleUnset = "Extra Booster role not found. Please check your config."
)

// Definitions lists the slash commands registered on ready.
func Definitions() []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     cmdCountChannel,
			Description:              "Set a channel for the counting game.",
			DefaultMemberPermissions: &admin,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "The counting channel",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			}},
		},
		{Name: cmdCollectSave, Description: "Collect your daily save."},
		{Name: cmdSave, Description: "Check your current number of saves."},
		{Name: cmdCountRecord, Description: "Display the highest count achieved in the counting game."},
		{Name: cmdListBoosters, Description: "List all current server boosters."},
		{Name: cmdPing, Description: "Show bot latency, uptime and recent errors."},
	}
}

// interactionAPI is the subset of *discordgo.Session used to answer interactions.
type interactionAPI interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type countingCommands interface {
	SetChannel(ctx context.Context, channelID string) error
	Claim(ctx context.Context, userID string) (domain.Claim, error)
	ClaimReply(c domain.Claim) string
	Saves(ctx context.Context, userID string) (int, error)
	Record() app.RecordView
}

type boosterCommands interface {
	ListBoosters(ctx context.Context, guildID string) (app.BoosterList, error)
	AssignMissing(ctx context.Context, guildID string) (int, error)
}

type statusRenderer interface {
	Render(stats app.GatewayStats, requester, requesterAvatar string) domain.Notification
}

// Commands answers slash commands and the booster button.
type Commands struct {
	game          countingCommands
	boosters      boosterCommands
	status        statusRenderer
	clock         clockwork.Clock
	boosterRoleID string
}

func NewCommands(game countingCommands, boosters boosterCommands, status statusRenderer, clock clockwork.Clock, boosterRoleID string) *Commands {
	return &Commands{
		game:          game,
		boosters:      boosters,
		status:        status,
		clock:         clock,
		boosterRoleID: boosterRoleID,
	}
}

// Handle dispatches one interaction. stats is only evaluated for ping.
func (c *Commands) Handle(ctx context.Context, api interactionAPI, i *discordgo.Interaction, stats func() app.GatewayStats) {
	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = c.command(ctx, api, i, stats)
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == assignBoosterButton {
			err = c.assignBoosters(ctx, api, i)
		}
	default:
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Interaction failed", "type", i.Type.String(), "error", err)
	}
}

func (c *Commands) command(ctx context.Context, api interactionAPI, i *discordgo.Interaction, stats func() app.GatewayStats) error {
	data := i.ApplicationCommandData()
	user := invoker(i)
	if user == nil {
		return fmt.Errorf("interaction %s has no user", i.ID)
	}

	switch data.Name {
	case cmdCountChannel:
		if !isAdmin(i) {
			return respondEphemeral(ctx, api, i, msgAdminOnly)
		}
		channelID := optionString(data.Options, "channel")
		if channelID == "" {
			return respondEphemeral(ctx, api, i, msgGenericFailure)
		}
		if err := c.game.SetChannel(ctx, channelID); err != nil {
			return respondFailure(ctx, api, i, err)
		}
		return respondText(ctx, api, i, "Counting channel has been set to "+domain.ChannelMention(channelID)+".")

	case cmdCollectSave:
		claim, err := c.game.Claim(ctx, user.ID)
		if err != nil {
			return respondFailure(ctx, api, i, err)
		}
		return respondText(ctx, api, i, c.game.ClaimReply(claim))

	case cmdSave:
		saves, err := c.game.Saves(ctx, user.ID)
		if err != nil {
			return respondFailure(ctx, api, i, err)
		}
		return respondText(ctx, api, i, fmt.Sprintf("%s, you currently have %d save(s).", user.Mention(), saves))

	case cmdCountRecord:
		n := c.game.Record().Render(displayName(user), user.AvatarURL(""), c.clock.Now())
		return respondEmbed(ctx, api, i, n, nil)

	case cmdListBoosters:
		if c.boosterRoleID == "" {
			return respondEphemeral(ctx, api, i, msgBoosterRoleUnset)
		}
		list, err := c.boosters.ListBoosters(ctx, i.GuildID)
		if err != nil {
			return respondFailure(ctx, api, i, err)
		}
		return respondEmbed(ctx, api, i, list.Render(), boosterButton())

	case cmdPing:
		return respondEmbed(ctx, api, i, c.status.Render(stats(), displayName(user), user.AvatarURL("")), nil)
	}
	return nil
}

// assignBoosters can take a while on large guilds, so the interaction is
// acknowledged first and answered with a followup.
func (c *Commands) assignBoosters(ctx context.Context, api interactionAPI, i *discordgo.Interaction) error {
	err := api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to defer interaction: %w", err)
	}

	text := msgGenericFailure
	n, assignErr := c.boosters.AssignMissing(ctx, i.GuildID)
	if assignErr == nil {
		text = fmt.Sprintf("Assigned extra booster role to %d member(s).", n)
	}

	_, err = api.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if assignErr != nil {
		if err != nil {
			slog.WarnContext(ctx, "Failed to send failure followup", "interaction", i.ID, "error", err)
		}
		return assignErr
	}
	if err != nil {
		return fmt.Errorf("failed to send followup: %w", err)
	}
	return nil
}

func boosterButton() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Assign Extra Booster Role",
				Style:    discordgo.PrimaryButton,
				CustomID: assignBoosterButton,
			},
		}},
	}
}

func respondText(ctx context.Context, api interactionAPI, i *discordgo.Interaction, text string) error {
	return respond(ctx, api, i, &discordgo.InteractionResponseData{Content: text})
}

func respondEphemeral(ctx context.Context, api interactionAPI, i *discordgo.Interaction, text string) error {
	return respond(ctx, api, i, &discordgo.InteractionResponseData{Content: text, Flags: discordgo.MessageFlagsEphemeral})
}

// respondFailure answers with the generic failure message and returns cause.
func respondFailure(ctx context.Context, api interactionAPI, i *discordgo.Interaction, cause error) error {
	if err := respondEphemeral(ctx, api, i, msgGenericFailure); err != nil {
		slog.WarnContext(ctx, "Failed to send failure reply", "interaction", i.ID, "error", err)
	}
	return cause
}

func respondEmbed(ctx context.Context, api interactionAPI, i *discordgo.Interaction, n domain.Notification, components []discordgo.MessageComponent) error {
	return respond(ctx, api, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{toEmbed(n)},
		Components: components,
	})
}

func respond(ctx context.Context, api interactionAPI, i *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	err := api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to respond to interaction: %w", err)
	}
	return nil
}

func invoker(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func isAdmin(i *discordgo.Interaction) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name == name {
			v, _ := o.Value.(string)
			return v
		}
	}
	return ""
}
