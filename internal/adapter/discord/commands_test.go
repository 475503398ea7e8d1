package discord

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/app"
	"github.com/pscheid92/countbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInteractions struct {
	responses   []*discordgo.InteractionResponse
	followups   []*discordgo.WebhookParams
	respondErr  error
	followupErr error
}

func (f *fakeInteractions) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return f.respondErr
}

func (f *fakeInteractions) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	if f.followupErr != nil {
		return nil, f.followupErr
	}
	return &discordgo.Message{}, nil
}

// captureLogs routes the default logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func (f *fakeInteractions) last() *discordgo.InteractionResponseData {
	return f.responses[len(f.responses)-1].Data
}

type fakeGame struct {
	channel string
	claim   domain.Claim
	saves   int
	err     error
}

func (f *fakeGame) SetChannel(_ context.Context, channelID string) error {
	f.channel = channelID
	return f.err
}

func (f *fakeGame) Claim(_ context.Context, _ string) (domain.Claim, error) { return f.claim, f.err }
func (f *fakeGame) ClaimReply(c domain.Claim) string                        { return "claimed:" + c.Result.String() }
func (f *fakeGame) Saves(_ context.Context, _ string) (int, error)          { return f.saves, f.err }
func (f *fakeGame) Record() app.RecordView {
	return app.RecordView{Current: 5, Highest: 10, Progress: 50}
}

type fakeBoosters struct {
	list     app.BoosterList
	assigned int
	err      error
}

func (f *fakeBoosters) ListBoosters(_ context.Context, _ string) (app.BoosterList, error) {
	return f.list, f.err
}

func (f *fakeBoosters) AssignMissing(_ context.Context, _ string) (int, error) {
	return f.assigned, f.err
}

type fakeStatus struct{}

func (fakeStatus) Render(stats app.GatewayStats, requester, _ string) domain.Notification {
	return domain.Notification{Title: "🏓 Pong!", Footer: "Requested by " + requester, Description: stats.Latency.String()}
}

func newTestCommands(roleID string) (*Commands, *fakeGame, *fakeBoosters) {
	game := &fakeGame{}
	boosters := &fakeBoosters{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewCommands(game, boosters, fakeStatus{}, clock, roleID), game, boosters
}

func slashCommand(name string, perms int64, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      "i",
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u", Username: "alice"}, Permissions: perms},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}
}

func noStats() app.GatewayStats { return app.GatewayStats{} }

func TestCommands_CountChannel(t *testing.T) {
	c, game, _ := newTestCommands("role")
	api := &fakeInteractions{}
	opt := &discordgo.ApplicationCommandInteractionDataOption{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "123"}

	c.Handle(context.Background(), api, slashCommand(cmdCountChannel, discordgo.PermissionAdministrator, opt), noStats)

	assert.Equal(t, "123", game.channel)
	assert.Equal(t, "Counting channel has been set to <#123>.", api.last().Content)
}

func TestCommands_CountChannelRequiresAdmin(t *testing.T) {
	c, game, _ := newTestCommands("role")
	api := &fakeInteractions{}
	opt := &discordgo.ApplicationCommandInteractionDataOption{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "123"}

	c.Handle(context.Background(), api, slashCommand(cmdCountChannel, 0, opt), noStats)

	assert.Empty(t, game.channel)
	assert.Equal(t, msgAdminOnly, api.last().Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, api.last().Flags)
}

func TestCommands_CollectSaveAndSave(t *testing.T) {
	c, game, _ := newTestCommands("role")
	api := &fakeInteractions{}
	game.claim = domain.Claim{Result: domain.ClaimGranted}
	game.saves = 2

	c.Handle(context.Background(), api, slashCommand(cmdCollectSave, 0), noStats)
	assert.Equal(t, "claimed:"+domain.ClaimGranted.String(), api.last().Content)

	c.Handle(context.Background(), api, slashCommand(cmdSave, 0), noStats)
	assert.Equal(t, "<@u>, you currently have 2 save(s).", api.last().Content)
}

func TestCommands_StorageErrorAnsweredEphemerally(t *testing.T) {
	c, game, _ := newTestCommands("role")
	api := &fakeInteractions{}
	game.err = errors.New("db down")

	c.Handle(context.Background(), api, slashCommand(cmdSave, 0), noStats)

	assert.Equal(t, msgGenericFailure, api.last().Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, api.last().Flags)
}

func TestCommands_CountRecord(t *testing.T) {
	c, _, _ := newTestCommands("role")
	api := &fakeInteractions{}

	c.Handle(context.Background(), api, slashCommand(cmdCountRecord, 0), noStats)

	require.Len(t, api.last().Embeds, 1)
	assert.Equal(t, "🏆 Counting Game Record", api.last().Embeds[0].Title)
}

func TestCommands_ListBoosters(t *testing.T) {
	c, _, boosters := newTestCommands("role")
	api := &fakeInteractions{}
	boosters.list = app.BoosterList{Total: 1, Preview: []string{"bob"}}

	c.Handle(context.Background(), api, slashCommand(cmdListBoosters, 0), noStats)

	data := api.last()
	require.Len(t, data.Embeds, 1)
	assert.Equal(t, "Server Boosters", data.Embeds[0].Title)
	require.Len(t, data.Components, 1)
	row := data.Components[0].(discordgo.ActionsRow)
	assert.Equal(t, assignBoosterButton, row.Components[0].(discordgo.Button).CustomID)
}

func TestCommands_ListBoostersWithoutRole(t *testing.T) {
	c, _, _ := newTestCommands("")
	api := &fakeInteractions{}

	c.Handle(context.Background(), api, slashCommand(cmdListBoosters, 0), noStats)

	assert.Equal(t, msgBoosterRoleUnset, api.last().Content)
}

func TestCommands_AssignBoosterButton(t *testing.T) {
	c, _, boosters := newTestCommands("role")
	api := &fakeInteractions{}
	boosters.assigned = 3

	c.Handle(context.Background(), api, &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g",
		Data:    discordgo.MessageComponentInteractionData{CustomID: assignBoosterButton},
	}, noStats)

	require.Len(t, api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, api.responses[0].Type)
	require.Len(t, api.followups, 1)
	assert.Equal(t, "Assigned extra booster role to 3 member(s).", api.followups[0].Content)
}

func TestCommands_Ping(t *testing.T) {
	c, _, _ := newTestCommands("role")
	api := &fakeInteractions{}
	stats := func() app.GatewayStats { return app.GatewayStats{Latency: 42 * time.Millisecond} }

	c.Handle(context.Background(), api, slashCommand(cmdPing, 0), stats)

	embed := api.last().Embeds[0]
	assert.Equal(t, "42ms", embed.Description)
	assert.Equal(t, "Requested by alice", embed.Footer.Text)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	assert.ElementsMatch(t, []string{cmdCountChannel, cmdCollectSave, cmdSave, cmdCountRecord, cmdListBoosters, cmdPing}, names)
	require.NotNil(t, defs[0].DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionAdministrator), *defs[0].DefaultMemberPermissions)
}

func TestCommands_FailedFailureReplyIsLogged(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{name: "collectsave", cmd: cmdCollectSave},
		{name: "save", cmd: cmdSave},
		{name: "listboosters", cmd: cmdListBoosters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			c, game, boosters := newTestCommands("role")
			game.err = errors.New("db down")
			boosters.err = errors.New("db down")
			api := &fakeInteractions{respondErr: errors.New("unknown interaction")}

			c.Handle(context.Background(), api, slashCommand(tt.cmd, 0), noStats)

			require.Len(t, api.responses, 1)
			assert.Equal(t, msgGenericFailure, api.last().Content)
			out := logs.String()
			assert.Contains(t, out, "level=WARN msg=\"Failed to send failure reply\"")
			assert.Contains(t, out, "unknown interaction")
			assert.Contains(t, out, "level=ERROR msg=\"Interaction failed\"")
			assert.Contains(t, out, "db down")
		})
	}
}

func TestCommands_AssignBoosterFailedFollowupIsLogged(t *testing.T) {
	logs := captureLogs(t)
	c, _, boosters := newTestCommands("role")
	boosters.err = errors.New("missing intent")
	api := &fakeInteractions{followupErr: errors.New("webhook gone")}

	c.Handle(context.Background(), api, &discordgo.Interaction{
		ID:      "i",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g",
		Data:    discordgo.MessageComponentInteractionData{CustomID: assignBoosterButton},
	}, noStats)

	require.Len(t, api.followups, 1)
	assert.Equal(t, msgGenericFailure, api.followups[0].Content)
	assert.Contains(t, logs.String(), "Failed to send failure followup")
	assert.Contains(t, logs.String(), "webhook gone")
	assert.Contains(t, logs.String(), "missing intent")
}
