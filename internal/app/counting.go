package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countbot/internal/domain"
)

type badCounterLogger interface {
	BadCounter(ctx context.Context, user domain.UserRef, avatarURL string, lockouts int, at time.Time)
}

type CountingConfig struct {
	Rules            domain.Rules
	BadCounterRoleID string // empty disables the punitive role
}

// CountingGame runs the counting channel. Every read-decide-persist cycle on the
// game state or an account happens under one mutex, and the in-memory state is
// only replaced after the durable write succeeded.
type CountingGame struct {
	games     domain.GameRepository
	accounts  domain.AccountRepository
	responder domain.Responder
	roles     domain.RoleManager
	audit     badCounterLogger
	clock     clockwork.Clock
	cfg       CountingConfig
	observer  CountingObserver
	errs      ErrorRecorder

	mu    sync.Mutex
	state domain.GameState
}

func NewCountingGame(games domain.GameRepository, accounts domain.AccountRepository, responder domain.Responder, roles domain.RoleManager, audit badCounterLogger, clock clockwork.Clock, cfg CountingConfig) *CountingGame {
	return &CountingGame{
		games:     games,
		accounts:  accounts,
		responder: responder,
		roles:     roles,
		audit:     audit,
		clock:     clock,
		cfg:       cfg,
		observer:  noopObserver{},
		errs:      noopObserver{},
		state:     domain.NewGameState(),
	}
}

// Observe sets the observer for judgements and claims.
func (g *CountingGame) Observe(o CountingObserver) {
	g.observer = o
}

func (g *CountingGame) RecordErrorsTo(r ErrorRecorder) {
	g.errs = r
}

// Load replaces the in-memory state with the persisted one. Call before the
// gateway starts delivering messages.
func (g *CountingGame) Load(ctx context.Context) error {
	state, err := g.games.LoadGame(ctx)
	if err != nil {
		return fmt.Errorf("failed to load game state: %w", err)
	}

	g.mu.Lock()
	g.state = state
	g.mu.Unlock()

	slog.InfoContext(ctx, "Counting game loaded", "current_count", state.CurrentCount, "highest_count", state.HighestCount, "channel", state.ChannelID)
	return nil
}

// State returns a copy of the current game state.
func (g *CountingGame) State() domain.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsCountingChannel reports whether channelID is the active counting channel.
func (g *CountingGame) IsCountingChannel(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Enabled() && g.state.ChannelID == channelID
}

// Submit judges a message posted in the counting channel. It returns nil when the
// message is not a counting submission (other channel, game disabled, not a number).
func (g *CountingGame) Submit(ctx context.Context, sub domain.Submission) (*domain.Judgement, error) {
	number, ok := domain.ParseCount(sub.Text)
	if !ok {
		return nil, nil
	}

	j, err := g.judge(ctx, sub, number)
	if err != nil || j == nil {
		return nil, err
	}

	g.observer.OnJudgement(*j)
	g.applyEffects(ctx, sub, *j)
	return j, nil
}

func (g *CountingGame) judge(ctx context.Context, sub domain.Submission, number int64) (*domain.Judgement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.state.Enabled() || sub.ChannelID != g.state.ChannelID {
		return nil, nil
	}

	now := g.clock.Now()
	acct, err := g.accounts.GetOrCreate(ctx, sub.UserID, now)
	if err != nil {
		g.errs.RecordError(ctx, "counting", err)
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	j := domain.Judge(g.state, *acct, sub.UserID, number, now, g.cfg.Rules)

	if t := domain.TransitionOf(j); !t.Empty() {
		if err := g.games.Commit(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Counting transition not persisted", "user", sub.UserID, "verdict", j.Verdict.String(), "error", err)
			g.errs.RecordError(ctx, "counting", err)
			return nil, fmt.Errorf("failed to commit counting transition: %w", err)
		}
		g.state = j.State
	}

	slog.DebugContext(ctx, "Counting submission judged", "user", sub.UserID, "number", number, "verdict", j.Verdict.String(), "next", g.state.CurrentCount)
	return &j, nil
}

func (g *CountingGame) applyEffects(ctx context.Context, sub domain.Submission, j domain.Judgement) {
	mention := domain.Mention(sub.UserID)

	switch j.Verdict {
	case domain.VerdictLocked:
		h, m := hoursMinutes(j.LockRemaining)
		g.reply(ctx, sub, fmt.Sprintf("%s, you're locked out for another %d hour(s) and %d minute(s).", mention, h, m))

	case domain.VerdictExpectOne:
		g.react(ctx, sub, domain.ReactionWarning)
		g.reply(ctx, sub, fmt.Sprintf("%s, the next number is **1**!", mention))

	case domain.VerdictDoubleTurnSaved:
		g.react(ctx, sub, domain.ReactionWarning)
		g.reply(ctx, sub, fmt.Sprintf("%s, you can't count twice in a row! You've lost a save. Remaining saves: **%d**. The next number is **%d**.",
			mention, j.Account.Saves, j.State.CurrentCount))

	case domain.VerdictDoubleTurnRuined:
		g.react(ctx, sub, domain.ReactionFailed)
		g.reply(ctx, sub, fmt.Sprintf("%s, **RUINED** it at **%d**, Next number is **1**. You can't count twice in a row.", mention, j.Number))

	case domain.VerdictAccepted:
		g.react(ctx, sub, domain.ReactionAccepted)
		if j.NewRecord {
			g.react(ctx, sub, domain.ReactionRecord)
		}

	case domain.VerdictWrongSaved:
		g.react(ctx, sub, domain.ReactionFailed)
		g.reply(ctx, sub, fmt.Sprintf("%s, you messed up the counting at **%d**. You've used a save! Remaining saves: **%d**. The next number is **%d**.",
			mention, j.Number, j.Account.Saves, j.State.CurrentCount))

	case domain.VerdictLockedOut:
		g.react(ctx, sub, domain.ReactionFailed)
		if j.Punish {
			g.punish(ctx, sub, j)
			g.reply(ctx, sub, fmt.Sprintf("%s, you've been locked out %d times. You've been assigned the 'bad counter' role!", mention, g.cfg.Rules.LockoutLimit))
			return
		}
		g.reply(ctx, sub, fmt.Sprintf("%s, you messed up the counting at **%d**. The count has been reset to 1, and you're locked out for the next **%d hours!**",
			mention, j.Number, int(g.cfg.Rules.LockoutFor.Hours())))
	}
}

func (g *CountingGame) punish(ctx context.Context, sub domain.Submission, j domain.Judgement) {
	if g.cfg.BadCounterRoleID == "" {
		slog.WarnContext(ctx, "Bad counter role not configured, skipping role assignment", "user", sub.UserID)
		return
	}
	if err := g.roles.AddRole(ctx, sub.GuildID, sub.UserID, g.cfg.BadCounterRoleID); err != nil {
		slog.WarnContext(ctx, "Failed to assign bad counter role", "user", sub.UserID, "error", err)
		g.errs.RecordError(ctx, "counting", err)
		return
	}
	user := domain.UserRef{ID: sub.UserID, Name: sub.UserName}
	g.audit.BadCounter(ctx, user, sub.AvatarURL, j.Account.LockoutCount, g.clock.Now())
}

func (g *CountingGame) react(ctx context.Context, sub domain.Submission, emoji string) {
	if err := g.responder.React(ctx, sub.ChannelID, sub.MessageID, emoji); err != nil {
		slog.WarnContext(ctx, "Failed to add reaction", "message", sub.MessageID, "emoji", emoji, "error", err)
	}
}

func (g *CountingGame) reply(ctx context.Context, sub domain.Submission, text string) {
	if err := g.responder.Reply(ctx, sub.ChannelID, sub.MessageID, text); err != nil {
		slog.WarnContext(ctx, "Failed to reply", "message", sub.MessageID, "error", err)
	}
}

// SetChannel persists the counting channel and enables the game there.
func (g *CountingGame) SetChannel(ctx context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.games.SetChannel(ctx, channelID); err != nil {
		return fmt.Errorf("failed to set counting channel: %w", err)
	}
	g.state.ChannelID = channelID

	slog.InfoContext(ctx, "Counting channel set", "channel", channelID)
	return nil
}

// Claim grants the daily save if the cooldown elapsed and the limit allows it.
func (g *CountingGame) Claim(ctx context.Context, userID string) (domain.Claim, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	acct, err := g.accounts.GetOrCreate(ctx, userID, now)
	if err != nil {
		return domain.Claim{}, fmt.Errorf("failed to load account: %w", err)
	}

	c := domain.ClaimSave(*acct, now, g.cfg.Rules)
	if c.Result == domain.ClaimGranted {
		if err := g.accounts.Upsert(ctx, c.Account); err != nil {
			g.errs.RecordError(ctx, "claim", err)
			return domain.Claim{}, fmt.Errorf("failed to store claimed save: %w", err)
		}
	}

	g.observer.OnClaim(c.Result)
	return c, nil
}

// ClaimReply renders the user-facing answer to a claim.
func (g *CountingGame) ClaimReply(c domain.Claim) string {
	switch c.Result {
	case domain.ClaimCooldown:
		h, m := hoursMinutes(c.Wait)
		return fmt.Sprintf("You can collect your next save in %d hour(s) and %d minute(s).", h, m)
	case domain.ClaimAtLimit:
		return fmt.Sprintf("You already have the maximum number of saves (%d). Use them wisely!", g.cfg.Rules.SaveLimit)
	default:
		return fmt.Sprintf("Save collected! You now have %d save(s).", c.Account.Saves)
	}
}

// Saves returns the user's save balance. Users without an account report the
// balance a new account starts with; no row is created.
func (g *CountingGame) Saves(ctx context.Context, userID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	acct, err := g.accounts.Get(ctx, userID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.NewAccount(userID, now).Saves, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return acct.Saves, nil
}

// DecayInactive removes one save from every account idle since cutoff. It holds
// the game lock, so a decay never lands between the read and the write of a
// submission or claim.
func (g *CountingGame) DecayInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.accounts.DecayInactive(ctx, cutoff)
}

// RecordView is the data behind the record command.
type RecordView struct {
	Current  int64
	Highest  int64
	Progress int // percent of the record, capped at 100
}

func (g *CountingGame) Record() RecordView {
	state := g.State()
	return RecordView{
		Current:  state.CurrentCount,
		Highest:  state.HighestCount,
		Progress: progress(state.CurrentCount, state.HighestCount),
	}
}

func progress(current, highest int64) int {
	if highest <= 0 {
		return 0
	}
	p := int(math.Round(float64(current) / float64(highest) * 100))
	return min(p, 100)
}

func hoursMinutes(d time.Duration) (int, int) {
	return int(d / time.Hour), int(d % time.Hour / time.Minute)
}
