package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Keys of the global_state key/value table.
const (
	KeyCurrentCount       = "current_count"
	KeyLastCounterID      = "last_counter_id"
	KeyCountChannelID     = "count_channel_id"
	KeyHighestCount       = "highest_count"
	KeyCountdownMessageID = "countdown_message_id"
)

// NoCounter is the persisted sentinel for "nobody counted last".
const NoCounter = "0"

// Reactions the counting game puts on submissions.
const (
	ReactionAccepted = "✅"
	ReactionFailed   = "❌"
	ReactionWarning  = "⚠️"
	ReactionRecord   = "🏆"
)

// GameState is the single global counter shared by all participants.
type GameState struct {
	CurrentCount  int64
	LastCounterID string // "" when nobody counted since the last reset
	HighestCount  int64
	ChannelID     string // "" disables the game
}

// NewGameState returns the state of a deployment that never counted.
func NewGameState() GameState {
	return GameState{CurrentCount: 1}
}

func (s GameState) Enabled() bool {
	return s.ChannelID != ""
}

// reset puts the sequence back to 1 with nobody owning the last turn.
func (s GameState) reset() GameState {
	s.CurrentCount = 1
	s.LastCounterID = ""
	return s
}

// Rules are the tunables of the counting economy.
type Rules struct {
	SaveLimit    int
	SaveCooldown time.Duration
	DecayAfter   time.Duration
	LockoutFor   time.Duration
	LockoutLimit int
}

// Verdict classifies a numeric submission.
type Verdict int

const (
	VerdictLocked           Verdict = iota // submitter is locked out, nothing changes
	VerdictExpectOne                       // count is at 1 and the submission isn't 1
	VerdictDoubleTurnSaved                 // counted twice in a row, a save was consumed
	VerdictDoubleTurnRuined                // counted twice in a row without saves, count reset
	VerdictAccepted                        // correct next number
	VerdictWrongSaved                      // wrong number, a save was consumed
	VerdictLockedOut                       // wrong number without saves, count reset and lockout
)

func (v Verdict) String() string {
	switch v {
	case VerdictLocked:
		return "locked"
	case VerdictExpectOne:
		return "expect_one"
	case VerdictDoubleTurnSaved:
		return "double_turn_saved"
	case VerdictDoubleTurnRuined:
		return "double_turn_ruined"
	case VerdictAccepted:
		return "accepted"
	case VerdictWrongSaved:
		return "wrong_saved"
	case VerdictLockedOut:
		return "locked_out"
	default:
		return "unknown"
	}
}

// Judgement is the full result of applying the counting rules to one submission.
// State and Account hold the values after the transition; the Changed flags say
// which of them must be persisted.
type Judgement struct {
	Verdict        Verdict
	Number         int64
	State          GameState
	Account        Account
	StateChanged   bool
	AccountChanged bool
	NewRecord      bool
	Punish         bool          // lockout count reached the limit on this lockout
	LockRemaining  time.Duration // set for VerdictLocked
}

// ParseCount reports whether text is a plain integer submission.
func ParseCount(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Judge applies the counting rules, in order, to number submitted by userID.
// The consecutive-turn check runs before the match check, so a user taking two
// turns in a row is penalized even when the number is right.
func Judge(state GameState, acct Account, userID string, number int64, now time.Time, rules Rules) Judgement {
	j := Judgement{Number: number, State: state, Account: acct}

	if remaining, locked := acct.LockRemaining(now); locked {
		j.Verdict = VerdictLocked
		j.LockRemaining = remaining
		return j
	}

	if state.CurrentCount == 1 && number != 1 {
		j.Verdict = VerdictExpectOne
		return j
	}

	if state.LastCounterID == userID && state.CurrentCount != 1 {
		if acct.Saves > 0 {
			j.Account.Saves--
			j.AccountChanged = true
			j.Verdict = VerdictDoubleTurnSaved
			return j
		}
		j.State = state.reset()
		j.StateChanged = true
		j.Verdict = VerdictDoubleTurnRuined
		return j
	}

	if number == state.CurrentCount {
		j.State.CurrentCount++
		j.State.LastCounterID = userID
		if number > state.HighestCount {
			j.State.HighestCount = number
			j.NewRecord = true
		}
		j.StateChanged = true
		j.Verdict = VerdictAccepted
		return j
	}

	if acct.Saves > 0 {
		j.Account.Saves--
		j.AccountChanged = true
		j.Verdict = VerdictWrongSaved
		return j
	}

	lockedUntil := now.Add(rules.LockoutFor)
	j.Account.LockedUntil = &lockedUntil
	j.Account.LockoutCount++
	j.State = state.reset()
	j.StateChanged = true
	j.AccountChanged = true
	j.Punish = j.Account.LockoutCount >= rules.LockoutLimit
	j.Verdict = VerdictLockedOut
	return j
}

// Transition is one atomic write of counting state. Nil fields are left untouched.
type Transition struct {
	State   *GameState
	Account *Account
}

func (t Transition) Empty() bool {
	return t.State == nil && t.Account == nil
}

// TransitionOf returns the writes a judgement requires.
func TransitionOf(j Judgement) Transition {
	var t Transition
	if j.StateChanged {
		state := j.State
		t.State = &state
	}
	if j.AccountChanged {
		acct := j.Account
		t.Account = &acct
	}
	return t
}

// GameRepository persists the global counter.
type GameRepository interface {
	LoadGame(ctx context.Context) (GameState, error)
	// Commit writes the transition in a single transaction.
	Commit(ctx context.Context, t Transition) error
	SetChannel(ctx context.Context, channelID string) error
}

// StateStore is the flat string key/value store behind global state.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Submission is a message posted in the counting channel.
type Submission struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	UserName  string
	AvatarURL string
	Text      string
}
