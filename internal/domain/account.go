package domain

import (
	"context"
	"time"
)

// Account is a counting participant's save balance and lockout history.
type Account struct {
	UserID        string
	Saves         int
	LastCollected time.Time
	LockedUntil   *time.Time
	LockoutCount  int
}

// NewAccount returns the account a user gets on first interaction.
func NewAccount(userID string, now time.Time) Account {
	return Account{
		UserID:        userID,
		Saves:         1,
		LastCollected: now,
	}
}

// LockRemaining reports how long the account stays locked out at now.
func (a Account) LockRemaining(now time.Time) (time.Duration, bool) {
	if a.LockedUntil == nil || !now.Before(*a.LockedUntil) {
		return 0, false
	}
	return a.LockedUntil.Sub(now), true
}

// ClaimResult describes why a save claim was or wasn't granted.
type ClaimResult int

const (
	ClaimGranted  ClaimResult = iota // save added
	ClaimCooldown                    // last claim too recent
	ClaimAtLimit                     // balance already at the save limit
)

func (r ClaimResult) String() string {
	switch r {
	case ClaimGranted:
		return "granted"
	case ClaimCooldown:
		return "cooldown"
	case ClaimAtLimit:
		return "at_limit"
	default:
		return "unknown"
	}
}

// Claim is the outcome of a daily save claim.
type Claim struct {
	Result  ClaimResult
	Account Account
	Wait    time.Duration
}

// ClaimSave applies the daily claim rule to acct. The returned account is only
// different from acct when the result is ClaimGranted.
func ClaimSave(acct Account, now time.Time, rules Rules) Claim {
	since := now.Sub(acct.LastCollected)
	if since < rules.SaveCooldown {
		return Claim{Result: ClaimCooldown, Account: acct, Wait: rules.SaveCooldown - since}
	}
	if acct.Saves >= rules.SaveLimit {
		return Claim{Result: ClaimAtLimit, Account: acct}
	}

	acct.Saves++
	acct.LastCollected = now
	return Claim{Result: ClaimGranted, Account: acct}
}

type AccountRepository interface {
	// GetOrCreate returns the user's account, inserting NewAccount(userID, now) first if absent.
	GetOrCreate(ctx context.Context, userID string, now time.Time) (*Account, error)
	Get(ctx context.Context, userID string) (*Account, error)
	Upsert(ctx context.Context, acct Account) error
	// DecayInactive removes one save (floored at zero) from every account whose
	// last claim is older than cutoff and returns the number of accounts touched.
	DecayInactive(ctx context.Context, cutoff time.Time) (int64, error)
}
