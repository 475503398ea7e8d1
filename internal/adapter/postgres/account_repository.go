package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/countbot/internal/domain"
)

const (
	selectAccountSQL = `SELECT user_id, saves, last_collected, locked_until, lockout_count
		FROM user_data WHERE user_id = $1`

	insertAccountSQL = `INSERT INTO user_data (user_id, saves, last_collected, locked_until, lockout_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`

	upsertAccountSQL = `INSERT INTO user_data (user_id, saves, last_collected, locked_until, lockout_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			saves = EXCLUDED.saves,
			last_collected = EXCLUDED.last_collected,
			locked_until = EXCLUDED.locked_until,
			lockout_count = EXCLUDED.lockout_count`

	decayAccountsSQL = `UPDATE user_data SET saves = GREATEST(saves - 1, 0)
		WHERE last_collected < $1 AND saves > 0`
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// GetOrCreate inserts a fresh account when none exists. Concurrent first
// interactions resolve to the same row.
func (r *AccountRepo) GetOrCreate(ctx context.Context, userID string, now time.Time) (*domain.Account, error) {
	id, err := snowflake(userID)
	if err != nil {
		return nil, err
	}

	fresh := domain.NewAccount(userID, now)
	if _, err := r.pool.Exec(ctx, insertAccountSQL, id, fresh.Saves, fresh.LastCollected, fresh.LockedUntil, fresh.LockoutCount); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return getAccount(ctx, r.pool, id)
}

func (r *AccountRepo) Get(ctx context.Context, userID string) (*domain.Account, error) {
	id, err := snowflake(userID)
	if err != nil {
		return nil, err
	}
	return getAccount(ctx, r.pool, id)
}

func (r *AccountRepo) Upsert(ctx context.Context, acct domain.Account) error {
	return upsertAccount(ctx, r.pool, acct)
}

func (r *AccountRepo) DecayInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, decayAccountsSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to decay saves: %w", err)
	}
	return tag.RowsAffected(), nil
}

func getAccount(ctx context.Context, q querier, id int64) (*domain.Account, error) {
	var (
		acct   domain.Account
		userID int64
	)
	err := q.QueryRow(ctx, selectAccountSQL, id).Scan(&userID, &acct.Saves, &acct.LastCollected, &acct.LockedUntil, &acct.LockoutCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	acct.UserID = strconv.FormatInt(userID, 10)
	acct.LastCollected = acct.LastCollected.UTC()
	if acct.LockedUntil != nil {
		until := acct.LockedUntil.UTC()
		acct.LockedUntil = &until
	}
	return &acct, nil
}

func upsertAccount(ctx context.Context, q querier, acct domain.Account) error {
	id, err := snowflake(acct.UserID)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, upsertAccountSQL, id, acct.Saves, acct.LastCollected, acct.LockedUntil, acct.LockoutCount); err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}
