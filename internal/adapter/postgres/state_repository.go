package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/countbot/internal/domain"
)

const (
	selectStateSQL = `SELECT value FROM global_state WHERE key = $1`

	upsertStateSQL = `INSERT INTO global_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
)

// StateRepo is the key/value store backing global_state.
type StateRepo struct {
	pool *pgxpool.Pool
}

func NewStateRepo(pool *pgxpool.Pool) *StateRepo {
	return &StateRepo{pool: pool}
}

func (r *StateRepo) Get(ctx context.Context, key string) (string, error) {
	return getState(ctx, r.pool, key)
}

func (r *StateRepo) Set(ctx context.Context, key, value string) error {
	return setState(ctx, r.pool, key, value)
}

func getState(ctx context.Context, q querier, key string) (string, error) {
	var value *string
	err := q.QueryRow(ctx, selectStateSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state %s: %w", key, err)
	}
	if value == nil {
		return "", domain.ErrStateNotFound
	}
	return *value, nil
}

func setState(ctx context.Context, q querier, key, value string) error {
	if _, err := q.Exec(ctx, upsertStateSQL, key, value); err != nil {
		return fmt.Errorf("failed to set state %s: %w", key, err)
	}
	return nil
}
