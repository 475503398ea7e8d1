package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/countbot/internal/domain"
)

const selectGameSQL = `SELECT key, value FROM global_state WHERE key = ANY($1)`

// GameRepo persists the global counter on top of global_state and user_data.
type GameRepo struct {
	pool *pgxpool.Pool
}

func NewGameRepo(pool *pgxpool.Pool) *GameRepo {
	return &GameRepo{pool: pool}
}

// LoadGame reads the counter, falling back to defaults for missing keys.
func (r *GameRepo) LoadGame(ctx context.Context) (domain.GameState, error) {
	keys := []string{domain.KeyCurrentCount, domain.KeyLastCounterID, domain.KeyHighestCount, domain.KeyCountChannelID}
	rows, err := r.pool.Query(ctx, selectGameSQL, keys)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("failed to load game state: %w", err)
	}
	defer rows.Close()

	state := domain.NewGameState()
	for rows.Next() {
		var (
			key   string
			value *string
		)
		if err := rows.Scan(&key, &value); err != nil {
			return domain.GameState{}, fmt.Errorf("failed to scan game state: %w", err)
		}
		if value == nil {
			continue
		}
		applyStateValue(&state, key, *value)
	}
	if err := rows.Err(); err != nil {
		return domain.GameState{}, fmt.Errorf("failed to load game state: %w", err)
	}
	return state, nil
}

func applyStateValue(state *domain.GameState, key, value string) {
	switch key {
	case domain.KeyCurrentCount:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			state.CurrentCount = n
		} else {
			slog.Warn("Ignoring malformed current count", "value", value)
		}
	case domain.KeyHighestCount:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			state.HighestCount = n
		} else {
			slog.Warn("Ignoring malformed highest count", "value", value)
		}
	case domain.KeyLastCounterID:
		if value != domain.NoCounter {
			state.LastCounterID = value
		}
	case domain.KeyCountChannelID:
		state.ChannelID = value
	}
}

// Commit writes the state keys and the account row in one transaction.
func (r *GameRepo) Commit(ctx context.Context, t domain.Transition) error {
	if t.Empty() {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if t.State != nil {
			lastCounter := t.State.LastCounterID
			if lastCounter == "" {
				lastCounter = domain.NoCounter
			}
			values := [][2]string{
				{domain.KeyCurrentCount, strconv.FormatInt(t.State.CurrentCount, 10)},
				{domain.KeyLastCounterID, lastCounter},
				{domain.KeyHighestCount, strconv.FormatInt(t.State.HighestCount, 10)},
			}
			for _, kv := range values {
				if err := setState(ctx, tx, kv[0], kv[1]); err != nil {
					return err
				}
			}
		}
		if t.Account != nil {
			if err := upsertAccount(ctx, tx, *t.Account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit counting transition: %w", err)
	}
	return nil
}

func (r *GameRepo) SetChannel(ctx context.Context, channelID string) error {
	return setState(ctx, r.pool, domain.KeyCountChannelID, channelID)
}
