package postgres

import (
	"context"
	"testing"

	"github.com/pscheid92/countbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepo_LoadDefaults(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)

	state, err := repo.LoadGame(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.NewGameState(), state)
	assert.False(t, state.Enabled())
}

func TestGameRepo_CommitStateAndAccount(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)
	accounts := NewAccountRepo(pool)
	ctx := context.Background()

	require.NoError(t, repo.SetChannel(ctx, "999"))

	state := domain.GameState{CurrentCount: 6, LastCounterID: "42", HighestCount: 5}
	acct := domain.Account{UserID: "42", Saves: 1, LastCollected: testNow}
	require.NoError(t, repo.Commit(ctx, domain.Transition{State: &state, Account: &acct}))

	loaded, err := repo.LoadGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GameState{CurrentCount: 6, LastCounterID: "42", HighestCount: 5, ChannelID: "999"}, loaded)

	got, err := accounts.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Saves)
}

func TestGameRepo_ResetPersistsNoCounter(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)
	states := NewStateRepo(pool)
	ctx := context.Background()

	reset := domain.GameState{CurrentCount: 1, HighestCount: 10}
	require.NoError(t, repo.Commit(ctx, domain.Transition{State: &reset}))

	raw, err := states.Get(ctx, domain.KeyLastCounterID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoCounter, raw)

	loaded, err := repo.LoadGame(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.LastCounterID)
}

func TestGameRepo_CommitRollsBackOnFailure(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)
	ctx := context.Background()

	state := domain.GameState{CurrentCount: 50, LastCounterID: "1", HighestCount: 49}
	bad := domain.Account{UserID: "not-a-snowflake", LastCollected: testNow}

	err := repo.Commit(ctx, domain.Transition{State: &state, Account: &bad})
	require.Error(t, err)

	loaded, err := repo.LoadGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.CurrentCount, "state write rolled back")
}

func TestGameRepo_EmptyCommit(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)

	assert.NoError(t, repo.Commit(context.Background(), domain.Transition{}))
}

func TestGameRepo_MalformedValueIgnored(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewGameRepo(pool)
	states := NewStateRepo(pool)
	ctx := context.Background()

	require.NoError(t, states.Set(ctx, domain.KeyCurrentCount, "banana"))
	require.NoError(t, states.Set(ctx, domain.KeyHighestCount, "7"))

	loaded, err := repo.LoadGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.CurrentCount)
	assert.Equal(t, int64(7), loaded.HighestCount)
}

func TestStateRepo_GetSet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStateRepo(pool)
	ctx := context.Background()

	_, err := repo.Get(ctx, domain.KeyCountdownMessageID)
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	require.NoError(t, repo.Set(ctx, domain.KeyCountdownMessageID, "m1"))
	require.NoError(t, repo.Set(ctx, domain.KeyCountdownMessageID, "m2"))

	got, err := repo.Get(ctx, domain.KeyCountdownMessageID)
	require.NoError(t, err)
	assert.Equal(t, "m2", got)
}
