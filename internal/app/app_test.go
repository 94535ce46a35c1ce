package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/config"
	"github.com/dmitrijs2005/taskvault/internal/demo"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ProfileDir = filepath.Join(dir, "profile")
	cfg.SessionDir = filepath.Join(dir, "session")
	cfg.FallbackFile = filepath.Join(dir, "fallback.json")
	cfg.DatabaseDSN = filepath.Join(dir, "taskvault.db")
	cfg.DebounceWindow = 10 * time.Millisecond
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	return a
}

func stateWithTask(title string) *state.AppState {
	s := state.NewAppState()
	s.Tasks = append(s.Tasks, state.Task{
		ID:        "t-" + title,
		Title:     title,
		CreatedAt: state.NewTimestamp(time.Now().UTC()),
	})
	return s
}

func taskTitles(s *state.AppState) []string {
	titles := make([]string, 0, len(s.Tasks))
	for _, task := range s.Tasks {
		titles = append(titles, task.Title)
	}
	return titles
}

func TestApp_SaveLoadRoundTrip(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, stateWithTask("write report")))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"write report"}, taskTitles(got))
}

func TestApp_LoadEmptyReturnsFreshState(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	got, err := a.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Tasks)
	assert.Equal(t, "light", got.Settings.Theme)
}

func TestApp_NamespaceIsolation(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	// anonymous
	require.NoError(t, a.Save(ctx, stateWithTask("anon task")))

	// authenticated
	_, err := a.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks, "a fresh account must not see anonymous data")
	require.NoError(t, a.Save(ctx, stateWithTask("ann task")))

	// demo
	_, err = a.LoginDemo(ctx)
	require.NoError(t, err)
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, taskTitles(got), "ann task")
	assert.NotContains(t, taskTitles(got), "anon task")

	// back to anonymous
	a.Logout(ctx)
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"anon task"}, taskTitles(got))

	// back to the account
	_, err = a.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann task"}, taskTitles(got))
}

func TestApp_DemoModeSeedsSampleData(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	user, err := a.LoginDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, demo.UserID, user.ID)

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, demo.TaskTitles, taskTitles(got))

	snap := a.Snapshot()
	assert.True(t, snap.IsDemoMode)
	assert.True(t, snap.IsAuthenticated)
}

func TestApp_RestartRestoresSessionAndState(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1 := newTestApp(t, cfg)
	user, err := a1.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)
	require.NoError(t, a1.Save(ctx, stateWithTask("survives restart")))
	a1.Close(ctx)

	a2 := newTestApp(t, cfg)
	defer a2.Close(ctx)

	snap := a2.Snapshot()
	require.True(t, snap.IsAuthenticated, "session must survive a restart")
	require.NotNil(t, snap.User)
	assert.Equal(t, user.ID, snap.User.ID)

	got, err := a2.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"survives restart"}, taskTitles(got))
}

func TestApp_RestartWithoutSessionStaysAnonymous(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1 := newTestApp(t, cfg)
	_, err := a1.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)
	a1.Logout(ctx)
	a1.Close(ctx)

	a2 := newTestApp(t, cfg)
	defer a2.Close(ctx)

	snap := a2.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestApp_LogoutClearsAuthEverywhere(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)

	a.Logout(ctx)

	assert.False(t, a.Snapshot().IsAuthenticated)
	user, err := a.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	raw, err := a.chain.Get(ctx, storage.KeyAuthState)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestApp_DebouncedSaveCoalesces(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	a.NotifyChange(stateWithTask("first"))
	a.NotifyChange(stateWithTask("second"))
	a.NotifyChange(stateWithTask("third"))
	a.Flush()

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"third"}, taskTitles(got), "only the latest notification is written")
}

func TestApp_LoginWrongPassword(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)
	a.Logout(ctx)

	_, err = a.Login(ctx, "a@b.com", "wrongpw")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.False(t, a.Snapshot().IsAuthenticated)
}

func TestApp_DeleteAccountLogsOut(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Register(ctx, "a@b.com", "secret1", "Ann")
	require.NoError(t, err)

	require.NoError(t, a.DeleteAccount(ctx, "a@b.com", "secret1"))
	assert.False(t, a.Snapshot().IsAuthenticated)

	_, err = a.Login(ctx, "a@b.com", "secret1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestApp_BootIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1 := newTestApp(t, cfg)
	require.NoError(t, a1.Save(ctx, stateWithTask("kept")))
	a1.Close(ctx)

	// repeated boots rerun probing and skip the finished migration
	for i := 0; i < 2; i++ {
		a := newTestApp(t, cfg)
		got, err := a.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, taskTitles(got))
		a.Close(ctx)
	}
}

func TestApp_StrategySelectedForEnvironment(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	env := a.Environment()
	assert.True(t, env.DurableOK)

	strat := a.Strategy()
	assert.Equal(t, storage.KindDurable, strat.Primary)
	assert.Greater(t, strat.MaxPayloadBytes, 0)
}
