package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/demo"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

const testVersion = "2.1.0"

type storeFixture struct {
	tier  *storage.MemoryTier
	chain *storage.Chain
	snap  state.AuthState
	store *KeyStore
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{tier: storage.NewMemoryTier()}
	f.chain = storage.NewChainFromTiers(nil, f.tier)
	guard := state.NewGuard(testVersion, demo.LooksLikeDemo)
	snapshot := func(ctx context.Context) state.AuthState { return f.snap }
	f.store = NewKeyStore(f.chain, guard, snapshot, 1<<20, testVersion, nil)
	return f
}

func someState(t *testing.T) *state.AppState {
	t.Helper()
	s := state.NewAppState()
	due := state.NewTimestamp(time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC))
	s.Tasks = []state.Task{{
		ID:        "t1",
		Title:     "Ship release",
		DueDate:   &due,
		CreatedAt: state.NewTimestamp(time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)),
	}}
	return s
}

func TestKeyStore_SaveLoadRoundTrip(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	s := someState(t)

	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, s))

	got, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Tasks, 1)
	assert.True(t, got.Tasks[0].DueDate.Equal(s.Tasks[0].DueDate.Time))
}

func TestKeyStore_LoadAbsentReturnsNilNil(t *testing.T) {
	f := newStoreFixture(t)

	got, err := f.store.Load(context.Background(), storage.KeyAppState)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyStore_DemoWritesOnlyUnderDemoPrefix(t *testing.T) {
	f := newStoreFixture(t)
	f.snap = state.AuthState{User: demo.DemoUser(), IsAuthenticated: true, IsDemoMode: true}
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))

	v, err := f.tier.Get(ctx, storage.NamespaceDemo+storage.KeyAppState)
	require.NoError(t, err)
	assert.NotNil(t, v)

	bare, err := f.tier.Get(ctx, storage.KeyAppState)
	require.NoError(t, err)
	assert.Nil(t, bare, "no write may appear unprefixed while in demo mode")
}

func TestKeyStore_AuthenticatedUserGetsSuffixedKey(t *testing.T) {
	f := newStoreFixture(t)
	f.snap = state.AuthState{User: &state.User{ID: "u42", Email: "a@b.com", Name: "Ann"}, IsAuthenticated: true}
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))

	v, err := f.tier.Get(ctx, storage.KeyAppState+"-u42")
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestKeyStore_NamespaceRecomputedPerCall(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	// anonymous save lands on the legacy key
	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))

	// after a demo transition the same base key routes to the demo namespace
	f.snap = state.AuthState{IsDemoMode: true}
	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))

	legacy, _ := f.tier.Get(ctx, storage.KeyAppState)
	demoVal, _ := f.tier.Get(ctx, storage.NamespaceDemo+storage.KeyAppState)
	assert.NotNil(t, legacy)
	assert.NotNil(t, demoVal)
}

func TestKeyStore_PayloadTooLarge(t *testing.T) {
	f := newStoreFixture(t)
	guard := state.NewGuard(testVersion, nil)
	tiny := NewKeyStore(f.chain, guard, func(ctx context.Context) state.AuthState { return state.AuthState{} }, 10, testVersion, nil)

	err := tiny.Save(context.Background(), storage.KeyAppState, someState(t))
	require.ErrorIs(t, err, common.ErrPayloadTooLarge)

	v, _ := f.tier.Get(context.Background(), storage.KeyAppState)
	assert.Nil(t, v, "an oversized payload must never be partially written")
}

func TestKeyStore_SaveFailsWhenNoTierAccepts(t *testing.T) {
	guard := state.NewGuard(testVersion, nil)
	chain := storage.NewChainFromTiers(nil) // no tiers at all
	ks := NewKeyStore(chain, guard, func(ctx context.Context) state.AuthState { return state.AuthState{} }, 1<<20, testVersion, nil)

	err := ks.Save(context.Background(), storage.KeyAppState, someState(t))
	require.ErrorIs(t, err, common.ErrNoStorageAvailable)
}

func TestKeyStore_CorruptPayloadQuarantined(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tier.Set(ctx, storage.KeyAppState, []byte("not json at all")))

	got, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err, "corruption is recovered locally, never surfaced")
	assert.Nil(t, got)

	v, _ := f.tier.Get(ctx, storage.KeyAppState)
	assert.Nil(t, v, "the corrupt key must be cleared")
}

func TestKeyStore_VersionMismatchQuarantined(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))
	// a newer deployment rewrote the marker
	require.NoError(t, f.tier.Set(ctx, storage.KeyDeploymentVersion, []byte("9.0.0")))

	got, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err)
	assert.Nil(t, got)

	v, _ := f.tier.Get(ctx, storage.KeyAppState)
	assert.Nil(t, v)
}

func TestKeyStore_DemoPayloadSurvivesVersionMismatch(t *testing.T) {
	f := newStoreFixture(t)
	f.snap = state.AuthState{IsDemoMode: true}
	ctx := context.Background()

	demoState := demo.Seed(time.Now())
	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, demoState))
	require.NoError(t, f.tier.Set(ctx, storage.KeyDeploymentVersion, []byte("9.0.0")))

	got, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err)
	require.NotNil(t, got, "demo data is exempt from version-mismatch quarantine")
}

func TestKeyStore_ClearRemovesEveryNamespaceVariant(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tier.Set(ctx, storage.KeyAppState, []byte("a")))
	require.NoError(t, f.tier.Set(ctx, storage.NamespaceDemo+storage.KeyAppState, []byte("b")))
	require.NoError(t, f.tier.Set(ctx, storage.KeyAppState+"-u42", []byte("c")))

	f.store.Clear(ctx, storage.KeyAppState)

	for _, key := range []string{
		storage.KeyAppState,
		storage.NamespaceDemo + storage.KeyAppState,
		storage.KeyAppState + "-u42",
	} {
		v, _ := f.tier.Get(ctx, key)
		assert.Nil(t, v, "key %s should be cleared", key)
	}
}

func TestKeyStore_DemoClearLeavesLegacyKeyAlone(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	// legacy data saved anonymously
	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, someState(t)))

	// demo saves and clears its own namespace only
	f.snap = state.AuthState{IsDemoMode: true}
	require.NoError(t, f.store.Save(ctx, storage.KeyAppState, demo.Seed(time.Now())))
	f.chain.Delete(ctx, storage.NamespaceDemo+storage.KeyAppState)

	got, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err)
	assert.Nil(t, got, "demo load after demo clear must see no data")

	f.snap = state.AuthState{}
	legacy, err := f.store.Load(ctx, storage.KeyAppState)
	require.NoError(t, err)
	assert.NotNil(t, legacy, "the unprefixed legacy key is unaffected")
}
