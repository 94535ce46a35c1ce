// Package app wires the storage tiers, the namespaced state store and the
// authentication layer into one facade the CLI talks to.
package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/auth"
	"github.com/dmitrijs2005/taskvault/internal/config"
	"github.com/dmitrijs2005/taskvault/internal/demo"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
	"github.com/dmitrijs2005/taskvault/internal/store"

	_ "modernc.org/sqlite"
)

// App owns the composed subsystems and the in-memory authentication
// snapshot. The snapshot is the single source the key store derives
// namespaces from; it changes only through login, logout, demo entry and
// the boot-time restore.
type App struct {
	cfg *config.Config
	log logging.Logger

	env      storage.Environment
	strategy storage.Strategy
	chain    *storage.Chain

	sqlite    *storage.SQLiteTier
	ephemeral *storage.FileTier

	store     *store.KeyStore
	debouncer *store.Debouncer
	vault     *auth.Vault
	sessions  *auth.SessionManager
	cache     *auth.StateCache

	mu        sync.RWMutex
	authState state.AuthState
}

// New probes the environment, picks a storage strategy, runs the one-time
// key migration and restores any surviving authentication state. Tiers
// that fail to open are skipped with a warning; the memory tier always
// exists, so construction itself cannot be left without storage.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NopLogger{}
	}

	a := &App{cfg: cfg, log: log}

	tiers := map[storage.Kind]storage.Tier{
		storage.KindMemory:  storage.NewMemoryTier(),
		storage.KindMinimal: storage.NewMinimalTier(cfg.FallbackFile),
	}

	if durable, err := storage.NewDurableTier(cfg.ProfileDir); err != nil {
		log.Warn(ctx, "durable tier unavailable", "dir", cfg.ProfileDir, "error", err)
	} else {
		tiers[storage.KindDurable] = durable
	}

	if eph, err := storage.NewEphemeralTier(cfg.SessionDir); err != nil {
		log.Warn(ctx, "ephemeral tier unavailable", "dir", cfg.SessionDir, "error", err)
	} else {
		tiers[storage.KindEphemeral] = eph
		a.ephemeral = eph
	}

	if sq, err := storage.OpenSQLiteTier(ctx, cfg.DatabaseDSN); err != nil {
		log.Warn(ctx, "structured tier unavailable", "dsn", cfg.DatabaseDSN, "error", err)
	} else {
		tiers[storage.KindStructured] = sq
		a.sqlite = sq
	}

	a.env = storage.NewProbe(log).Run(ctx, tiers)
	a.strategy = storage.Recommend(a.env)
	a.chain = storage.NewChain(a.strategy, tiers, log)
	log.Info(ctx, "storage selected",
		"primary", a.strategy.Primary, "maxPayload", a.strategy.MaxPayloadBytes)

	guard := state.NewGuard(cfg.DeploymentVersion, demo.LooksLikeDemo)
	snapshot := func(ctx context.Context) state.AuthState { return a.Snapshot() }
	a.store = store.NewKeyStore(a.chain, guard, snapshot,
		a.strategy.MaxPayloadBytes, cfg.DeploymentVersion, log)

	a.vault = auth.NewVault(a.chain, log)
	a.sessions = auth.NewSessionManager(a.chain, a.vault, cfg.SessionTTL, log)
	a.cache = auth.NewStateCache(a.chain, a.vault, a.sessions, cfg.MaxAuthBackups, log)

	// the migration sweep must see keys as they were persisted, before
	// any load can quarantine or rewrite them
	if err := store.NewMigrationRunner(a.chain, cfg.DeploymentVersion, log).Run(ctx); err != nil {
		return nil, err
	}

	restored, err := a.cache.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if restored != nil {
		a.setAuth(*restored)
		log.Info(ctx, "authentication restored", "demo", restored.IsDemoMode)
	}

	a.debouncer = store.NewDebouncer(cfg.DebounceWindow, func(s *state.AppState) {
		if err := a.Save(context.Background(), s); err != nil {
			log.Error(context.Background(), "debounced save failed", "error", err)
		}
	})

	return a, nil
}

// Snapshot returns a copy of the current authentication state.
func (a *App) Snapshot() state.AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authState
}

func (a *App) setAuth(snap state.AuthState) {
	a.mu.Lock()
	a.authState = snap
	a.mu.Unlock()
}

// Environment reports what the boot-time probe found.
func (a *App) Environment() storage.Environment { return a.env }

// Strategy reports the tier ordering in effect.
func (a *App) Strategy() storage.Strategy { return a.strategy }

// Load reads the task state for the current namespace. A missing record
// yields a fresh empty state, never nil.
func (a *App) Load(ctx context.Context) (*state.AppState, error) {
	s, err := a.store.Load(ctx, storage.KeyAppState)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return state.NewAppState(), nil
	}
	return s, nil
}

// Save writes the task state for the current namespace immediately. The
// embedded authentication block always reflects the live snapshot, not
// whatever the caller's copy carried.
func (a *App) Save(ctx context.Context, s *state.AppState) error {
	s.Auth = a.Snapshot()
	return a.store.Save(ctx, storage.KeyAppState, s)
}

// NotifyChange schedules a debounced save of s. Rapid successive calls
// coalesce into one write of the latest state.
func (a *App) NotifyChange(s *state.AppState) {
	a.debouncer.Notify(s)
}

// Flush forces any pending debounced save to run now.
func (a *App) Flush() {
	a.debouncer.Flush()
}

// ClearState removes the task state for the bare, demo and every per-user
// namespace.
func (a *App) ClearState(ctx context.Context) {
	a.store.Clear(ctx, storage.KeyAppState)
}

// Register creates an account and immediately starts a session for it.
func (a *App) Register(ctx context.Context, email, password, name string) (*state.User, error) {
	user, err := a.vault.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return user, a.startSession(ctx, user, false)
}

// Login verifies credentials and starts a session.
func (a *App) Login(ctx context.Context, email, password string) (*state.User, error) {
	user, err := a.vault.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return user, a.startSession(ctx, user, false)
}

// LoginDemo enters demo mode. No credential exists for the demo identity;
// the demo session and namespace are self-contained. An empty demo
// namespace is reseeded with the sample data set.
func (a *App) LoginDemo(ctx context.Context) (*state.User, error) {
	user := demo.DemoUser()
	if err := a.startSession(ctx, user, true); err != nil {
		return nil, err
	}
	existing, err := a.store.Load(ctx, storage.KeyAppState)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := a.Save(ctx, demo.Seed(time.Now().UTC())); err != nil {
			a.log.Warn(ctx, "demo reseed failed", "error", err)
		}
	}
	return user, nil
}

func (a *App) startSession(ctx context.Context, user *state.User, isDemo bool) error {
	if err := a.sessions.Create(ctx, user, isDemo); err != nil {
		return err
	}
	snap := state.AuthState{User: user, IsAuthenticated: true, IsDemoMode: isDemo}
	a.setAuth(snap)
	if err := a.cache.Save(ctx, snap); err != nil {
		a.log.Warn(ctx, "auth snapshot save failed", "error", err)
	}
	return nil
}

// Logout ends the session and wipes the snapshot, its backups and the
// in-memory state. Pending saves are flushed first so the last edits land
// in the authenticated namespace, not the anonymous one.
func (a *App) Logout(ctx context.Context) {
	a.debouncer.Flush()
	a.cache.Clear(ctx)
	a.setAuth(state.AuthState{})
}

// CurrentUser returns the user behind the live session, refreshing its
// activity window, or nil when no valid session exists.
func (a *App) CurrentUser(ctx context.Context) (*state.User, error) {
	user, err := a.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil && a.Snapshot().IsAuthenticated && !a.Snapshot().IsDemoMode {
		// the session expired out from under us
		a.setAuth(state.AuthState{})
	}
	return user, nil
}

// ChangePassword rotates the password for the given account.
func (a *App) ChangePassword(ctx context.Context, email, current, next string) error {
	return a.vault.ChangePassword(ctx, email, current, next)
}

// DeleteAccount removes the credential and, when it belongs to the
// current session, logs out.
func (a *App) DeleteAccount(ctx context.Context, email, password string) error {
	if err := a.vault.DeleteAccount(ctx, email, password); err != nil {
		return err
	}
	if snap := a.Snapshot(); snap.IsAuthenticated && snap.User != nil && strings.EqualFold(snap.User.Email, email) {
		a.Logout(ctx)
	}
	return nil
}

// Close flushes pending writes and releases tier resources. The ephemeral
// tier is purged so session-scoped files do not outlive the process.
func (a *App) Close(ctx context.Context) {
	a.debouncer.Flush()
	if a.ephemeral != nil {
		if err := a.ephemeral.Purge(); err != nil {
			a.log.Warn(ctx, "ephemeral purge failed", "error", err)
		}
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.log.Warn(ctx, "sqlite close failed", "error", err)
		}
	}
}
