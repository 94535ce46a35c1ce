package auth

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

// StateCache persists the authentication snapshot redundantly: a primary
// record plus rotating timestamped backups. The session record alone does
// not survive a durable-tier wipe or a write interrupted by teardown; the
// cache is the second, independently timed recovery path.
type StateCache struct {
	chain      *storage.Chain
	vault      *Vault
	sessions   *SessionManager
	maxBackups int
	now        func() time.Time
	log        logging.Logger
}

func NewStateCache(chain *storage.Chain, vault *Vault, sessions *SessionManager, maxBackups int, log logging.Logger) *StateCache {
	if log == nil {
		log = logging.NopLogger{}
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &StateCache{
		chain:      chain,
		vault:      vault,
		sessions:   sessions,
		maxBackups: maxBackups,
		now:        time.Now,
		log:        log,
	}
}

// Save overwrites the primary snapshot and adds a timestamped backup,
// trimming backups to the most recent maxBackups. Backup failures are
// logged, not propagated: a missing backup never blocks the primary write.
func (c *StateCache) Save(ctx context.Context, snap state.AuthState) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if err := c.chain.Set(ctx, storage.KeyAuthState, data); err != nil {
		return err
	}

	backupKey := storage.KeyAuthBackupPrefix + strconv.FormatInt(c.now().UnixNano(), 10)
	if err := c.chain.Set(ctx, backupKey, data); err != nil {
		c.log.Warn(ctx, "auth snapshot backup write failed", "error", err)
	}

	c.trimBackups(ctx)
	return nil
}

func (c *StateCache) backupKeys(ctx context.Context) []string {
	var keys []string
	for _, k := range c.chain.Keys(ctx) {
		if strings.HasPrefix(k, storage.KeyAuthBackupPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // timestamps are fixed-width, so oldest first
	return keys
}

func (c *StateCache) trimBackups(ctx context.Context) {
	keys := c.backupKeys(ctx)
	for len(keys) > c.maxBackups {
		c.chain.Delete(ctx, keys[0])
		keys = keys[1:]
	}
}

// Restore recovers the authentication snapshot on boot. A valid,
// non-expired session wins; otherwise the primary persisted snapshot is
// used after structural validation. Authenticated snapshots must still
// reference an existing credential unless they are demo. Returns nil when
// nothing trustworthy is found.
func (c *StateCache) Restore(ctx context.Context) (*state.AuthState, error) {
	sess, err := c.sessions.current(ctx)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return &state.AuthState{
			User:            sess.user(),
			IsAuthenticated: true,
			IsDemoMode:      sess.IsDemo,
		}, nil
	}

	raw, err := c.chain.Get(ctx, storage.KeyAuthState)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var snap state.AuthState
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.log.Warn(ctx, "discarding unreadable auth snapshot", "error", err)
		c.chain.Delete(ctx, storage.KeyAuthState)
		return nil, nil
	}

	if snap.IsAuthenticated && !snap.IsDemoMode {
		if snap.User == nil {
			return nil, nil
		}
		exists, err := c.vault.Exists(ctx, snap.User.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			c.log.Info(ctx, "auth snapshot references deleted credential", "userId", snap.User.ID)
			return nil, nil
		}
	}
	return &snap, nil
}

// Clear removes the primary snapshot and every backup, and logs the
// session out.
func (c *StateCache) Clear(ctx context.Context) {
	c.chain.Delete(ctx, storage.KeyAuthState)
	for _, k := range c.backupKeys(ctx) {
		c.chain.Delete(ctx, k)
	}
	c.sessions.Logout(ctx)
}
