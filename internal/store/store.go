// Package store implements the namespaced state store: the layer between
// the application state tree and the raw storage chain. It derives the
// storage key from the current trust domain (demo vs. authenticated vs.
// legacy), enforces the payload ceiling, validates loads through the
// integrity guard, and quarantines payloads it cannot trust.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

// SnapshotFunc returns the current authentication snapshot. It is invoked
// on every operation: the namespace is never cached past a single call, so
// a login/logout transition between two saves cannot leak a write into the
// wrong namespace.
type SnapshotFunc func(ctx context.Context) state.AuthState

// KeyStore is the namespaced state store.
type KeyStore struct {
	chain      *storage.Chain
	serializer state.Serializer
	guard      *state.Guard
	snapshot   SnapshotFunc
	maxPayload int
	version    string
	log        logging.Logger
}

// NewKeyStore wires a store. maxPayload comes from the storage strategy;
// version is the deployment version written alongside every save.
func NewKeyStore(chain *storage.Chain, guard *state.Guard, snapshot SnapshotFunc, maxPayload int, version string, log logging.Logger) *KeyStore {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &KeyStore{
		chain:      chain,
		guard:      guard,
		snapshot:   snapshot,
		maxPayload: maxPayload,
		version:    version,
		log:        log,
	}
}

// namespacedKey derives the storage key for base from the current
// authentication snapshot. Demo wins over authenticated: a demo session
// must never touch real user data.
func (k *KeyStore) namespacedKey(ctx context.Context, base string) string {
	snap := k.snapshot(ctx)
	switch {
	case snap.IsDemoMode:
		return storage.NamespaceDemo + base
	case snap.IsAuthenticated && snap.User != nil:
		return base + "-" + snap.User.ID
	default:
		return base
	}
}

// Save serializes the state and writes it under the namespaced key. It
// fails with common.ErrPayloadTooLarge before touching storage when the
// payload exceeds the ceiling, and with common.ErrNoStorageAvailable when
// every tier refused the write.
func (k *KeyStore) Save(ctx context.Context, base string, s *state.AppState) error {
	data, err := k.serializer.Serialize(s)
	if err != nil {
		return err
	}
	if len(data) > k.maxPayload {
		return fmt.Errorf("%w: %d > %d bytes", common.ErrPayloadTooLarge, len(data), k.maxPayload)
	}

	key := k.namespacedKey(ctx, base)
	if err := k.chain.Set(ctx, key, data); err != nil {
		return err
	}
	if err := k.chain.Set(ctx, storage.KeyDeploymentVersion, []byte(k.version)); err != nil {
		// the marker guards the payload; a payload without a marker would
		// be quarantined on the next load
		return fmt.Errorf("persist version marker: %w", err)
	}
	return nil
}

// Load reads the namespaced key and returns the state tree, or (nil, nil)
// when there is no data. A payload that fails validation or
// deserialization is quarantined: the key is cleared from every tier and
// the caller sees no data rather than an error, so the application always
// has a usable starting state.
func (k *KeyStore) Load(ctx context.Context, base string) (*state.AppState, error) {
	key := k.namespacedKey(ctx, base)

	raw, err := k.chain.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	report := k.guard.Validate(raw, k.storedVersion(ctx))
	if !report.Valid {
		k.log.Warn(ctx, "quarantining untrusted payload",
			"key", key,
			"needsMigration", report.NeedsMigration,
			"issues", strings.Join(report.Issues, "; "),
		)
		k.chain.Delete(ctx, key)
		return nil, nil
	}

	s, err := k.serializer.Deserialize(raw)
	if err != nil {
		k.log.Warn(ctx, "quarantining undecodable payload", "key", key, "error", err)
		k.chain.Delete(ctx, key)
		return nil, nil
	}
	return s, nil
}

// storedVersion reads the deployment-version marker. An absent marker is
// treated as the current version: there is no evidence of drift, and
// quarantining data for a missing marker would punish first-run profiles.
func (k *KeyStore) storedVersion(ctx context.Context) string {
	v, err := k.chain.Get(ctx, storage.KeyDeploymentVersion)
	if err != nil || v == nil {
		return k.version
	}
	return string(v)
}

// Clear removes base from every tier under every namespace variant: the
// bare legacy key, the demo-prefixed key, and any per-user suffixed key.
// It never fails.
func (k *KeyStore) Clear(ctx context.Context, base string) {
	k.chain.Delete(ctx, base)
	k.chain.Delete(ctx, storage.NamespaceDemo+base)
	for _, key := range k.chain.Keys(ctx) {
		if strings.HasPrefix(key, base+"-") {
			k.chain.Delete(ctx, key)
		}
	}
}
