package store

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/demo"
	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/state"
	"github.com/dmitrijs2005/taskvault/internal/storage"
)

// legacyStateKeys are the unnamespaced keys older deployments wrote app
// state under.
var legacyStateKeys = []string{storage.KeyAppState}

// MigrationRunner reclassifies pre-namespacing data into the namespaced
// layout. It runs at most once per profile, gated by a persisted flag,
// and is idempotent: a second run after the flag is set is a no-op.
type MigrationRunner struct {
	chain      *storage.Chain
	serializer state.Serializer
	version    string
	now        func() time.Time
	log        logging.Logger
}

func NewMigrationRunner(chain *storage.Chain, version string, log logging.Logger) *MigrationRunner {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &MigrationRunner{chain: chain, version: version, now: time.Now, log: log}
}

// Run performs the one-time sweep:
//
//  1. Legacy unnamespaced keys holding demo-shaped payloads move under the
//     demo namespace; real payloads are left untouched.
//  2. Keys already under the demo namespace whose content is not
//     recognizably demo are deleted outright, so stale state cannot leak
//     into the wrong trust domain.
//  3. An empty demo namespace is seeded with fresh demo content.
//  4. The version marker is written if absent and the completion flag set.
func (r *MigrationRunner) Run(ctx context.Context) error {
	done, err := r.chain.Get(ctx, storage.KeyMigrationDone)
	if err == nil && string(done) == "true" {
		return nil
	}

	for _, key := range legacyStateKeys {
		raw, err := r.chain.Get(ctx, key)
		if err != nil || raw == nil {
			continue
		}
		if demo.LooksLikeDemo(raw) {
			r.log.Info(ctx, "moving legacy demo payload into demo namespace", "key", key)
			if err := r.chain.Set(ctx, storage.NamespaceDemo+key, raw); err != nil {
				return err
			}
			r.chain.Delete(ctx, key)
		}
		// real payloads stay where they are; later loads see them via the
		// unnamespaced legacy key
	}

	for _, key := range r.chain.Keys(ctx) {
		if !strings.HasPrefix(key, storage.NamespaceDemo) || key == storage.KeyMigrationDone {
			continue
		}
		raw, err := r.chain.Get(ctx, key)
		if err != nil || raw == nil {
			continue
		}
		if !demo.LooksLikeDemo(raw) {
			r.log.Warn(ctx, "deleting ambiguous payload from demo namespace", "key", key)
			r.chain.Delete(ctx, key)
		}
	}

	demoKey := storage.NamespaceDemo + storage.KeyAppState
	if existing, err := r.chain.Get(ctx, demoKey); err == nil && existing == nil {
		seeded, err := r.serializer.Serialize(demo.Seed(r.now()))
		if err != nil {
			return err
		}
		if err := r.chain.Set(ctx, demoKey, seeded); err != nil {
			return err
		}
		r.log.Info(ctx, "seeded demo namespace")
	}

	if marker, err := r.chain.Get(ctx, storage.KeyDeploymentVersion); err == nil && marker == nil {
		if err := r.chain.Set(ctx, storage.KeyDeploymentVersion, []byte(r.version)); err != nil {
			return err
		}
	}

	return r.chain.Set(ctx, storage.KeyMigrationDone, []byte("true"))
}
