package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/logging"
)

// Chain routes key-value operations through an ordered list of tiers.
//
// Reads try each tier in order and the first hit wins. Writes land on the
// first tier that accepts them; only when every tier refuses does the
// caller see ErrNoStorageAvailable. Deletes are best-effort everywhere.
// The tier actually used is logged on every operation for diagnosability.
type Chain struct {
	tiers []Tier
	log   logging.Logger
}

// NewChain builds a chain from the strategy's tier ordering. Kinds with no
// registered tier are skipped. The memory tier, when registered, is always
// appended as the final fallback so a save can never lose data silently
// while the process lives.
func NewChain(strategy Strategy, tiers map[Kind]Tier, log logging.Logger) *Chain {
	if log == nil {
		log = logging.NopLogger{}
	}

	ordered := make([]Tier, 0, len(tiers))
	seen := make(map[Kind]bool, len(tiers))
	for _, kind := range strategy.Order() {
		if t, ok := tiers[kind]; ok && !seen[kind] {
			ordered = append(ordered, t)
			seen[kind] = true
		}
	}
	if t, ok := tiers[KindMemory]; ok && !seen[KindMemory] {
		ordered = append(ordered, t)
	}

	return &Chain{tiers: ordered, log: log}
}

// NewChainFromTiers builds a chain with the given explicit ordering.
// Intended for tests and single-tier setups.
func NewChainFromTiers(log logging.Logger, tiers ...Tier) *Chain {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Chain{tiers: tiers, log: log}
}

// Tiers exposes the resolved ordering, primary first.
func (c *Chain) Tiers() []Tier {
	return c.tiers
}

// Get returns the value for key from the first tier holding it, or
// (nil, nil) when no tier has it. Tier failures are logged and skipped.
func (c *Chain) Get(ctx context.Context, key string) ([]byte, error) {
	for _, t := range c.tiers {
		v, err := t.Get(ctx, key)
		if err != nil {
			c.log.Warn(ctx, "tier read failed, falling back", "tier", t.Kind(), "key", key, "error", err)
			continue
		}
		if v != nil {
			c.log.Debug(ctx, "loaded key", "tier", t.Kind(), "key", key, "bytes", len(v))
			return v, nil
		}
	}
	return nil, nil
}

// Set stores the value on the first tier that accepts it.
func (c *Chain) Set(ctx context.Context, key string, value []byte) error {
	var lastErr error
	for _, t := range c.tiers {
		if err := t.Set(ctx, key, value); err != nil {
			c.log.Warn(ctx, "tier write failed, falling back", "tier", t.Kind(), "key", key, "error", err)
			lastErr = err
			continue
		}
		c.log.Debug(ctx, "stored key", "tier", t.Kind(), "key", key, "bytes", len(value))
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: last error: %v", common.ErrNoStorageAvailable, lastErr)
	}
	return common.ErrNoStorageAvailable
}

// Delete removes the key from every tier. It never fails; individual tier
// errors are logged and swallowed.
func (c *Chain) Delete(ctx context.Context, key string) {
	for _, t := range c.tiers {
		if err := t.Delete(ctx, key); err != nil {
			c.log.Warn(ctx, "tier delete failed", "tier", t.Kind(), "key", key, "error", err)
		}
	}
}

// Keys returns the union of keys across all tiers, sorted.
func (c *Chain) Keys(ctx context.Context) []string {
	set := make(map[string]struct{})
	for _, t := range c.tiers {
		keys, err := t.Keys(ctx)
		if err != nil {
			c.log.Warn(ctx, "tier key listing failed", "tier", t.Kind(), "error", err)
			continue
		}
		for _, k := range keys {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
