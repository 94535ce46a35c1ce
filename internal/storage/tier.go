// Package storage implements the tiered key-value layer TaskVault persists
// through: a set of Tier backends of varying durability and capacity, a
// capability probe that discovers which of them work in the current
// environment, a selector that orders them, and a Chain that routes reads
// and writes through the ordered tiers with fallback on failure.
package storage

import "context"

// Kind identifies a storage tier class.
type Kind string

const (
	// KindDurable survives restarts; one JSON file per key in the profile dir.
	KindDurable Kind = "durable"
	// KindEphemeral lives in a per-boot session directory; gone after exit.
	KindEphemeral Kind = "ephemeral"
	// KindStructured is the SQLite-backed key-value table. Larger quota,
	// context-aware (may suspend the caller).
	KindStructured Kind = "structured"
	// KindMinimal is a single capped fallback file; values above 4 KiB are
	// rejected.
	KindMinimal Kind = "minimal"
	// KindMemory holds data in-process only.
	KindMemory Kind = "memory"
)

// Tier is the contract every storage backend implements.
//
// Get returns (nil, nil) when the key is absent; an error means the tier
// itself failed. Set overwrites. Delete of a missing key is not an error.
// Keys lists every key currently held by the tier.
type Tier interface {
	Kind() Kind
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
