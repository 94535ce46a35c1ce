package storage

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/dmitrijs2005/taskvault/internal/logging"
)

// Environment describes what the capability probe discovered about the
// host: which tiers accept writes and what kind of platform we run on.
type Environment struct {
	OS     string
	Mobile bool
	// ReadOnlyProfile is set when the durable tier exists but rejects
	// writes (sandboxed or read-only profile directories behave this way).
	ReadOnlyProfile bool

	DurableOK    bool
	EphemeralOK  bool
	StructuredOK bool
	MinimalOK    bool

	// QuotaEstimate is a coarse upper bound on how much the preferred
	// persistent tier is expected to hold, in bytes.
	QuotaEstimate int64
}

// probeKey is written and immediately removed on each tier during probing.
const probeKey = "__taskvault_probe__"

// Probe performs a non-destructive write/remove on each candidate tier and
// records the outcome. It never returns an error: a tier that fails the
// probe is reported as unavailable, nothing propagates to the caller.
type Probe struct {
	log logging.Logger
}

func NewProbe(log logging.Logger) *Probe {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Probe{log: log}
}

// Run probes every tier in tiers and derives platform facts.
func (p *Probe) Run(ctx context.Context, tiers map[Kind]Tier) Environment {
	env := Environment{
		OS:     runtime.GOOS,
		Mobile: runtime.GOOS == "android" || runtime.GOOS == "ios",
	}

	for kind, tier := range tiers {
		ok := p.tryTier(ctx, tier)
		switch kind {
		case KindDurable:
			env.DurableOK = ok
			if !ok {
				env.ReadOnlyProfile = p.looksReadOnly(ctx, tier)
			}
		case KindEphemeral:
			env.EphemeralOK = ok
		case KindStructured:
			env.StructuredOK = ok
		case KindMinimal:
			env.MinimalOK = ok
		}
	}

	switch {
	case env.DurableOK && !env.Mobile:
		env.QuotaEstimate = ceilingDesktop
	case env.DurableOK:
		env.QuotaEstimate = ceilingMobileDefault
	default:
		env.QuotaEstimate = ceilingConstrained
	}

	p.log.Debug(ctx, "capability probe finished",
		"os", env.OS,
		"mobile", env.Mobile,
		"durable", env.DurableOK,
		"ephemeral", env.EphemeralOK,
		"structured", env.StructuredOK,
		"minimal", env.MinimalOK,
		"readOnlyProfile", env.ReadOnlyProfile,
	)

	return env
}

// tryTier exercises a write, read-back and delete of the probe key.
// Failures are captured, never propagated.
func (p *Probe) tryTier(ctx context.Context, tier Tier) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn(ctx, "tier probe panicked", "tier", tier.Kind(), "panic", r)
			ok = false
		}
	}()

	if err := tier.Set(ctx, probeKey, []byte("1")); err != nil {
		p.log.Debug(ctx, "tier probe write failed", "tier", tier.Kind(), "error", err)
		return false
	}
	v, err := tier.Get(ctx, probeKey)
	if err != nil || string(v) != "1" {
		_ = tier.Delete(ctx, probeKey)
		p.log.Debug(ctx, "tier probe read-back failed", "tier", tier.Kind(), "error", err)
		return false
	}
	if err := tier.Delete(ctx, probeKey); err != nil {
		p.log.Debug(ctx, "tier probe cleanup failed", "tier", tier.Kind(), "error", err)
		return false
	}
	return true
}

// looksReadOnly distinguishes "profile exists but rejects writes" from
// other failure modes, mirroring how private browsing makes the durable
// tier silently unusable while reads still work.
func (p *Probe) looksReadOnly(ctx context.Context, tier Tier) bool {
	err := tier.Set(ctx, probeKey, []byte("1"))
	if err == nil {
		_ = tier.Delete(ctx, probeKey)
		return false
	}
	if os.IsPermission(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "read-only")
}
