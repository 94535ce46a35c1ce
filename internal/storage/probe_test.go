package storage

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_ReportsWorkingTiers(t *testing.T) {
	ctx := context.Background()
	durable, err := NewDurableTier(t.TempDir())
	require.NoError(t, err)

	env := NewProbe(nil).Run(ctx, map[Kind]Tier{
		KindDurable:   durable,
		KindEphemeral: NewMemoryTier(),
	})

	assert.Equal(t, runtime.GOOS, env.OS)
	assert.True(t, env.DurableOK)
	assert.True(t, env.EphemeralOK)
	assert.False(t, env.StructuredOK)
	assert.False(t, env.MinimalOK)
}

func TestProbe_FailingTierIsReportedNotPropagated(t *testing.T) {
	env := NewProbe(nil).Run(context.Background(), map[Kind]Tier{
		KindDurable:   &brokenTier{kind: KindDurable},
		KindEphemeral: NewMemoryTier(),
	})

	assert.False(t, env.DurableOK)
	assert.True(t, env.EphemeralOK)
}

func TestProbe_LeavesNoProbeKeyBehind(t *testing.T) {
	ctx := context.Background()
	tier := NewMemoryTier()

	NewProbe(nil).Run(ctx, map[Kind]Tier{KindEphemeral: tier})

	keys, err := tier.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestProbe_QuotaEstimate(t *testing.T) {
	env := NewProbe(nil).Run(context.Background(), map[Kind]Tier{
		KindDurable: NewMemoryTier(),
	})
	if env.Mobile {
		t.Skip("desktop-only expectation")
	}
	assert.Equal(t, int64(40<<20), env.QuotaEstimate)
}
