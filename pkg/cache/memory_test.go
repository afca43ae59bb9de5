package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(t *testing.T) (*MemoryStore, clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(MemoryConfig{Clock: clock, CheckPeriod: time.Minute})
	return store, clock
}

func TestMemoryStoreRepeatedHitDoesNotCountMiss(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "schedules_all", []byte(`{"total":3}`), time.Minute))

	first, ok, err := store.Get(ctx, "schedules_all")
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := store.Get(ctx, "schedules_all")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, first, second)
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, float64(100), stats.HitRatePercent)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "consultations_12345678", []byte("x"), time.Second))

	clock.Advance(time.Second)
	_, ok, _ := store.Get(ctx, "consultations_12345678")
	assert.True(t, ok, "entry is still valid at its expiry instant")

	clock.Advance(time.Millisecond)
	_, ok, _ = store.Get(ctx, "consultations_12345678")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "expired entry is evicted on read")

	stats, _ := store.Stats(ctx)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Second))
	require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Hour))

	clock.Advance(2 * time.Second)
	value, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}

func TestMemoryStoreDefaultTTL(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	clock.Advance(4 * time.Minute)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStoreDeleteMatching(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t)
	for _, key := range []string{"horarios_all", "horarios_2010", "inscritos_all"} {
		require.NoError(t, store.Set(ctx, key, []byte("v"), time.Minute))
	}

	count, err := store.DeleteMatching(ctx, "horarios_*")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, _ := store.Stats(ctx)
	assert.Equal(t, []string{"inscritos_all"}, stats.ActiveKeys)
}

func TestMemoryStoreDeleteMatchingEscapesPattern(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "rosters_a.b", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "rosters_axb", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "xrosters_a.b", []byte("v"), time.Minute))

	count, err := store.DeleteMatching(ctx, "rosters_a.b")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))

	existed, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, _ = store.Delete(ctx, "a")
	assert.False(t, existed)

	_, _, _ = store.Get(ctx, "b")
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())

	stats, _ := store.Stats(ctx)
	assert.Equal(t, 0, stats.Keys)
	assert.Equal(t, uint64(1), stats.Hits, "counters survive a clear")
}

func TestMemoryStoreStatsHitRate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(t)

	stats, _ := store.Stats(ctx)
	assert.Equal(t, float64(0), stats.HitRatePercent)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	_, _, _ = store.Get(ctx, "a")
	_, _, _ = store.Get(ctx, "missing")
	_, _, _ = store.Get(ctx, "missing")

	stats, _ = store.Stats(ctx)
	assert.Equal(t, 33.33, stats.HitRatePercent)
	assert.Equal(t, 1, stats.Keys)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreBackgroundSweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(t)
	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))

	store.Start(ctx)
	defer store.Stop()

	assert.Eventually(t, func() bool {
		clock.Advance(time.Minute)
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
