package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kasirinaja/dashboard/internal/domain"
)

func TestNoopReportCacheNeverHits(t *testing.T) {
	var c ReportCache = NoopReportCache{}
	require.NoError(t, c.Set(context.Background(), "k", &domain.CompleteReport{}, time.Minute))

	got, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMemoryReportCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	c := NewMemoryReportCache()
	c.now = func() time.Time { return now }

	want := &domain.CompleteReport{Summary: domain.CompleteSummary{TotalSales: 50000, TotalTransactions: 2}}
	require.NoError(t, c.Set(ctx, "complete:3:2026-04-15", want, time.Minute))

	got, ok, err := c.Get(ctx, "complete:3:2026-04-15")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Summary, got.Summary)

	got.Summary.TotalSales = 1
	again, _, _ := c.Get(ctx, "complete:3:2026-04-15")
	assert.Equal(t, int64(50000), again.Summary.TotalSales, "callers must not mutate cached entries")

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "complete:3:2026-04-15")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "complete:4:2026-04-15", want, time.Minute))
	assert.Equal(t, 1, c.Len(), "expired entries are dropped on write")
}

func TestMemoryReportCacheIgnoresNilAndZeroTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache()
	require.NoError(t, c.Set(ctx, "a", nil, time.Minute))
	require.NoError(t, c.Set(ctx, "b", &domain.CompleteReport{}, 0))
	assert.Equal(t, 0, c.Len())
}

func TestRedisReportCacheIntegration(t *testing.T) {
	addr := os.Getenv("KASIRINAJA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("KASIRINAJA_TEST_REDIS_ADDR is not set")
	}
	ctx := context.Background()
	c := NewRedisReportCache(addr, os.Getenv("KASIRINAJA_TEST_REDIS_PASSWORD"), 0, "kasirinaja:test:report:")
	defer c.Close()
	require.NoError(t, c.Ping(ctx))
	_, err := c.Purge(ctx)
	require.NoError(t, err)

	key := "complete:1:" + time.Now().Format("2006-01-02")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := &domain.CompleteReport{Summary: domain.CompleteSummary{TotalSales: 125000, TotalTransactions: 4}}
	require.NoError(t, c.Set(ctx, key, want, time.Minute))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Summary, got.Summary)

	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
