package cache

import (
	"context"
	"sync"
	"time"

	"kasirinaja/dashboard/internal/domain"
)

// ReportCache holds computed complete reports keyed by store revision.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.CompleteReport, bool, error)
	Set(ctx context.Context, key string, value *domain.CompleteReport, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(context.Context, string) (*domain.CompleteReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(context.Context, string, *domain.CompleteReport, time.Duration) error {
	return nil
}

type memoryEntry struct {
	report  domain.CompleteReport
	expires time.Time
}

// MemoryReportCache keeps reports in process. Expired entries are dropped on
// the next write so the map stays bounded by the number of live keys.
type MemoryReportCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryReportCache) Get(_ context.Context, key string) (*domain.CompleteReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expires) {
		return nil, false, nil
	}
	report := entry.report
	return &report, true, nil
}

func (c *MemoryReportCache) Set(_ context.Context, key string, value *domain.CompleteReport, ttl time.Duration) error {
	if value == nil || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{report: *value, expires: now.Add(ttl)}
	return nil
}

func (c *MemoryReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
