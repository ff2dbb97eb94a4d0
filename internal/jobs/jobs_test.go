package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv/memory"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/store"
)

type fixture struct {
	backend *memory.Store
	store   *store.Store
	backup  *backup.Service
	hub     *notify.Hub
	jobs    *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: memory.New(), hub: notify.New(zap.NewNop(), 0)}
	f.store = store.New(context.Background(), f.backend, zap.NewNop())
	f.backup = backup.New(f.store, nil, f.backend, zap.NewNop())
	f.jobs = New(time.UTC, f.store, f.backup, f.hub, zap.NewNop())
	return f
}

func TestCheckLowStockNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.Empty(t, f.jobs.CheckLowStock(LowStockThreshold))
	assert.Empty(t, f.hub.Recent(0))

	for _, in := range []domain.ProductInput{
		{Name: "Cooking Oil 1L", Category: domain.CategoryStaple, Price: 17500, Cost: 15000, Stock: 4},
		{Name: "Sweet Iced Tea", Category: domain.CategoryBeverage, Price: 5000, Cost: 2000, Stock: 100},
	} {
		_, _, err := f.store.Catalog().Create(ctx, in)
		require.NoError(t, err)
	}

	low := f.jobs.CheckLowStock(LowStockThreshold)
	require.Len(t, low, 1)
	assert.Equal(t, "Cooking Oil 1L", low[0].Name)

	recent := f.hub.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, notify.LevelWarning, recent[0].Level)
	assert.Contains(t, recent[0].Message, "Cooking Oil 1L (4 left)")
}

func TestConfigureReplacesBackupJob(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.jobs.Configure(domain.Settings{AutoBackup: true, BackupInterval: 60}))
	assert.True(t, f.jobs.BackupScheduled())
	assert.Equal(t, 1, f.jobs.Jobs())

	require.NoError(t, f.jobs.Configure(domain.Settings{AutoBackup: true, BackupInterval: 15}))
	assert.Equal(t, 1, f.jobs.Jobs())

	require.NoError(t, f.jobs.Configure(domain.Settings{AutoBackup: false, BackupInterval: 15}))
	assert.False(t, f.jobs.BackupScheduled())
	assert.Zero(t, f.jobs.Jobs())
}

func TestWatchAndUnwatch(t *testing.T) {
	f := newFixture(t)

	id, err := f.jobs.Watch("@every 1h", func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, f.jobs.Jobs())

	f.jobs.Unwatch(id)
	assert.Zero(t, f.jobs.Jobs())

	_, err = f.jobs.Watch("not a schedule", func() {})
	require.Error(t, err)
}

func TestRunBackupWritesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.jobs.RunBackup()
	keys, err := f.backup.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	f.backend.SetFailing(true)
	f.jobs.RunBackup()
	recent := f.hub.Recent(0)
	require.NotEmpty(t, recent)
	assert.Equal(t, notify.LevelError, recent[0].Level)
}

func TestStartAndStop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.jobs.Start(domain.Settings{AutoBackup: true, BackupInterval: 5}))
	assert.Equal(t, 2, f.jobs.Jobs())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.jobs.Stop(ctx))
}
