// Package jobs runs the periodic low-stock check and the automatic backup.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/store"
)

const (
	LowStockSpec      = "@every 30m"
	LowStockThreshold = 5
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type Scheduler struct {
	cron   *cron.Cron
	store  *store.Store
	backup *backup.Service
	hub    *notify.Hub
	logger *zap.Logger

	mu          sync.Mutex
	backupEntry cron.EntryID
}

func New(loc *time.Location, s *store.Store, b *backup.Service, hub *notify.Hub, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		store:  s,
		backup: b,
		hub:    hub,
		logger: logger.Named("jobs"),
	}
}

// Start runs one low-stock check, registers the recurring jobs for the given
// settings and starts the scheduler.
func (j *Scheduler) Start(settings domain.Settings) error {
	j.CheckLowStock(LowStockThreshold)
	if _, err := j.Watch(LowStockSpec, func() { j.CheckLowStock(LowStockThreshold) }); err != nil {
		return err
	}
	if err := j.Configure(settings); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("scheduler started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (j *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-j.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Configure replaces the auto-backup job to match settings. It is safe to
// call while the scheduler runs.
func (j *Scheduler) Configure(settings domain.Settings) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.backupEntry != 0 {
		j.cron.Remove(j.backupEntry)
		j.backupEntry = 0
	}
	if !settings.AutoBackup || j.backup == nil {
		j.logger.Info("auto backup disabled")
		return nil
	}
	spec := fmt.Sprintf("@every %dm", settings.BackupInterval)
	id, err := j.cron.AddFunc(spec, j.RunBackup)
	if err != nil {
		return fmt.Errorf("schedule auto backup: %w", err)
	}
	j.backupEntry = id
	j.logger.Info("auto backup scheduled", zap.Int("interval_minutes", settings.BackupInterval))
	return nil
}

// Watch registers fn on spec. The returned id is passed to Unwatch.
func (j *Scheduler) Watch(spec string, fn func()) (cron.EntryID, error) {
	id, err := j.cron.AddFunc(spec, fn)
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return id, nil
}

func (j *Scheduler) Unwatch(id cron.EntryID) {
	j.cron.Remove(id)
}

// Jobs is the number of registered entries.
func (j *Scheduler) Jobs() int {
	return len(j.cron.Entries())
}

func (j *Scheduler) BackupScheduled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.backupEntry != 0
}

// CheckLowStock notifies once about every product at or below threshold.
func (j *Scheduler) CheckLowStock(threshold int) []domain.Product {
	low := j.store.Catalog().LowStock(threshold)
	if len(low) == 0 || j.hub == nil {
		return low
	}
	lines := make([]string, len(low))
	for i, p := range low {
		lines[i] = fmt.Sprintf("%s (%d left)", p.Name, p.Stock)
	}
	j.hub.Notify(notify.LevelWarning, "Low stock", strings.Join(lines, ", "))
	return low
}

func (j *Scheduler) RunBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	key, err := j.backup.TakeSnapshot(ctx)
	if err != nil {
		j.logger.Error("auto backup failed", zap.Error(err))
		if j.hub != nil {
			j.hub.Notify(notify.LevelError, "Auto backup failed", err.Error())
		}
		return
	}
	j.logger.Debug("auto backup written", zap.String("key", key))
}
