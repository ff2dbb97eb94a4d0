// Package settings keeps owner preferences. Each preference lives under its
// own key so older saved values of any JSON shape still load.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/kv"
	"kasirinaja/dashboard/internal/store"
)

const (
	KeyDarkMode           = "dark_mode_enabled"
	KeyAutoBackup         = "auto_backup_enabled"
	KeyBackupInterval     = "backup_interval"
	KeyMonthlySalesTarget = "monthly_sales_target"
)

const (
	DefaultBackupInterval = 60
	MinBackupInterval     = 5
	MaxBackupInterval     = 1440
)

func Defaults() domain.Settings {
	return domain.Settings{BackupInterval: DefaultBackupInterval}
}

type Service struct {
	mu       sync.RWMutex
	backend  kv.Store
	logger   *zap.Logger
	current  domain.Settings
	watchers []func(domain.Settings)
}

func New(ctx context.Context, backend kv.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{backend: backend, logger: logger.Named("settings"), current: Defaults()}
	if backend == nil {
		return s
	}

	if raw, ok := s.read(ctx, KeyDarkMode); ok {
		s.current.DarkMode = cast.ToBool(raw)
	}
	if raw, ok := s.read(ctx, KeyAutoBackup); ok {
		s.current.AutoBackup = cast.ToBool(raw)
	}
	if raw, ok := s.read(ctx, KeyBackupInterval); ok {
		if minutes, err := cast.ToIntE(raw); err == nil {
			s.current.BackupInterval = clampInterval(minutes)
		} else {
			s.logger.Warn("ignoring saved backup interval", zap.Any("value", raw), zap.Error(err))
		}
	}
	if raw, ok := s.read(ctx, KeyMonthlySalesTarget); ok {
		if target, err := cast.ToInt64E(raw); err == nil && target >= 0 {
			s.current.MonthlySalesTarget = target
		}
	}
	return s
}

func (s *Service) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies the non-nil fields, persists the changed keys and notifies
// watchers with the new settings.
func (s *Service) Update(ctx context.Context, upd domain.SettingsUpdate) (domain.Settings, error) {
	if upd.BackupInterval != nil && (*upd.BackupInterval < MinBackupInterval || *upd.BackupInterval > MaxBackupInterval) {
		return s.Get(), fmt.Errorf("%w: backup interval must be between %d and %d minutes", store.ErrValidation, MinBackupInterval, MaxBackupInterval)
	}
	if upd.MonthlySalesTarget != nil && *upd.MonthlySalesTarget < 0 {
		return s.Get(), fmt.Errorf("%w: sales target must not be negative", store.ErrValidation)
	}

	s.mu.Lock()
	if upd.DarkMode != nil {
		s.current.DarkMode = *upd.DarkMode
		s.write(ctx, KeyDarkMode, s.current.DarkMode)
	}
	if upd.AutoBackup != nil {
		s.current.AutoBackup = *upd.AutoBackup
		s.write(ctx, KeyAutoBackup, s.current.AutoBackup)
	}
	if upd.BackupInterval != nil {
		s.current.BackupInterval = *upd.BackupInterval
		s.write(ctx, KeyBackupInterval, s.current.BackupInterval)
	}
	if upd.MonthlySalesTarget != nil {
		s.current.MonthlySalesTarget = *upd.MonthlySalesTarget
		s.write(ctx, KeyMonthlySalesTarget, s.current.MonthlySalesTarget)
	}
	current := s.current
	watchers := append([]func(domain.Settings){}, s.watchers...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(current)
	}
	return current, nil
}

// Watch registers fn to run after every successful Update.
func (s *Service) Watch(fn func(domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Service) read(ctx context.Context, key string) (any, bool) {
	var raw any
	if err := kv.Load(ctx, s.backend, key, &raw, nil); err != nil {
		s.logger.Warn("ignoring unreadable setting", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, raw != nil
}

func (s *Service) write(ctx context.Context, key string, value any) {
	if s.backend == nil {
		return
	}
	if err := kv.Save(ctx, s.backend, key, value); err != nil {
		s.logger.Error("persist failed", zap.String("key", key), zap.Error(err))
	}
}

func clampInterval(minutes int) int {
	return min(max(minutes, MinBackupInterval), MaxBackupInterval)
}
