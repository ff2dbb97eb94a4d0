package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"kasirinaja/dashboard/internal/backup"
	"kasirinaja/dashboard/internal/cache"
	"kasirinaja/dashboard/internal/config"
	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/httpapi"
	"kasirinaja/dashboard/internal/jobs"
	"kasirinaja/dashboard/internal/kv"
	"kasirinaja/dashboard/internal/kv/boltkv"
	"kasirinaja/dashboard/internal/kv/pgkv"
	"kasirinaja/dashboard/internal/kv/rediskv"
	"kasirinaja/dashboard/internal/notify"
	"kasirinaja/dashboard/internal/recommendation"
	"kasirinaja/dashboard/internal/remote"
	"kasirinaja/dashboard/internal/service"
	"kasirinaja/dashboard/internal/settings"
	"kasirinaja/dashboard/internal/store"
	"kasirinaja/dashboard/internal/view"
)

const redisNamespace = "kasirinaja:kv:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)
	backend, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage unavailable", zap.Error(err))
	}
	closers = append(closers, closeBackend)

	reportCache := cache.ReportCache(cache.NewMemoryReportCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.DefaultNamespace)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using in-process report cache", zap.Error(err))
		} else {
			if n, err := redisCache.Purge(ctx); err != nil {
				logger.Warn("purge stale reports", zap.Error(err))
			} else if n > 0 {
				logger.Debug("purged stale reports", zap.Int("keys", n))
			}
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("report cache: redis")
		}
	}

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))

	st := store.New(ctx, backend, logger, store.WithClock(clock))
	if cfg.SeedDemo {
		st.Seed(ctx, rng)
	}
	recs := recommendation.New(ctx, backend, logger, recommendation.WithClock(clock), recommendation.WithRand(rng))
	prefs := settings.New(ctx, backend, logger)
	backups := backup.New(st, recs, backend, logger)
	hub := notify.New(logger, notify.DefaultKeep)

	svc := service.New(service.Deps{
		Store:           st,
		Recommendations: recs,
		Settings:        prefs,
		Backup:          backups,
		Notifications:   hub,
		ReportCache:     reportCache,
		ReportCacheTTL:  cfg.ReportCacheTTL(),
		Mirror:          remote.New(cfg.RemoteBaseURL, cfg.RemoteTimeout(), logger),
		Rand:            rng,
		Logger:          logger,
	})
	if cfg.RemoteBaseURL != "" {
		svc.SyncFromRemote(ctx)
	}

	scheduler := jobs.New(loc, st, backups, hub, logger)
	prefs.Watch(func(s domain.Settings) {
		if err := scheduler.Configure(s); err != nil {
			logger.Error("reschedule auto backup", zap.Error(err))
		}
	})
	if err := scheduler.Start(prefs.Get()); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.TokenTTL(), cfg.OwnerPIN)
	api := httpapi.New(svc, view.New(svc, scheduler, logger), auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("dashboard listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", zap.Error(err))
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}

// newLogger writes console output to stdout and, when LOG_FILE is set, JSON
// lines to a rotated file.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)
	if cfg.LogFile == "" {
		return zap.New(console, zap.AddCaller()), nil
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
	}
	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotated),
		level,
	)
	return zap.New(zapcore.NewTee(file, console), zap.AddCaller()), nil
}

// openBackend picks postgres when DATABASE_URL is set, then redis when
// REDIS_ADDR is set, and otherwise the local bolt file.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (kv.Store, func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgkv.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		logger.Info("storage: postgres")
		return pg, pg.Close, nil
	case cfg.RedisAddr != "":
		rs := rediskv.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redisNamespace)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis unavailable and REDIS_ADDR is set: %w", err)
		}
		logger.Info("storage: redis")
		return rs, rs.Close, nil
	default:
		db, err := boltkv.Open(cfg.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DataFile, err)
		}
		logger.Info("storage: bolt", zap.String("file", cfg.DataFile))
		return db, db.Close, nil
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.OwnerPIN) < 6 {
		return fmt.Errorf("OWNER_PIN must be set and at least 6 digits")
	}
	if err := validatePINStrength(cfg.OwnerPIN); err != nil {
		return fmt.Errorf("OWNER_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects common, repeated-digit and sequential PINs.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "121212": true, "112233": true,
		"123123": true, "147258": true, "159753": true, "696969": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}
	return nil
}
