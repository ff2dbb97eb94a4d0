package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                  string `yaml:"port"`
	AllowedOrigin         string `yaml:"allowed_origin"`
	DataFile              string `yaml:"data_file"`
	DatabaseURL           string `yaml:"database_url"`
	RedisAddr             string `yaml:"redis_addr"`
	RedisPassword         string `yaml:"redis_password"`
	RedisDB               int    `yaml:"redis_db"`
	AuthSecret            string `yaml:"auth_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	OwnerPIN              string `yaml:"owner_pin"`
	LogFile               string `yaml:"log_file"`
	LogLevel              string `yaml:"log_level"`
	RemoteBaseURL         string `yaml:"remote_base_url"`
	RemoteTimeoutSeconds  int    `yaml:"remote_timeout_seconds"`
	ReportCacheTTLSeconds int    `yaml:"report_cache_ttl_seconds"`
	SeedDemo              bool   `yaml:"seed_demo"`
	Timezone              string `yaml:"timezone"`
}

func defaults() Config {
	return Config{
		Port:                  "8080",
		AllowedOrigin:         "http://127.0.0.1:3000",
		DataFile:              "kasirinaja.db",
		AccessTokenTTLMinutes: 480,
		LogLevel:              "info",
		RemoteTimeoutSeconds:  5,
		ReportCacheTTLSeconds: 300,
		Timezone:              "Asia/Jakarta",
	}
}

// Load starts from defaults, applies the YAML file named by CONFIG_FILE when
// set, then applies environment variables. Secrets get no defaults.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AllowedOrigin = getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB, 0)
	cfg.AuthSecret = strings.TrimSpace(getEnv("AUTH_SECRET", cfg.AuthSecret))
	cfg.AccessTokenTTLMinutes = getEnvInt("ACCESS_TOKEN_TTL_MINUTES", cfg.AccessTokenTTLMinutes, 1)
	cfg.OwnerPIN = strings.TrimSpace(getEnv("OWNER_PIN", cfg.OwnerPIN))
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.RemoteBaseURL = strings.TrimRight(getEnv("REMOTE_BASE_URL", cfg.RemoteBaseURL), "/")
	cfg.RemoteTimeoutSeconds = getEnvInt("REMOTE_TIMEOUT_SECONDS", cfg.RemoteTimeoutSeconds, 1)
	cfg.ReportCacheTTLSeconds = getEnvInt("REPORT_CACHE_TTL_SECONDS", cfg.ReportCacheTTLSeconds, 1)
	if raw := os.Getenv("SEED_DEMO"); raw != "" {
		cfg.SeedDemo = cast.ToBool(raw)
	}
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSeconds) * time.Second
}

func (c Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

// Location falls back to UTC when the timezone is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

// getEnvInt keeps fallback when the variable is unset, malformed or below min.
func getEnvInt(key string, fallback int, min int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || val < min {
		return fallback
	}
	return val
}
