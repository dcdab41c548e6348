package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SodaHost           string        `mapstructure:"soda_host"`
	SodaTimeoutSeconds int64         `mapstructure:"soda_timeout_seconds"`
	SodaTimeout        time.Duration `mapstructure:"-"`

	DatasetsFile        string        `mapstructure:"datasets_file"`
	SinksFile           string        `mapstructure:"sinks_file"`
	PullIntervalSeconds int64         `mapstructure:"pull_interval"`
	PullInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
// The SOCRATA_APP token deliberately stays outside this struct; it is read
// at query time via soda.Token.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "oda-utils")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("soda_host", "data.cityofnewyork.us")
	v.SetDefault("soda_timeout_seconds", 30)
	v.SetDefault("datasets_file", "./configs/datasets.yaml")
	v.SetDefault("sinks_file", "./configs/sinks.yaml")
	v.SetDefault("pull_interval", 3600) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/journal.db")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.SodaTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid soda_timeout_seconds (must be positive seconds)")
	}
	cfg.SodaTimeout = time.Duration(cfg.SodaTimeoutSeconds) * time.Second

	if cfg.PullIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid pull_interval (must be positive seconds)")
	}
	cfg.PullInterval = time.Duration(cfg.PullIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
