package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Notification filters for notify_on.
const (
	NotifyErrors = "errors"
	NotifyAll    = "all"
	NotifyNone   = "none"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	UserAgent      string        `mapstructure:"api_user_agent"`
	Sandbox        bool          `mapstructure:"sandbox"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`

	ProfilesFile  string `mapstructure:"profiles_file"`
	Profile       string `mapstructure:"profile"`
	NotifiersFile string `mapstructure:"notifiers_file"`
	NotifyOn      string `mapstructure:"notify_on"`

	NotifyTimeoutSeconds int           `mapstructure:"notify_timeout_seconds"`
	NotifyTimeout        time.Duration `mapstructure:"-"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "taxjar-adapter")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("api_user_agent", "taxjar-adapter/1.0")
	v.SetDefault("sandbox", false)
	v.SetDefault("timeout_seconds", 0)
	v.SetDefault("profiles_file", "")
	v.SetDefault("profile", "")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("notify_on", NotifyErrors)
	v.SetDefault("notify_timeout_seconds", 5)
	v.SetDefault("journal_type", "none")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.NotifyOn = strings.ToLower(strings.TrimSpace(cfg.NotifyOn))
	cfg.JournalType = strings.ToLower(strings.TrimSpace(cfg.JournalType))

	if cfg.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid timeout_seconds (must be zero or positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.NotifyOn {
	case NotifyErrors, NotifyAll, NotifyNone:
	default:
		return fmt.Errorf("invalid notify_on %q (expected errors, all or none)", cfg.NotifyOn)
	}

	if cfg.NotifyTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid notify_timeout_seconds (must be positive seconds)")
	}
	cfg.NotifyTimeout = time.Duration(cfg.NotifyTimeoutSeconds) * time.Second

	if cfg.JournalTTLSeconds <= 0 {
		return fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second
	return nil
}
