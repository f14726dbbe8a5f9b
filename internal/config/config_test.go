package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "taxjar-adapter" || cfg.NotifyOn != NotifyErrors || cfg.JournalType != "none" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.JournalTTL != 7*24*time.Hour || cfg.Timeout != 0 || cfg.NotifyTimeout != 5*time.Second {
		t.Fatalf("durations = %s %s %s", cfg.JournalTTL, cfg.Timeout, cfg.NotifyTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_KEY", "  abc  ")
	t.Setenv("API_URL", "https://api.sandbox.taxjar.com/")
	t.Setenv("TIMEOUT_SECONDS", "30")
	t.Setenv("NOTIFY_ON", "ALL")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "abc" || cfg.APIURL != "https://api.sandbox.taxjar.com" {
		t.Fatalf("api settings = %q %q", cfg.APIKey, cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second || cfg.NotifyOn != NotifyAll {
		t.Fatalf("timeout=%s notify_on=%s", cfg.Timeout, cfg.NotifyOn)
	}
	if cfg.NotifyTimeout != 2*time.Second {
		t.Fatalf("notify timeout = %s", cfg.NotifyTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("NOTIFY_ON", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid notify_on")
	}
}

func TestLoadRejectsZeroNotifyTimeout(t *testing.T) {
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero notify_timeout_seconds")
	}
}

func TestNormalizeRejectsNegativeTimeout(t *testing.T) {
	cfg := Config{TimeoutSeconds: -1, NotifyOn: NotifyNone, NotifyTimeoutSeconds: 1, JournalTTLSeconds: 1, JournalCleanupSeconds: 1}
	if err := cfg.normalize(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}
