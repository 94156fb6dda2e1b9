package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SCHEDULER_SPEC", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	t.Setenv("TRANSCODE_HOSTS", "")

	cfg := LoadConfig()

	if cfg.Scheduler.Spec != "@every 1m" {
		t.Fatalf("unexpected scheduler spec %q", cfg.Scheduler.Spec)
	}
	if cfg.Scheduler.RetryMaxAttempts != 0 {
		t.Fatalf("expected unbounded retry by default got %d", cfg.Scheduler.RetryMaxAttempts)
	}
	if len(cfg.TranscodeHosts) != 1 || cfg.TranscodeHosts[0] != "res.cloudinary.com" {
		t.Fatalf("unexpected transcode hosts %v", cfg.TranscodeHosts)
	}
	if cfg.Graph.Version != "v19.0" {
		t.Fatalf("unexpected graph version %q", cfg.Graph.Version)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CLAIM_TTL", "90s")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("GRAPH_RATE_PER_SECOND", "2.5")
	t.Setenv("TRANSCODE_HOSTS", "res.cloudinary.com, media.example.com ,")
	t.Setenv("ASYNQ_CONCURRENCY", "not-a-number")

	cfg := LoadConfig()

	if cfg.Scheduler.ClaimTTL != 90*time.Second {
		t.Fatalf("expected claim ttl 90s got %v", cfg.Scheduler.ClaimTTL)
	}
	if cfg.Scheduler.RetryMaxAttempts != 5 {
		t.Fatalf("expected 5 attempts got %d", cfg.Scheduler.RetryMaxAttempts)
	}
	if cfg.Graph.RatePerSecond != 2.5 {
		t.Fatalf("expected rate 2.5 got %v", cfg.Graph.RatePerSecond)
	}
	if len(cfg.TranscodeHosts) != 2 || cfg.TranscodeHosts[1] != "media.example.com" {
		t.Fatalf("unexpected transcode hosts %v", cfg.TranscodeHosts)
	}
	if cfg.AsynqConcurrency != 5 {
		t.Fatalf("expected fallback concurrency got %d", cfg.AsynqConcurrency)
	}
}

func TestValidateSchedulerSettings(t *testing.T) {
	base := func() *Config {
		return &Config{
			Graph:     Graph{Timeout: 5 * time.Minute},
			Scheduler: Scheduler{ClaimTTL: 15 * time.Minute, RetryBackoffMax: time.Hour},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected defaults to validate got %v", err)
	}

	cases := map[string]func(c *Config){
		"claim ttl too short":        func(c *Config) { c.Scheduler.ClaimTTL = 10 * time.Second },
		"claim ttl under graph call": func(c *Config) { c.Scheduler.ClaimTTL = 5 * time.Minute },
		"negative backoff":           func(c *Config) { c.Scheduler.RetryBackoff = -time.Second },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
