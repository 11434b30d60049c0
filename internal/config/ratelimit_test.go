package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_CAPACITY", "")
	t.Setenv("RATE_LIMIT_TTL", "")

	cfg := LoadRateLimitConfig()
	if !cfg.Enabled || cfg.Capacity != 30 || cfg.RefillTokens != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.KeyStrategy != "ip_route" {
		t.Fatalf("KeyStrategy = %q", cfg.KeyStrategy)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
	// TTL is raised to cover several refill cycles.
	if cfg.TTL != 5*2*time.Second {
		t.Fatalf("TTL = %s", cfg.TTL)
	}
}

func TestLoadRedisConfigAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	if got := LoadRedisConfig().Addr; got != "cache.internal:6380" {
		t.Fatalf("Addr = %q", got)
	}

	// Host/port pair takes precedence over the shorthand.
	t.Setenv("REDIS_HOST", "cache2.internal")
	t.Setenv("REDIS_PORT", "7000")
	if got := LoadRedisConfig().Addr; got != "cache2.internal:7000" {
		t.Fatalf("Addr = %q", got)
	}
}
