package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/sector-rotation/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), KRXRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != KRXRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", KRXRateLimit.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), NaverRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "key", []string{"a"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result []string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestNilClientIsDisabled(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Error("nil client must report disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"ETFDailyKey", ETFDailyKey("20250102"), "krx:etf:20250102"},
		{"NewsKey", NewsKey("반도체"), "naver:news:반도체"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}
