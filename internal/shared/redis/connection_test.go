package redis

import (
	"context"
	"testing"

	"planets-engine/internal/shared/config"
)

func TestConnectDisabled(t *testing.T) {
	c, err := Connect(context.Background(), config.RedisConfig{Enabled: false})
	if err != nil || c != nil {
		t.Fatalf("Connect = %v, %v; want nil, nil", c, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestOptionsFromHostPort(t *testing.T) {
	opts, err := options(config.RedisConfig{Host: "cache", Port: "6380", Password: "pw", DB: 3})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 3 || opts.Password != "pw" {
		t.Fatalf("options = %+v", opts)
	}
}

func TestOptionsPreferURL(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://:secret@example:6379/2", Host: "ignored", Port: "1"})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "example:6379" || opts.DB != 2 || opts.Password != "secret" {
		t.Fatalf("options = %+v", opts)
	}

	if _, err := options(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatal("non-redis URL accepted")
	}
}
