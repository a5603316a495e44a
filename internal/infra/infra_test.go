package infra

import (
	"context"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewCache(context.Background(), CacheOptions{URL: "redis://" + mr.Addr() + "/0", Timeout: time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if got := client.Options().ReadTimeout; got != time.Second {
		t.Fatalf("expected 1s read timeout, got %v", got)
	}

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.CheckGet(t, "k", "v")
}

func TestConstructorsRequireURL(t *testing.T) {
	if _, err := NewCache(context.Background(), CacheOptions{}); err == nil {
		t.Fatalf("expected redis url error")
	}
	if _, err := NewLedgerPool(context.Background(), LedgerPoolOptions{}); err == nil {
		t.Fatalf("expected database url error")
	}
	if _, _, err := NewNATS("", "vault", nil); err == nil {
		t.Fatalf("expected nats url error")
	}
}

func TestNewLedgerPool(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := NewLedgerPool(context.Background(), LedgerPoolOptions{
		URL:         url,
		AppName:     "vault-test",
		MaxConns:    3,
		LockTimeout: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if got := pool.Config().MaxConns; got != 3 {
		t.Fatalf("expected 3 max conns, got %d", got)
	}
	var timeout string
	if err := pool.QueryRow(context.Background(), "SHOW statement_timeout").Scan(&timeout); err != nil {
		t.Fatalf("show statement_timeout: %v", err)
	}
	if timeout != "1500ms" {
		t.Fatalf("expected 1500ms statement timeout, got %s", timeout)
	}
}
