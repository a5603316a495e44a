package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/vault/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *int) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	calls := 0
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(callerLocal, c.Get("X-Test-Caller"))
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/execute", func(c *fiber.Ctx) error {
		calls++
		if strings.Contains(string(c.Body()), "reject") {
			return fiber.NewError(fiber.StatusConflict, "insufficient available funds")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"call": calls})
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, caller, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/execute", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Test-Caller", caller)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _ := setupTestApp(t)
	if status, _ := post(t, app, "alice", "", "{}"); status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls := setupTestApp(t)

	status, first := post(t, app, "alice", "abc123", `{"msg":1}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected status %d got %d", fiber.StatusOK, status)
	}
	status, second := post(t, app, "alice", "abc123", `{"msg":1}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected replayed status %d got %d", fiber.StatusOK, status)
	}
	if first != second {
		t.Fatalf("expected replayed payload %s got %s", first, second)
	}
	if *calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", *calls)
	}
}

func TestIdempotencyKeysAreScopedPerCaller(t *testing.T) {
	app, calls := setupTestApp(t)
	post(t, app, "alice", "k1", `{"msg":1}`)
	post(t, app, "bob", "k1", `{"msg":1}`)
	if *calls != 2 {
		t.Fatalf("expected both callers to execute, got %d calls", *calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentPayload(t *testing.T) {
	app, _ := setupTestApp(t)
	post(t, app, "alice", "k1", `{"msg":1}`)
	if status, _ := post(t, app, "alice", "k1", `{"msg":2}`); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d", fiber.StatusUnprocessableEntity, status)
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	app, calls := setupTestApp(t)
	for i := 0; i < 2; i++ {
		if status, _ := post(t, app, "alice", "k2", `{"reject":true}`); status != fiber.StatusConflict {
			t.Fatalf("expected %d got %d", fiber.StatusConflict, status)
		}
	}
	if *calls != 2 {
		t.Fatalf("expected failed request to be retried, got %d calls", *calls)
	}
}
