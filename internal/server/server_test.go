package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/vault/internal/config"
	"github.com/congo-pay/vault/internal/logging"
	"github.com/congo-pay/vault/internal/routes"
)

func TestErrorHandlerRendersJSON(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(logging.Discard())})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusForbidden, "unauthorized")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("connection reset")
	})

	cases := map[string]struct {
		status int
		msg    string
	}{
		"/forbidden": {http.StatusForbidden, "unauthorized"},
		"/boom":      {http.StatusInternalServerError, "internal error"},
	}
	for path, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want.status || body["error"] != want.msg {
			t.Fatalf("%s: got %d %q, want %d %q", path, resp.StatusCode, body["error"], want.status, want.msg)
		}
	}
}

func TestNewRequiresInfrastructureOutsideDev(t *testing.T) {
	_, err := New(routes.Deps{
		Cfg:    config.Config{Env: "production", AdminAddress: "a", CustodyAddress: "c", JWTSecret: "s"},
		Logger: logging.Discard(),
	})
	if err == nil {
		t.Fatalf("expected production server without a database to fail")
	}
}
