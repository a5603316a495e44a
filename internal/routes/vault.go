package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/vault/internal/middleware"
	"github.com/congo-pay/vault/internal/vault"
)

// RegisterVaultRoutes wires the execute, query and balance endpoints.
// Execute is the only route guarded by Idempotency-Key replay.
func RegisterVaultRoutes(r fiber.Router, h *vault.Handler, d Deps) {
	if d.Cache != nil {
		r.Post("/execute", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger), h.Execute)
	} else {
		r.Post("/execute", h.Execute)
	}
	r.Post("/query", h.Query)
	r.Get("/balances/:owner", h.Balance)
	r.Get("/balances/:owner/:currency", h.Balance)
	r.Get("/config", h.Config)
}
