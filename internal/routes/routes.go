package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/vault/internal/address"
	"github.com/congo-pay/vault/internal/config"
	"github.com/congo-pay/vault/internal/ledger"
	"github.com/congo-pay/vault/internal/metrics"
	"github.com/congo-pay/vault/internal/middleware"
	"github.com/congo-pay/vault/internal/settlement"
	"github.com/congo-pay/vault/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes. DB, Cache,
// NATS and JetStream are optional in development.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	NATS      *nats.Conn
	JetStream jetstream.JetStream
	Logger    *slog.Logger
	Registry  *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
		d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	store, err := newStore(d)
	if err != nil {
		return err
	}
	var executor settlement.Executor = settlement.NewLoggerExecutor(d.Logger)
	if d.JetStream != nil {
		executor = settlement.NewPublisher(d.JetStream)
	}
	svc, err := vault.NewService(vault.Config{
		Store:          store,
		Addresses:      address.NewBase58(d.Cfg.AddressMinBytes, d.Cfg.AddressMaxBytes),
		Executor:       executor,
		CustodyAddress: d.Cfg.CustodyAddress,
		Logger:         d.Logger,
		Metrics:        metrics.New(d.Registry),
	})
	if err != nil {
		return err
	}
	vaultHandler := vault.NewHandler(svc, d.Cfg.FundsAttester())

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Registry)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("",
		middleware.CallerAuth([]byte(d.Cfg.JWTSecret)),
		middleware.CallerRateLimit(d.Cache, d.Cfg.RateLimitPerMinute),
	)
	RegisterVaultRoutes(protected, vaultHandler, d)

	return nil
}

// newStore picks the Postgres ledger when a database is configured, applying
// the schema and the initial administrator, and the in-memory one otherwise.
func newStore(d Deps) (ledger.Store, error) {
	if d.DB == nil {
		d.Logger.Warn("DATABASE_URL not set; ledger state is kept in memory")
		return ledger.NewInMemory(d.Cfg.AdminAddress), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := ledger.NewPostgres(d.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	created, err := store.InitAdmin(ctx, d.Cfg.AdminAddress)
	if err != nil {
		return nil, err
	}
	if created {
		d.Logger.Info("vault administrator initialized", slog.String("admin", d.Cfg.AdminAddress))
	}
	return store, nil
}
