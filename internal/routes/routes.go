package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/heartbridge/heartbridge/internal/config"
	"github.com/heartbridge/heartbridge/internal/identity"
	"github.com/heartbridge/heartbridge/internal/middleware"
	"github.com/heartbridge/heartbridge/internal/notification"
)

// devJWTSecret signs tokens when APP_ENV is a development value and no
// JWT_SECRET is configured.
const devJWTSecret = "heartbridge-dev-secret"

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional; in-memory stores stand in for them.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if err := d.Cfg.ValidateServer(); err != nil {
		return err
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var users identity.Repository
	if d.DB != nil {
		users = identity.NewPostgresRepository(d.DB)
	} else {
		users = identity.NewMemoryRepository()
	}
	var codes identity.CodeStore
	if d.Cache != nil {
		codes = identity.NewRedisCodeStore(d.Cache)
	} else {
		codes = identity.NewMemoryCodeStore()
	}

	secret := d.Cfg.JWTSecret
	if secret == "" {
		d.Logger.Warn("JWT_SECRET not set, using the development signing secret")
		secret = devJWTSecret
	}
	tokens := identity.NewTokens(secret, d.Cfg.TokenTTL, d.Cfg.AppName)
	identitySvc := identity.NewService(users, codes, tokens, d.Notifier, identity.Options{
		CodeTTL:   d.Cfg.OTPTTL,
		EchoCodes: d.Cfg.IsDev(),
	})
	identityHandler := identity.NewHandler(identitySvc)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, identityHandler, middleware.StartLoginRateLimit(d.Cache, d.Cfg.StartLoginPerMin, d.Logger))

	// Protected routes
	requireAuth := middleware.BearerAuth(identitySvc)
	api.Get("/profile", requireAuth, identityHandler.Profile)
	RegisterVideoRoutes(api, requireAuth)

	d.Logger.Info("routes ready",
		slog.String("users", backendName(d.DB != nil, "postgres")),
		slog.String("codes", backendName(d.Cache != nil, "redis")),
	)
	return nil
}

// ErrorHandler renders every error as {"error": message}, the shape the
// client decodes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

func backendName(enabled bool, name string) string {
	if enabled {
		return name
	}
	return "memory"
}
