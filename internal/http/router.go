package http

import (
	"time"

	"github.com/dynaqr/backend/internal/config"
	"github.com/dynaqr/backend/internal/http/handlers"
	"github.com/dynaqr/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	walletHandler *handlers.WalletHandler,
	eventHandler *handlers.EventHandler,
	registrationHandler *handlers.RegistrationHandler,
	resolveHandler *handlers.ResolveHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// The scan hot path. Public, anonymous, rate limited per IP: a QR code
	// going viral must not turn into a ledger read storm.
	app.Get("/resolve",
		middleware.RateLimitMiddleware(rdb, 300, time.Minute),
		resolveHandler.Resolve,
	)

	api := app.Group("/api/v1")

	// Wallet-proof auth (public)
	api.Post("/auth/challenge", authHandler.Challenge)
	api.Post("/auth/verify", authHandler.Verify)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Public reads
	api.Get("/events/:id", eventHandler.Get)
	api.Get("/stats", eventHandler.Stats)

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg.JWTSecret, log))

	// Wallet session
	protected.Post("/wallet/connect", walletHandler.Connect)
	protected.Delete("/wallet", walletHandler.Disconnect)
	protected.Get("/wallet", walletHandler.Get)

	// Events
	protected.Post("/events", eventHandler.Create)
	protected.Put("/events/:id/url", eventHandler.UpdateURL)
	protected.Post("/events/:id/deactivate", eventHandler.Deactivate)
	protected.Put("/events/:id/ticket-price", eventHandler.UpdateTicketPrice)
	protected.Patch("/events/:id/metadata", eventHandler.UpdateMetadata)

	// Registrations
	protected.Post("/events/:id/register", registrationHandler.Register)
	protected.Get("/events/:id/registration", registrationHandler.Get)
	protected.Post("/events/:id/confirm", registrationHandler.Confirm)
	protected.Post("/events/:id/mint-nft", registrationHandler.MintNFT)
	protected.Post("/events/:id/refund", registrationHandler.Refund)

	// WebSocket scan feed
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
