package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dynaqr/backend/internal/access"
	"github.com/dynaqr/backend/internal/auth"
	"github.com/dynaqr/backend/internal/config"
	"github.com/dynaqr/backend/internal/db"
	"github.com/dynaqr/backend/internal/events"
	apphttp "github.com/dynaqr/backend/internal/http"
	"github.com/dynaqr/backend/internal/http/handlers"
	"github.com/dynaqr/backend/internal/ledger"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/preview"
	"github.com/dynaqr/backend/internal/registry"
	"github.com/dynaqr/backend/internal/resolver"
	"github.com/dynaqr/backend/internal/txbuilder"
	"github.com/dynaqr/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Ledger
	chain, err := ledger.NewAlgodClient(cfg.AlgodURL, cfg.AlgodToken, log)
	if err != nil {
		log.Fatal("failed to create algod client", zap.Error(err))
	}
	builder := txbuilder.New(chain, cfg.AppID)

	// Wallet providers for the signing session. KMD first so a running
	// daemon wins auto-detection; the mnemonic provider is the dev fallback.
	var providers []wallet.Provider
	if kmdProvider, err := wallet.NewKMDProvider(cfg.KMDURL, cfg.KMDToken, cfg.KMDWalletName, cfg.KMDWalletPassword, log); err != nil {
		log.Warn("kmd provider unavailable", zap.Error(err))
	} else {
		providers = append(providers, kmdProvider)
	}
	if cfg.OperatorMnemonic != "" {
		if mn, err := wallet.NewMnemonicProvider(cfg.OperatorMnemonic, "operator"); err != nil {
			log.Warn("mnemonic provider unavailable", zap.Error(err))
		} else {
			providers = append(providers, mn)
		}
	}
	session := wallet.NewSession(chain, cfg.MaxWaitRounds, log, providers...)

	// Operator session for scan counting; nil disables counting.
	var operator *wallet.Session
	if cfg.OperatorMnemonic != "" {
		mn, err := wallet.NewMnemonicProvider(cfg.OperatorMnemonic, "operator")
		if err != nil {
			log.Warn("operator wallet misconfigured, scan counting disabled", zap.Error(err))
		} else {
			operator = wallet.NewSession(chain, cfg.MaxWaitRounds, log, mn)
			if _, err := operator.Connect(ctx, ""); err != nil {
				log.Warn("operator wallet connect failed, scan counting disabled", zap.Error(err))
				operator = nil
			}
		}
	}

	// Metadata: postgres behind a redis read-through cache.
	store := metadata.NewCachedStore(metadata.NewPostgresStore(pool), rdb, cfg.MetadataCacheTTL, log)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	previews := preview.NewFetcher(cfg.PreviewFetchTimeoutMS, cfg.PreviewFetchMaxRetries, log)
	reg := registry.New(chain, builder, store, previews, publisher, cfg.ResolverBaseURL, log)

	window := access.TimeWindow{
		OpenHour:  cfg.AccessWindowOpenHour,
		OpenMin:   cfg.AccessWindowOpenMin,
		CloseHour: cfg.AccessWindowCloseHour,
		CloseMin:  cfg.AccessWindowCloseMin,
		Location:  cfg.AccessWindowLocation(log),
	}
	engine := access.NewEngine(chain, window, log)
	resolverSvc := resolver.New(chain, builder, engine, store, operator, publisher, log)

	// Handlers
	challenger := auth.NewChallenger(auth.NewRedisNonceStore(rdb))
	authHandler := handlers.NewAuthHandler(challenger, cfg.JWTSecret, cfg.JWTExpiration, log)
	walletHandler := handlers.NewWalletHandler(session, log)
	eventHandler := handlers.NewEventHandler(reg, session, store, log)
	registrationHandler := handlers.NewRegistrationHandler(reg, session, log)
	resolveHandler := handlers.NewResolveHandler(resolverSvc, log)
	wsHub := handlers.NewWSHub(cfg.JWTSecret, subscriber, log)

	wsHub.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, walletHandler, eventHandler, registrationHandler, resolveHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		resolverSvc.Drain()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
