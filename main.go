package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"shopbot/internal/auth"
	"shopbot/internal/database"
	"shopbot/internal/handlers"
	"shopbot/internal/intake"
	"shopbot/internal/middleware"
	"shopbot/internal/repositories"
	"shopbot/internal/services"
	"shopbot/internal/session"
	"shopbot/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", database.DriverSQLite)
	viper.SetDefault("DB_DSN", "data/shop.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("GATEWAY_JWT_SECRET", "")
	viper.SetDefault("ADMIN_ACTOR_ID", int64(0))
	viper.SetDefault("ADMIN_PASSPHRASE_HASH", "")
	viper.SetDefault("SHOP_COUNTRY", "RU")
	viper.SetDefault("SHOP_CITY", "Saint Petersburg")
	viper.SetDefault("DELIVERY_PRICE_MINOR", int64(10000))
	viper.SetDefault("CURRENCY", "RUB")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()

	// --- Logging ---
	level, err := zerolog.ParseLevel(viper.GetString("LOG_LEVEL"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "shopbot").Logger().Level(level)
	zlog.Logger = log

	// --- Persistence ---
	store, err := database.Open(database.Config{
		Driver: viper.GetString("DB_DRIVER"),
		DSN:    viper.GetString("DB_DSN"),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	// The service cannot run with a partial schema; a migration failure is
	// fatal and has already been rolled back.
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	db, err := store.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle unavailable")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Session store ---
	sessionTTL := viper.GetDuration("SESSION_TTL")
	var sessions session.Store
	if addr := viper.GetString("REDIS_ADDR"); addr != "" {
		sessions = session.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), sessionTTL)
		log.Info().Str("addr", addr).Msg("using redis session store")
	} else {
		sessions = session.NewMemoryStore(sessionTTL)
	}

	// --- Order event publisher (optional) ---
	var publisher services.EventPublisher
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events disabled")
	}

	// --- Services ---
	authorizer := auth.NewStaticAuthorizer(
		viper.GetInt64("ADMIN_ACTOR_ID"),
		viper.GetString("ADMIN_PASSPHRASE_HASH"),
	)
	catalogService := services.NewCatalogService(productRepo, log)
	cartService := services.NewCartService(cartRepo, productRepo, userRepo, log)
	checkoutService := services.NewCheckoutService(cartRepo, productRepo, orderRepo, store, publisher,
		services.ShippingConfig{
			CountryCode:        viper.GetString("SHOP_COUNTRY"),
			City:               viper.GetString("SHOP_CITY"),
			DeliveryPriceMinor: viper.GetInt64("DELIVERY_PRICE_MINOR"),
			Currency:           viper.GetString("CURRENCY"),
		}, log)
	machine := intake.NewMachine(sessions, catalogService, authorizer)

	// --- HTTP surface for the messaging gateway ---
	gatewayHandler := handlers.NewGatewayHandler(
		catalogService, cartService, checkoutService, machine, authorizer, log)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")
	if secret := viper.GetString("GATEWAY_JWT_SECRET"); secret != "" {
		apiV1 = apiV1.Group("", middleware.AuthRequired(secret))
	} else {
		log.Warn().Msg("GATEWAY_JWT_SECRET not set, gateway endpoints are unauthenticated")
	}
	gatewayHandler.RegisterRoutes(apiV1)

	// --- Start HTTP server with graceful shutdown ---
	appPort := viper.GetString("APP_PORT")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", appPort).Msg("starting server")
		if err := app.Listen(appPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
	log.Info().Msg("server gracefully stopped")
}
