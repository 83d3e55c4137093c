package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/examprep-api/internal/config"
	"github.com/noah-isme/examprep-api/internal/database"
	"github.com/noah-isme/examprep-api/internal/events"
	"github.com/noah-isme/examprep-api/internal/handler"
	"github.com/noah-isme/examprep-api/internal/middleware"
	"github.com/noah-isme/examprep-api/internal/repository"
	"github.com/noah-isme/examprep-api/internal/router"
	"github.com/noah-isme/examprep-api/internal/security"
	"github.com/noah-isme/examprep-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, result events disabled")
	}

	validate := service.NewValidator()

	userRepo := repository.NewUserRepository(db)
	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewResultRepository(db)

	passwords := security.NewPasswordHasher(bcrypt.DefaultCost)
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	publisher := events.NewNATSPublisher(natsConn, cfg.NATSSubject, logger)

	authService := service.NewAuthService(userRepo, passwords, tokens, validate, logger)
	examService := service.NewExamService(examRepo, resultRepo, validate, redisClient, cfg.CatalogCacheTTL, logger)
	dashboardService := service.NewDashboardService(examRepo, resultRepo, redisClient, cfg.DashboardCacheTTL, logger)
	resultService := service.NewResultService(examRepo, resultRepo, validate, dashboardService, publisher, logger)
	seedService := service.NewSeedService(userRepo, examService, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: handler.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.ClientOrigin,
		AccessLog:    true,
	})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler: handler.NewHealthHandler(cfg, db, redisClient, logger),
		AuthHandler:   handler.NewAuthHandler(authService, cfg.IsProduction(), logger),
		ExamHandler:   handler.NewExamHandler(examService, logger),
		ResultHandler: handler.NewResultHandler(resultService, dashboardService, logger),
		SeedHandler:   handler.NewSeedHandler(seedService, logger),
		Guards: handler.RouteGuards{
			Authenticate:  middleware.Authenticate(authService, logger),
			AuthLimiter:   middleware.RateLimit("auth", cfg.AuthRateMax, cfg.RateWindow),
			SubmitLimiter: middleware.RateLimit("submit", cfg.SubmitRateMax, cfg.RateWindow),
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
