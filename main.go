package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blogapi/internal/app"
	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/logger"
	"blogapi/internal/repositories"
	"blogapi/internal/services"
	"blogapi/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.New(cfg)

	// --- Database ---
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	// --- Initialize RabbitMQ Client ---
	mqClient, publisher := newPublisher(cfg, log)
	if mqClient != nil {
		defer mqClient.Close()
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	// --- Initialize Services ---
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := services.NewAuthService(userRepo, tokens, cfg.BcryptCost, publisher, log)
	postService := services.NewPostService(postRepo, publisher, log)

	// --- Initialize Fiber App ---
	application := app.New(app.Options{
		AuthService: authService,
		PostService: postService,
		Logger:      log,
		AccessLog:   os.Stdout,
	})

	// --- Start RabbitMQ Consumer ---
	if mqClient != nil && cfg.EventsConsumer {
		if err := mqClient.ConsumeEvents(rabbitmq.LogEvent(log)); err != nil {
			log.Error("failed to start RabbitMQ consumer", slog.Any("error", err))
		}
	}

	// --- Start HTTP Server ---
	log.Info("starting server", slog.String("port", cfg.AppPort), slog.String("env", cfg.AppEnv))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Listen(cfg.AppPort); err != nil {
			log.Error("server failed to start", slog.Any("error", err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := application.Shutdown(); err != nil {
		log.Error("error during Fiber shutdown", slog.Any("error", err))
	}

	log.Info("server gracefully stopped")
}

// newPublisher connects to RabbitMQ when a URL is configured. Without one,
// or when the broker is unreachable, events are disabled and the returned
// publisher is a nil interface.
func newPublisher(cfg *config.Config, log *slog.Logger) (*rabbitmq.Client, services.EventPublisher) {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, event publishing disabled")
		return nil, nil
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, event publishing disabled", slog.Any("error", err))
		return nil, nil
	}
	return client, client
}
