package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkarlsen/taskpilot/internal/api"
	"github.com/dkarlsen/taskpilot/internal/config"
	"github.com/dkarlsen/taskpilot/internal/repository/postgres"
	"github.com/dkarlsen/taskpilot/internal/repository/redis"
	"github.com/dkarlsen/taskpilot/internal/repository/sqlite"
	"github.com/dkarlsen/taskpilot/internal/security"
	"github.com/dkarlsen/taskpilot/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting TaskPilot API server")

	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Optional at-rest encryption for persisted chat state
	var encryptor *security.Encryptor
	if cfg.Chat.EncryptionKey != "" {
		encryptor, err = security.NewEncryptorFromBase64(cfg.Chat.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid chat state encryption key")
		}
	}

	chatStorage, closeStorage, err := newChatStorage(cfg, redisClient, encryptor)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chat state storage")
	}
	defer closeStorage()

	router := api.NewRouter(cfg, db, redisClient, chatStorage, log.Logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newChatStorage picks the chat-state backend from configuration:
// redis (default) or an embedded sqlite database.
func newChatStorage(cfg *config.Config, redisClient *redis.Client, encryptor *security.Encryptor) (service.ChatStateStorage, func(), error) {
	switch cfg.Chat.StateBackend {
	case "sqlite":
		store, err := sqlite.NewChatStateStore(cfg.Chat.SQLitePath, encryptor)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return redis.NewChatStateStore(redisClient, encryptor), func() {}, nil
	}
}
