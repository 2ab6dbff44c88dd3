package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/knighthoot/backend/internal/config"
	"github.com/knighthoot/backend/internal/database"
	"github.com/knighthoot/backend/internal/handler"
	"github.com/knighthoot/backend/internal/logger"
	"github.com/knighthoot/backend/internal/repository"
	"github.com/knighthoot/backend/internal/router"
	"github.com/knighthoot/backend/internal/service"
	"github.com/knighthoot/backend/internal/validator"
	"github.com/knighthoot/backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Knighthoot Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.ConnectRedis(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories and stores.
	userRepo := repository.NewUserRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	scoreRepo := repository.NewScoreRepository(pool)
	cardRepo := repository.NewCardRepository(pool)
	liveStore := repository.NewLiveStore(pool)

	// Services.
	authService := service.NewAuthService(cfg, rdb, userRepo, log)
	testService := service.NewTestService(testRepo, rdb, log)
	liveService := service.NewLiveService(liveStore, log)
	scoreService := service.NewScoreService(scoreRepo, testRepo, log)
	cardService := service.NewCardService(cardRepo, log)
	mediaService := service.NewMediaService(cfg)

	handlers := &router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Test:  handler.NewTestHandler(testService),
		Live:  handler.NewLiveHandler(liveService),
		Score: handler.NewScoreHandler(scoreService),
		Card:  handler.NewCardHandler(cardService),
		Media: handler.NewMediaHandler(mediaService),
	}

	// Background workers.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	mailWorker := worker.NewMailWorker(cfg, rdb, log)
	go mailWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Stop accepting new HTTP requests first, then drain the mail queue.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
