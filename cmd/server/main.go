package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/snapjudge/snapjudge/internal/api/http"
	"github.com/snapjudge/snapjudge/internal/application/review"
	"github.com/snapjudge/snapjudge/internal/config"
	"github.com/snapjudge/snapjudge/internal/discord"
	"github.com/snapjudge/snapjudge/internal/infrastructure/memory"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	store := memory.NewStore()
	client := discord.NewClient(cfg.BotToken, cfg.ReviewChannel, logger)
	reviewSvc := review.NewService(store, client, cfg.ReviewerUserID, logger)

	apiServer := httpapi.NewServer(reviewSvc, cfg.PublicKey, cfg.UploadDir, logger)
	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// text-command listener
	gateway := discord.NewGateway(cfg.BotToken, reviewSvc, client, logger)
	go gateway.Run(ctx)

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}
