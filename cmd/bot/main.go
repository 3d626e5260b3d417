package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"reward-bot/internal/bot"
	"reward-bot/internal/common/config"
	"reward-bot/internal/common/logger"
	httpapi "reward-bot/internal/http"
	"reward-bot/internal/platform/storage"
	"reward-bot/internal/platform/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init("reward-bot", cfg.Debug)
	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("channel", cfg.Bot.ChannelUsername).
		Bool("debug", cfg.Debug).
		Msg("Starting reward bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	client := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL)
	b := bot.New(cfg, client, store)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		server = httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(b, store, cfg.Debug))
		go func() {
			logger.Info().Str("addr", cfg.HTTPAddr).Msg("Starting ops HTTP server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Ops HTTP server failed")
			}
		}()
	}

	if err := b.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Bot stopped with error")
	}

	logger.Info().Msg("Shutting down...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Ops server forced to shutdown")
		}
	}

	logger.Info().Msg("Bot exited")
}
