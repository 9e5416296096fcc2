package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tapline-games/miniapp-notify/internal/config"
	"github.com/tapline-games/miniapp-notify/internal/handlers"
	"github.com/tapline-games/miniapp-notify/internal/initdata"
	"github.com/tapline-games/miniapp-notify/internal/logging"
	"github.com/tapline-games/miniapp-notify/internal/server"
	"github.com/tapline-games/miniapp-notify/internal/service"
	"github.com/tapline-games/miniapp-notify/internal/telegram"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	logger.Info("starting notify service", "port", cfg.Server.Port)
	if *configPath != "" {
		logger.Info("loaded config file", "path", *configPath)
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.AdminChatID == "" {
		// Requests will answer 500 env_missing until both are set.
		logger.Warn("bot token or admin chat id not configured")
	}

	client := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIBaseURL, cfg.Telegram.Timeout)
	verifier := initdata.NewVerifier(cfg.Telegram.BotToken, cfg.InitData.MaxAge)
	svc := service.NewNotifyService(client, verifier, cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, logger)
	handler := handlers.NewNotifyHandler(svc, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("notify service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
