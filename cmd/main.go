package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/NuncEstBibendum/agrolink-api/internal/application/services"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/config"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/database"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/email"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/websocket"
	"github.com/NuncEstBibendum/agrolink-api/internal/interfaces/api"
	"github.com/NuncEstBibendum/agrolink-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg)
	mailer := email.NewClient(cfg.BrevoAPIKey, cfg.MailSender)
	hub := websocket.NewHub()

	router := api.NewRouter(api.Deps{
		Tokens:            tokens,
		Auth:              services.NewAuthService(db, tokens, mailer, time.Duration(cfg.RecoveryTTLHours)*time.Hour),
		Users:             services.NewUserService(db),
		Conversations:     services.NewConversationService(db),
		Messages:          services.NewMessageService(db, hub),
		Hub:               hub,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error("shutdown error", zap.Error(err))
	}
}
