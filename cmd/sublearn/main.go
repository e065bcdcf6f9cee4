package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sublearn/internal/app"
	"sublearn/internal/config"
	"sublearn/internal/handler"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	dbConnectRetries = 30
	shutdownTimeout  = 30 * time.Second
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting sublearn")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.String("language", cfg.Pipeline.Language),
		zap.String("native_language", cfg.Pipeline.NativeLanguage),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
	)

	// Connect to database with retries
	db, err := app.ConnectDatabase(cfg.DSN(), dbConnectRetries, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	if err := app.RunMigrations(db, app.MigrationsURL, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	a, err := app.New(cfg, db, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}

	// Task registry pruning
	if cfg.Tasks.TTL > 0 {
		if err := a.Scheduler.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer a.Scheduler.Stop()
	} else {
		logger.Info("Task pruning disabled, TASK_TTL is 0")
	}

	// HTTP API
	e := a.API.Echo(a.Metrics)
	go func() {
		logger.Info("HTTP API listening", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Telegram bot
	var bot *tele.Bot
	if cfg.BotEnabled() {
		bot, err = tele.NewBot(tele.Settings{
			Token:  cfg.BotToken,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c tele.Context) {
				logger.Error("Bot handler failed", zap.Error(err))
			},
		})
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		h := handler.NewHandler(bot, a.Auth, a.Vocabulary, a.Stats, a.Orchestrator, a.Registry, cfg.Pipeline.Language, logger)
		h.RegisterHandlers()

		go func() {
			logger.Info("Bot started successfully")
			bot.Start()
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	if bot != nil {
		bot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}

	// Let running chunk jobs reach a terminal state
	done := make(chan struct{})
	go func() {
		a.Orchestrator.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All chunk jobs finished")
	case <-ctx.Done():
		logger.Warn("Shutdown timeout reached with chunk jobs still running",
			zap.Int("tasks", a.Registry.Len()))
	}

	logger.Info("Stopped gracefully")
}
