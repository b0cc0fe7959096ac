package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quizzerbot/quiz_bot/internal/config"
	"github.com/quizzerbot/quiz_bot/internal/database"
	"github.com/quizzerbot/quiz_bot/pkg/logger"
	"github.com/quizzerbot/quiz_bot/telegram"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting Trivia Bot...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize and start Telegram bot
	bot, err := telegram.InitBot(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	// Pick up a session that survived the last shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	resumed, err := bot.Sessions().Resume(ctx)
	cancel()
	if err != nil {
		logger.Error("Failed to resume session", "error", err)
	} else if !resumed {
		logger.Info("No session to resume, waiting for /resetsession")
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv)

	// Graceful shutdown. The session is closed on the way out; Resume exists
	// for restarts after a crash, where the row is still open.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := bot.Sessions().EndSession(shutdownCtx); err != nil {
		logger.Error("Failed to end session on shutdown", "error", err)
	}
	shutdownCancel()
	bot.Stop()
	logger.Info("Bot stopped")
}
