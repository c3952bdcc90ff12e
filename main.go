package main

import (
	"context"
	"log"
	"os"
	"time"

	"dealdesk/config"
	"dealdesk/middleware"
	"dealdesk/realtime"
	"dealdesk/routes"
	"dealdesk/utils"
	"dealdesk/worker"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "DEALDESK: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis is optional; caching, drafts and rate limiting degrade
	// gracefully without it
	if err := config.ConnectRedis(); err != nil {
		logger.Printf("Redis unavailable, continuing without it: %v", err)
	}

	// Initialize Sentry error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry init failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	appLogger := logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Realtime hub with its cache invalidation wiring
	cache := realtime.NewCache(config.Redis)
	hub := realtime.NewHub(cache, appLogger)

	// Initialize and start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reminderWorker := worker.NewReminderWorker(config.DB, hub, log.New(os.Stdout, "REMINDER: ", log.LstdFlags))
	go reminderWorker.Start(ctx)

	if config.AppConfig.SMTPHost != "" {
		notificationWorker := worker.NewNotificationWorker(config.DB, utils.NewMailer(), log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))
		go notificationWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB, hub, cache, appLogger)

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
