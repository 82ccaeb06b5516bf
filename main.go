package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"boardroom-booking/cmd"
	"boardroom-booking/internal/data/repository"
	"boardroom-booking/internal/notify"
	"boardroom-booking/internal/reminder"
	"boardroom-booking/internal/usecase"
	"boardroom-booking/internal/wire"
	"boardroom-booking/pkg/database"
	"boardroom-booking/pkg/metrics"
	"boardroom-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.EnsureSchema(schemaCtx, db)
	cancel()
	if err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Optional session cache
	redisClient, err := database.InitRedis(config.Redis)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, session cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		repos.Session = repository.NewCachedSessionRepository(repos.Session, redisClient, config.Session.CacheTTL, logger)
		logger.Info("Session cache enabled", zap.String("redis", config.Redis.Address))
	}

	var m *metrics.Metrics
	if config.Metrics.Enabled {
		m = metrics.New()
	}

	notifier := notify.NewNotifier(notify.NewEmailSender(config.SendGrid, logger), repos.Notification, logger)

	opts := []reminder.Option{
		reminder.WithSchedule(config.Reminder.Schedule),
		reminder.WithWindow(config.Reminder.WindowStart, config.Reminder.WindowEnd),
		reminder.WithRetention(config.Reminder.Retention),
	}
	if m != nil {
		opts = append(opts, reminder.WithMetrics(m))
	}
	scheduler := reminder.NewScheduler(repos.Booking, notifier, logger, opts...)

	if config.Reminder.Enabled {
		scheduler.Start(ctx)
	} else {
		logger.Warn("Reminder polling disabled")
	}
	defer scheduler.Stop()

	deps := usecase.Dependencies{
		Reminders: scheduler,
		Notifier:  notifier,
	}
	if m != nil {
		deps.Metrics = m
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, deps, m, logger)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}

	logger.Info("Application stopped")
}
