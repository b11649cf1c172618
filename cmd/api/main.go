package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deskworks/service-desk/internal/api/http"
	"github.com/deskworks/service-desk/internal/api/http/handlers"
	"github.com/deskworks/service-desk/internal/auth"
	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/events"
	"github.com/deskworks/service-desk/internal/lifecycle"
	"github.com/deskworks/service-desk/internal/notify"
	"github.com/deskworks/service-desk/internal/observability"
	"github.com/deskworks/service-desk/internal/persistence"
	"github.com/deskworks/service-desk/internal/repository"
	"github.com/deskworks/service-desk/internal/service"
	"github.com/deskworks/service-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	readiness := map[string]handlers.Pinger{"redis": redis}
	entryRepo := repository.NewMemoryEntryRepository()
	if pool := pg.PoolHandle(); pool != nil {
		entryRepo = repository.NewEntryRepository(pool)
		readiness["postgres"] = pg
	} else {
		logger.Warn("serving entries from process memory; data is lost on restart")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	var mailer service.Mailer
	if cfg.Notification.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:        cfg.Notification.SMTPHost,
			Port:        cfg.Notification.SMTPPort,
			Username:    cfg.Notification.SMTPUsername,
			Password:    cfg.Notification.SMTPPassword,
			FromAddress: cfg.Notification.EmailFrom,
		})
	}
	notifier := worker.NewNotificationWorker(
		service.NewNotificationService(logger.Named("notify"), cfg.Notification, notify.NewRenderer(cfg.App.Location), mailer),
		logger.Named("notify"),
		cfg.Notification.QueueSize,
	)
	notifier.Attach(dispatcher)
	notifyDone := make(chan struct{})
	go func() {
		notifier.Run(ctx)
		close(notifyDone)
	}()

	entryService := service.NewEntryService(service.EntryDependencies{
		EntryRepo:  entryRepo,
		PublicIDs:  persistence.NewPublicIDs(redis, logger),
		Engine:     lifecycle.NewEngine(lifecycle.Options{Now: time.Now, Location: cfg.App.Location}),
		Dispatcher: dispatcher,
		Logger:     logger.Named("entries"),
		Metrics:    metrics,
		Timeline:   cfg.Timeline,
		Visit:      cfg.Visit,
	})

	digests := persistence.NewDigestCache(redis, time.Duration(cfg.Worker.DigestTTLMinutes)*time.Minute)
	digestWorker := worker.NewDigestWorker(entryService, digests, logger.Named("digest"), cfg.Worker.DigestInterval())
	go digestWorker.Run(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env != "development",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness, metrics),
		Entries:        handlers.NewEntriesHandler(entryService),
		Views:          handlers.NewViewsHandler(entryService, digests),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Prometheus:     metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
	cancel()
	<-notifyDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
