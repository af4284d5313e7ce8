package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sales-tracker/internal/api/http"
	"github.com/spec-kit/sales-tracker/internal/api/http/handlers"
	"github.com/spec-kit/sales-tracker/internal/config"
	"github.com/spec-kit/sales-tracker/internal/events"
	"github.com/spec-kit/sales-tracker/internal/observability"
	"github.com/spec-kit/sales-tracker/internal/parser"
	"github.com/spec-kit/sales-tracker/internal/persistence"
	"github.com/spec-kit/sales-tracker/internal/repository"
	"github.com/spec-kit/sales-tracker/internal/service"
	"github.com/spec-kit/sales-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	pool := pg.PoolHandle()
	messageRepo := repository.NewMessageRepository(pool)
	proofRepo := repository.NewProofRepository(pool)
	saleRepo := repository.NewSaleRepository(pool)
	closerRepo := repository.NewCloserRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)

	extractor, err := parser.LoadExtractor(cfg.Ingest.RulesPath)
	if err != nil {
		logger.Fatal("failed to load parser rules", zap.Error(err))
	}
	saleParser := parser.NewWithExtractor(extractor)

	dispatcher := events.NewInMemoryDispatcher()
	linker := service.NewProofLinker(proofRepo, cfg.Ingest.ProofWindow(), logger)
	stats := service.NewCloserStats(closerRepo, cfg.Rates)

	ingestService := service.NewIngestService(service.IngestDependencies{
		Parser:      saleParser,
		Linker:      linker,
		Stats:       stats,
		ProofRepo:   proofRepo,
		SaleRepo:    saleRepo,
		MessageRepo: messageRepo,
		Dispatcher:  dispatcher,
		Redis:       redis,
		DedupTTL:    cfg.Ingest.DedupTTL(),
		Logger:      logger,
	})
	saleService := service.NewSaleService(service.SaleDependencies{
		SaleRepo:    saleRepo,
		AuditRepo:   auditRepo,
		MessageRepo: messageRepo,
		Parser:      saleParser,
		Linker:      linker,
		Stats:       stats,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:   handlers.NewWebhookHandler(ingestService, cfg.Ingest, metrics, logger),
		Sales:     handlers.NewSalesHandler(saleService, cfg.Ingest),
		Closers:   handlers.NewClosersHandler(closerRepo),
		Messages:  handlers.NewMessagesHandler(messageRepo),
		AuditLogs: handlers.NewAuditLogsHandler(auditRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
