package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/dispatcher"
	"github.com/homeshine/conflict-engine/internal/application/service"
	"github.com/homeshine/conflict-engine/internal/config"
	"github.com/homeshine/conflict-engine/internal/infrastructure/external/stride"
	"github.com/homeshine/conflict-engine/internal/infrastructure/notify"
	"github.com/homeshine/conflict-engine/internal/infrastructure/persistence/repository"
	"github.com/homeshine/conflict-engine/internal/infrastructure/persistence/sqlite"
	"github.com/homeshine/conflict-engine/internal/infrastructure/reporting"
	"github.com/homeshine/conflict-engine/internal/infrastructure/worker"
	httpserver "github.com/homeshine/conflict-engine/internal/interfaces/http"
	"github.com/homeshine/conflict-engine/pkg/database"
	"github.com/homeshine/conflict-engine/pkg/utils"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting conflict resolution engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	txManager := sqlite.NewDB(db.DB, logger)
	appealRepo := repository.NewAppealRepository(db.DB, logger)
	adjustmentRepo := repository.NewAdjustmentRepository(db.DB, logger)
	ledgerRepo := repository.NewLedgerRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	appointmentStore := repository.NewAppointmentStore(db.DB, logger)
	userStore := repository.NewUserStore(db.DB, logger)

	// Payment gateway
	gateway := stride.NewClient(stride.Config{
		BaseURL: cfg.Stride.BaseURL,
		APIKey:  cfg.Stride.APIKey,
		Timeout: cfg.Stride.Timeout,
	}, logger)

	// Event dispatch and outbound notifications
	svcLogger := utils.NewSugar(logger)
	events := dispatcher.NewDispatcher(svcLogger)
	defer events.Close()

	if cfg.Notify.WebhookURL != "" {
		hook := notify.NewWebhookHook(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger)
		notify.Subscribe(events, hook)
	}

	// Application services
	auditService := service.NewAuditService(auditRepo, svcLogger)
	scrutinyService := service.NewScrutinyService(appealRepo, userStore, svcLogger)
	ledgerService := service.NewLedgerService(ledgerRepo, gateway, txManager, svcLogger)
	moneyService := service.NewMoneyMovementService(
		appealRepo, adjustmentRepo, appointmentStore, userStore,
		gateway, ledgerService, auditService, events, txManager, svcLogger,
	)
	appealService := service.NewAppealService(
		appealRepo, appointmentStore, userStore,
		moneyService, scrutinyService, auditService,
		events, txManager, svcLogger,
	)
	adjustmentService := service.NewAdjustmentService(
		adjustmentRepo, ledgerService, auditService,
		events, txManager, svcLogger,
	)
	queueService := service.NewQueueService(appealRepo, adjustmentRepo, userStore, svcLogger)

	// Background workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers := worker.NewManager(logger)
	if cfg.Reconcile.Enabled {
		workers.Register(worker.NewReconcileWorker(worker.ReconcileWorkerConfig{
			Interval:  cfg.Reconcile.Interval,
			BatchSize: cfg.Reconcile.BatchSize,
		}, ledgerService, logger))
	}
	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}
	defer workers.StopAll()

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpserver.Services{
		Appeals:     appealService,
		Adjustments: adjustmentService,
		Queue:       queueService,
		Money:       moneyService,
		Ledger:      ledgerService,
		Audit:       auditService,
		Exporter:    reporting.NewLedgerExporter(logger),
	}, svcLogger)

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
