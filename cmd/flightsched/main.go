package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aeroclub/flightsched/internal/app"
	"github.com/aeroclub/flightsched/internal/config"
	"github.com/aeroclub/flightsched/internal/notify"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/aeroclub/flightsched/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	aircraftRepo := repository.NewAircraftRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	periodRepo := repository.NewPeriodRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	feeRepo := repository.NewFeeRepository(pool)

	notifier := notify.NewZapDispatcher(logger)

	requestService := service.NewRequestService(
		pool, aircraftRepo, studentRepo, periodRepo, slotRepo, requestRepo, feeRepo,
		notifier, logger,
	)
	sweepService := service.NewSweepService(requestRepo, slotRepo, periodRepo, requestService, logger)

	scheduler := app.NewScheduler(sweepService, logger)
	scheduler.Start(ctx)

	logger.Info("flightsched started", zap.String("environment", cfg.Environment))

	<-ctx.Done()

	scheduler.Stop()
	logger.Info("flightsched stopped")
}
