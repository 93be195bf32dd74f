package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/aeroclub/flightsched/internal/app"
	"github.com/aeroclub/flightsched/internal/config"
	"github.com/aeroclub/flightsched/internal/notify"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/aeroclub/flightsched/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Разовый запуск overdue sweep, для cron. Дата "сегодня" задаётся
// флагом, чтобы прогон был воспроизводимым.
func main() {
	dateStr := flag.String("date", "", "sweep date override, YYYY-MM-DD (default: today)")
	purgePeriods := flag.Bool("purge-periods", false, "also delete periods whose end date has passed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	today := time.Now()
	if *dateStr != "" {
		today, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			logger.Fatal("Invalid -date value", zap.String("date", *dateStr), zap.Error(err))
		}
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

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

	if err := sweepService.Run(ctx, today); err != nil {
		logger.Fatal("Overdue sweep failed", zap.Error(err))
	}

	if *purgePeriods {
		if _, err := sweepService.PurgeExpiredPeriods(ctx, today); err != nil {
			logger.Fatal("Period purge failed", zap.Error(err))
		}
	}

	logger.Info("Sweep finished", zap.String("date", today.Format("2006-01-02")))
}
