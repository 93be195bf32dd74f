package app

import (
	"context"
	"time"

	"github.com/aeroclub/flightsched/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	sweepService *service.SweepService
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(sweepService *service.SweepService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		sweepService: sweepService,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	// Запускаем ежедневную уборку просроченных заявок и слотов
	go s.runOverdueSweepTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runOverdueSweepTask периодически запускает overdue sweep
func (s *Scheduler) runOverdueSweepTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.runSweep(ctx)

	// Создаём ticker для периодического запуска (каждые 24 часа)
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Overdue sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Overdue sweep task cancelled")
			return
		}
	}
}

// runSweep выполняет один проход уборки с текущей датой
func (s *Scheduler) runSweep(ctx context.Context) {
	s.logger.Info("Starting overdue sweep")

	err := s.sweepService.Run(ctx, time.Now())
	if err != nil {
		s.logger.Error("Overdue sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("Overdue sweep completed successfully")
}
