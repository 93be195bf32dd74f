package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroclub/flightsched/internal/repository"
	"go.uber.org/zap"
)

// SweepService — пакетная уборка просроченных данных. Запускается
// по расписанию; today передаётся явно, чтобы проходы были
// тестируемыми и повторяемыми.
type SweepService struct {
	requestRepo *repository.RequestRepository
	slotRepo    *repository.SlotRepository
	periodRepo  *repository.PeriodRepository
	requests    *RequestService
	logger      *zap.Logger
}

func NewSweepService(
	requestRepo *repository.RequestRepository,
	slotRepo *repository.SlotRepository,
	periodRepo *repository.PeriodRepository,
	requests *RequestService,
	logger *zap.Logger,
) *SweepService {
	return &SweepService{
		requestRepo: requestRepo,
		slotRepo:    slotRepo,
		periodRepo:  periodRepo,
		requests:    requests,
		logger:      logger,
	}
}

// ReclaimRequests отменяет все pending заявки, чей слот датирован
// раньше today. Отмена идёт обычным путём Cancel (без штрафа), чтобы
// освобождение слота и уведомления совпадали с ручной отменой.
func (s *SweepService) ReclaimRequests(ctx context.Context, today time.Time) (int, error) {
	overdue, err := s.requestRepo.ListOverduePending(ctx, dateOnly(today))
	if err != nil {
		return 0, fmt.Errorf("list overdue requests: %w", err)
	}

	cancelled := 0
	for _, request := range overdue {
		if err := s.requests.Cancel(ctx, request.ID, false); err != nil {
			s.logger.Error("Failed to cancel overdue request",
				zap.Int64("request_id", request.ID),
				zap.Error(err),
			)
			continue
		}
		cancelled++
	}

	s.logger.Info("Overdue requests reclaimed",
		zap.Int("found", len(overdue)),
		zap.Int("cancelled", cancelled),
	)

	return cancelled, nil
}

// ReclaimSlots принудительно переводит прошедшие слоты в unavailable.
// Страховка для слотов без живой заявки: проход по заявкам к этому
// моменту уже освободил всё, что мог.
func (s *SweepService) ReclaimSlots(ctx context.Context, today time.Time) (int64, error) {
	n, err := s.slotRepo.MarkOverdueUnavailable(ctx, dateOnly(today))
	if err != nil {
		return 0, fmt.Errorf("reclaim overdue slots: %w", err)
	}

	s.logger.Info("Overdue slots reclaimed", zap.Int64("slots_retired", n))

	return n, nil
}

// Run выполняет оба прохода уборки: сначала заявки, потом слоты.
// Повторный запуск в тот же день ничего не меняет.
func (s *SweepService) Run(ctx context.Context, today time.Time) error {
	if _, err := s.ReclaimRequests(ctx, today); err != nil {
		return err
	}
	if _, err := s.ReclaimSlots(ctx, today); err != nil {
		return err
	}
	return nil
}

// PurgeExpiredPeriods удаляет периоды, закончившиеся до today, вместе
// со слотами и заявками (каскад). Отдельный, явно вызываемый проход:
// в ежедневный Run не входит.
func (s *SweepService) PurgeExpiredPeriods(ctx context.Context, today time.Time) (int64, error) {
	n, err := s.periodRepo.DeleteEndedBefore(ctx, dateOnly(today))
	if err != nil {
		return 0, fmt.Errorf("purge expired periods: %w", err)
	}

	s.logger.Info("Expired periods purged", zap.Int64("periods_deleted", n))

	return n, nil
}
