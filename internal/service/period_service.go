package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	minPeriodDays     = 7
	maxPeriodDays     = 21
	periodHorizonDays = 30
)

type PeriodService struct {
	pool         *pgxpool.Pool
	aircraftRepo *repository.AircraftRepository
	periodRepo   *repository.PeriodRepository
	slotRepo     *repository.SlotRepository
	logger       *zap.Logger
}

func NewPeriodService(
	pool *pgxpool.Pool,
	aircraftRepo *repository.AircraftRepository,
	periodRepo *repository.PeriodRepository,
	slotRepo *repository.SlotRepository,
	logger *zap.Logger,
) *PeriodService {
	return &PeriodService{
		pool:         pool,
		aircraftRepo: aircraftRepo,
		periodRepo:   periodRepo,
		slotRepo:     slotRepo,
		logger:       logger,
	}
}

// dateOnly обрезает время, оставляя дату в UTC
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysInclusive считает дни диапазона, включая обе границы
func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// validatePeriodDates проверяет длительность периода и горизонт
// планирования. Чистая функция: today передаётся явно.
func validatePeriodDates(start, end, today time.Time) error {
	days := daysInclusive(start, end)
	if days < minPeriodDays || days > maxPeriodDays || days%7 != 0 {
		return fmt.Errorf("%w: got %d days", ErrPeriodDurationInvalid, days)
	}
	if start.After(today.AddDate(0, 0, periodHorizonDays)) {
		return fmt.Errorf("%w: starts %s", ErrPeriodStartTooFar, start.Format("2006-01-02"))
	}
	return nil
}

// planSlots раскладывает период в слоты: каждый день по одному слоту
// на блок. Слоты с уже прошедшей датой создаются как unavailable.
func planSlots(period *model.FlightPeriod, today time.Time) []*model.FlightSlot {
	var slots []*model.FlightSlot
	for d := period.StartDate; !d.After(period.EndDate); d = d.AddDate(0, 0, 1) {
		for _, block := range model.Blocks {
			status := model.SlotStatusAvailable
			if d.Before(today) {
				status = model.SlotStatusUnavailable
			}
			aircraftID := period.AircraftID
			slots = append(slots, &model.FlightSlot{
				PeriodID:   period.ID,
				Date:       d,
				Block:      block,
				AircraftID: &aircraftID,
				Status:     status,
			})
		}
	}
	return slots
}

// Create выполняет единый проход валидации (длительность, горизонт,
// доступность судна, пересечения) и создаёт учебный период.
func (s *PeriodService) Create(ctx context.Context, aircraftID int64, start, end time.Time) (*model.FlightPeriod, error) {
	start = dateOnly(start)
	end = dateOnly(end)

	if err := validatePeriodDates(start, end, dateOnly(time.Now())); err != nil {
		return nil, err
	}

	aircraft, err := s.aircraftRepo.GetByID(ctx, aircraftID)
	if err != nil {
		return nil, fmt.Errorf("get aircraft: %w", err)
	}
	if aircraft == nil {
		return nil, ErrAircraftNotFound
	}
	if !aircraft.Bookable() {
		return nil, fmt.Errorf("%w: %s", ErrAircraftUnavailable, aircraft.TailNumber)
	}

	overlap, err := s.periodRepo.OverlapExists(ctx, aircraftID, start, end, 0)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlap {
		return nil, ErrPeriodOverlap
	}

	period := &model.FlightPeriod{
		AircraftID: aircraftID,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}

	if err := s.periodRepo.Create(ctx, period); err != nil {
		return nil, fmt.Errorf("create period: %w", err)
	}

	s.logger.Info("Flight period created",
		zap.Int64("period_id", period.ID),
		zap.Int64("aircraft_id", aircraftID),
		zap.String("start_date", start.Format("2006-01-02")),
		zap.String("end_date", end.Format("2006-01-02")),
	)

	return period, nil
}

// GenerateSlots создаёт слоты периода: дни × блоки, всё в одной
// транзакции. Вызывается ровно один раз на период — повторный вызов
// упрётся в уникальный индекс (дата, блок, судно).
func (s *PeriodService) GenerateSlots(ctx context.Context, periodID int64, today time.Time) (int, error) {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return 0, fmt.Errorf("get period: %w", err)
	}
	if period == nil {
		return 0, ErrPeriodNotFound
	}

	slots := planSlots(period, dateOnly(today))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slotRepo := s.slotRepo.WithTx(tx)
	for _, slot := range slots {
		if err := slotRepo.Create(ctx, slot); err != nil {
			return 0, fmt.Errorf("create slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Slots generated for period",
		zap.Int64("period_id", periodID),
		zap.Int("days", period.Days()),
		zap.Int("slots_created", len(slots)),
	)

	return len(slots), nil
}

// GetByID получает период по ID
func (s *PeriodService) GetByID(ctx context.Context, periodID int64) (*model.FlightPeriod, error) {
	return s.periodRepo.GetByID(ctx, periodID)
}

// SetActive включает или выключает приём заявок на слоты периода
func (s *PeriodService) SetActive(ctx context.Context, periodID int64, active bool) error {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("get period: %w", err)
	}
	if period == nil {
		return ErrPeriodNotFound
	}

	if err := s.periodRepo.SetActive(ctx, periodID, active); err != nil {
		return fmt.Errorf("set period active: %w", err)
	}

	s.logger.Info("Flight period activation changed",
		zap.Int64("period_id", periodID),
		zap.Bool("is_active", active),
	)

	return nil
}

// Delete удаляет период вместе со слотами и заявками (каскад на
// уровне БД).
func (s *PeriodService) Delete(ctx context.Context, periodID int64) error {
	period, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("get period: %w", err)
	}
	if period == nil {
		return ErrPeriodNotFound
	}

	if err := s.periodRepo.Delete(ctx, periodID); err != nil {
		return fmt.Errorf("delete period: %w", err)
	}

	s.logger.Info("Flight period deleted",
		zap.Int64("period_id", periodID),
		zap.Int64("aircraft_id", period.AircraftID),
	)

	return nil
}
