package service

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/notify"
	"github.com/aeroclub/flightsched/internal/repository"
	"go.uber.org/zap"
)

// SlotService — прямые правки слотов персоналом: статус (погода,
// обслуживание) и назначение инструктора. Переходы, связанные с
// заявками, живут в RequestService.
type SlotService struct {
	slotRepo       *repository.SlotRepository
	instructorRepo *repository.InstructorRepository
	notifier       notify.Dispatcher
	logger         *zap.Logger
}

func NewSlotService(
	slotRepo *repository.SlotRepository,
	instructorRepo *repository.InstructorRepository,
	notifier notify.Dispatcher,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		slotRepo:       slotRepo,
		instructorRepo: instructorRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// GetByID получает слот по ID
func (s *SlotService) GetByID(ctx context.Context, slotID int64) (*model.FlightSlot, error) {
	return s.slotRepo.GetByID(ctx, slotID)
}

// ListByPeriod получает все слоты периода
func (s *SlotService) ListByPeriod(ctx context.Context, periodID int64) ([]*model.FlightSlot, error) {
	return s.slotRepo.ListByPeriod(ctx, periodID)
}

// SetStatus — прямая правка статуса слота персоналом
func (s *SlotService) SetStatus(ctx context.Context, slotID int64, status model.SlotStatus) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}

	if err := s.slotRepo.UpdateStatus(ctx, slotID, status); err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	s.logger.Info("Slot status changed by staff",
		zap.Int64("slot_id", slotID),
		zap.String("from", string(slot.Status)),
		zap.String("to", string(status)),
	)

	return nil
}

// AssignInstructor назначает инструктора на слот
func (s *SlotService) AssignInstructor(ctx context.Context, slotID, instructorID int64) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}

	instructor, err := s.instructorRepo.GetByID(ctx, instructorID)
	if err != nil {
		return fmt.Errorf("get instructor: %w", err)
	}
	if instructor == nil {
		return ErrInstructorNotFound
	}

	if err := s.slotRepo.SetInstructor(ctx, slotID, &instructorID); err != nil {
		return fmt.Errorf("assign instructor: %w", err)
	}

	s.dispatchInstructorEvent(ctx, notify.InstructorAssigned, slot, instructorID)

	s.logger.Info("Instructor assigned to slot",
		zap.Int64("slot_id", slotID),
		zap.Int64("instructor_id", instructorID),
	)

	return nil
}

// RemoveInstructor снимает инструктора со слота
func (s *SlotService) RemoveInstructor(ctx context.Context, slotID int64) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if slot.InstructorID == nil {
		return nil
	}

	removed := *slot.InstructorID
	if err := s.slotRepo.SetInstructor(ctx, slotID, nil); err != nil {
		return fmt.Errorf("remove instructor: %w", err)
	}

	s.dispatchInstructorEvent(ctx, notify.InstructorRemoved, slot, removed)

	s.logger.Info("Instructor removed from slot",
		zap.Int64("slot_id", slotID),
		zap.Int64("instructor_id", removed),
	)

	return nil
}

func (s *SlotService) dispatchInstructorEvent(ctx context.Context, t notify.EventType, slot *model.FlightSlot, instructorID int64) {
	e := notify.NewEvent(t)
	slotID := slot.ID
	e.SlotID = &slotID
	e.InstructorID = &instructorID
	e.StudentID = slot.StudentID

	var outbox notify.Outbox
	outbox.Add(e)
	outbox.Flush(ctx, s.notifier)
}
