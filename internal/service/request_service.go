package service

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/notify"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RequestService struct {
	pool         *pgxpool.Pool
	aircraftRepo *repository.AircraftRepository
	studentRepo  *repository.StudentRepository
	periodRepo   *repository.PeriodRepository
	slotRepo     *repository.SlotRepository
	requestRepo  *repository.RequestRepository
	feeRepo      *repository.FeeRepository
	notifier     notify.Dispatcher
	logger       *zap.Logger
}

func NewRequestService(
	pool *pgxpool.Pool,
	aircraftRepo *repository.AircraftRepository,
	studentRepo *repository.StudentRepository,
	periodRepo *repository.PeriodRepository,
	slotRepo *repository.SlotRepository,
	requestRepo *repository.RequestRepository,
	feeRepo *repository.FeeRepository,
	notifier notify.Dispatcher,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		pool:         pool,
		aircraftRepo: aircraftRepo,
		studentRepo:  studentRepo,
		periodRepo:   periodRepo,
		slotRepo:     slotRepo,
		requestRepo:  requestRepo,
		feeRepo:      feeRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create создаёт заявку студента на слот. Слот блокируется на время
// транзакции; статус заявки и слота записываются вместе.
func (s *RequestService) Create(ctx context.Context, studentID, slotID int64, notes string) (*model.FlightRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	slotRepo := s.slotRepo.WithTx(tx)

	slot, err := slotRepo.GetByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	period, err := s.periodRepo.WithTx(tx).GetByID(ctx, slot.PeriodID)
	if err != nil {
		return nil, fmt.Errorf("get period: %w", err)
	}
	if period == nil {
		return nil, ErrPeriodNotFound
	}
	if !period.IsActive {
		return nil, ErrPeriodNotActive
	}

	if slot.Status != model.SlotStatusAvailable {
		return nil, fmt.Errorf("%w: slot %d is %s", ErrSlotNotAvailable, slot.ID, slot.Status)
	}

	student, err := s.studentRepo.WithTx(tx).GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: id %d", ErrStudentNotFound, studentID)
	}

	if err := s.validateEligibility(ctx, tx, student, 0); err != nil {
		return nil, err
	}

	request := &model.FlightRequest{
		StudentID: studentID,
		SlotID:    slotID,
		Status:    model.RequestStatusPending,
		Notes:     notes,
	}

	if err := s.requestRepo.WithTx(tx).Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if err := slotRepo.SetStudentAndStatus(ctx, slotID, &studentID, model.SlotStatusPending); err != nil {
		return nil, fmt.Errorf("mark slot pending: %w", err)
	}

	var outbox notify.Outbox
	outbox.Add(s.requestEvent(notify.RequestCreated, request))

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	outbox.Flush(ctx, s.notifier)

	s.logger.Info("Flight request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("slot_id", slotID),
	)

	// Слот возвращается в закоммиченном состоянии, а не в снимке
	// до бронирования.
	slot.Status = model.SlotStatusPending
	slot.StudentID = &studentID
	request.Slot = slot
	request.Student = student

	return request, nil
}

// Approve одобряет заявку и резервирует слот. originalStatus позволяет
// вызывающему, уже поменявшему статус у себя, передать исходное
// значение для проверки перехода.
func (s *RequestService) Approve(ctx context.Context, requestID int64, originalStatus *model.RequestStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	request, err := s.requestRepo.WithTx(tx).GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return ErrRequestNotFound
	}

	status := request.Status
	if originalStatus != nil {
		status = *originalStatus
	}
	if !approvableFrom(status) {
		return fmt.Errorf("%w: cannot approve request in status %q", ErrInvalidStatusTransition, status)
	}

	// Слот перечитывается под блокировкой: проверка по памяти
	// пропустила бы параллельное одобрение.
	slot, err := s.slotRepo.WithTx(tx).GetByIDForUpdate(ctx, request.SlotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}

	switch slot.Status {
	case model.SlotStatusReserved, model.SlotStatusUnavailable:
		return fmt.Errorf("%w: slot %d is %s", ErrSlotNotAvailable, slot.ID, slot.Status)
	case model.SlotStatusPending:
		if slot.StudentID != nil && *slot.StudentID != request.StudentID {
			return fmt.Errorf("%w: slot %d is pending for another student", ErrSlotNotAvailable, slot.ID)
		}
	}

	student, err := s.studentRepo.WithTx(tx).GetByID(ctx, request.StudentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("%w: cannot verify balance for student %d", ErrStudentNotFound, request.StudentID)
	}
	if err := checkBalance(student); err != nil {
		return err
	}

	if err := s.requestRepo.WithTx(tx).UpdateStatus(ctx, requestID, model.RequestStatusApproved); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	if err := s.slotRepo.WithTx(tx).SetStudentAndStatus(ctx, slot.ID, &request.StudentID, model.SlotStatusReserved); err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	// Временный допуск одноразовый: гасим его, если одобрение прошло
	// только благодаря ему.
	if usesTemporaryPermission(student) {
		if err := s.studentRepo.WithTx(tx).ClearTemporaryPermission(ctx, student.ID); err != nil {
			return fmt.Errorf("clear temporary permission: %w", err)
		}
	}

	var outbox notify.Outbox
	outbox.Add(s.requestEvent(notify.RequestApproved, request))

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	outbox.Flush(ctx, s.notifier)

	s.logger.Info("Flight request approved",
		zap.Int64("request_id", requestID),
		zap.Int64("student_id", request.StudentID),
		zap.Int64("slot_id", slot.ID),
	)

	return nil
}

// Cancel отменяет заявку и освобождает слот. При applyFee со счёта
// студента списывается часовая ставка судна и создаётся запись о
// штрафе.
func (s *RequestService) Cancel(ctx context.Context, requestID int64, applyFee bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	request, err := s.requestRepo.WithTx(tx).GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return ErrRequestNotFound
	}

	if !cancellableFrom(request.Status) {
		return fmt.Errorf("%w: cannot cancel request in status %q", ErrInvalidStatusTransition, request.Status)
	}

	slot, err := s.slotRepo.WithTx(tx).GetByIDForUpdate(ctx, request.SlotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}

	if err := s.requestRepo.WithTx(tx).UpdateStatus(ctx, requestID, model.RequestStatusCancelled); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	if slot != nil {
		if err := s.slotRepo.WithTx(tx).SetStudentAndStatus(ctx, slot.ID, nil, model.SlotStatusAvailable); err != nil {
			return fmt.Errorf("free slot: %w", err)
		}
	}

	if applyFee {
		if err := s.chargeCancellationFee(ctx, tx, request, slot); err != nil {
			return err
		}
	}

	var outbox notify.Outbox
	outbox.Add(s.requestEvent(notify.RequestCancelled, request))

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	outbox.Flush(ctx, s.notifier)

	s.logger.Info("Flight request cancelled",
		zap.Int64("request_id", requestID),
		zap.Int64("student_id", request.StudentID),
		zap.Bool("fee_applied", applyFee),
	)

	return nil
}

// Delete — административное удаление заявки в обход state machine.
// Слот освобождается безусловно, независимо от статуса заявки.
func (s *RequestService) Delete(ctx context.Context, requestID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	request, err := s.requestRepo.WithTx(tx).GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return ErrRequestNotFound
	}

	if err := s.slotRepo.WithTx(tx).SetStudentAndStatus(ctx, request.SlotID, nil, model.SlotStatusAvailable); err != nil {
		return fmt.Errorf("free slot: %w", err)
	}

	if err := s.requestRepo.WithTx(tx).Delete(ctx, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Flight request deleted",
		zap.Int64("request_id", requestID),
		zap.Int64("student_id", request.StudentID),
	)

	return nil
}

// Validate — явная проверка перед сохранением новой или изменённой
// заявки: минимальный баланс и лимит одновременных заявок.
// excludeRequestID исключает саму проверяемую заявку из подсчёта.
func (s *RequestService) Validate(ctx context.Context, studentID, excludeRequestID int64) error {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("%w: id %d", ErrStudentNotFound, studentID)
	}

	return s.validateEligibility(ctx, nil, student, excludeRequestID)
}

// GetByID получает заявку по ID
func (s *RequestService) GetByID(ctx context.Context, requestID int64) (*model.FlightRequest, error) {
	return s.requestRepo.GetByID(ctx, requestID)
}

// validateEligibility проверяет баланс и лимит заявок. При tx != nil
// подсчёт идёт в рамках транзакции вызывающего.
func (s *RequestService) validateEligibility(ctx context.Context, tx pgx.Tx, student *model.Student, excludeRequestID int64) error {
	if err := checkBalance(student); err != nil {
		return err
	}

	requestRepo := s.requestRepo
	if tx != nil {
		requestRepo = s.requestRepo.WithTx(tx)
	}

	count, err := requestRepo.CountActiveByStudent(ctx, student.ID, excludeRequestID)
	if err != nil {
		return fmt.Errorf("count active requests: %w", err)
	}

	if limit := allowedRequests(student); count >= limit {
		return fmt.Errorf("%w: %d of %d already held", ErrMaxRequestsExceeded, count, limit)
	}

	return nil
}

// chargeCancellationFee списывает штраф за позднюю отмену: часовая
// ставка судна слота. Слот без судна оставляет отмену бесплатной.
func (s *RequestService) chargeCancellationFee(ctx context.Context, tx pgx.Tx, request *model.FlightRequest, slot *model.FlightSlot) error {
	if slot == nil || slot.AircraftID == nil {
		s.logger.Warn("Skipping cancellation fee: slot has no aircraft",
			zap.Int64("request_id", request.ID),
		)
		return nil
	}

	aircraft, err := s.aircraftRepo.WithTx(tx).GetByID(ctx, *slot.AircraftID)
	if err != nil {
		return fmt.Errorf("get aircraft: %w", err)
	}
	if aircraft == nil {
		s.logger.Warn("Skipping cancellation fee: aircraft not found",
			zap.Int64("request_id", request.ID),
			zap.Int64("aircraft_id", *slot.AircraftID),
		)
		return nil
	}

	if err := s.studentRepo.WithTx(tx).AdjustBalance(ctx, request.StudentID, -aircraft.HourlyRateCents); err != nil {
		return fmt.Errorf("deduct cancellation fee: %w", err)
	}

	requestID := request.ID
	fee := &model.CancellationFee{
		RequestID:   &requestID,
		AmountCents: aircraft.HourlyRateCents,
	}
	if err := s.feeRepo.WithTx(tx).Create(ctx, fee); err != nil {
		return fmt.Errorf("record cancellation fee: %w", err)
	}

	return nil
}

// requestEvent собирает событие уведомления по заявке
func (s *RequestService) requestEvent(t notify.EventType, request *model.FlightRequest) notify.Event {
	e := notify.NewEvent(t)
	requestID := request.ID
	slotID := request.SlotID
	studentID := request.StudentID
	e.RequestID = &requestID
	e.SlotID = &slotID
	e.StudentID = &studentID
	return e
}
