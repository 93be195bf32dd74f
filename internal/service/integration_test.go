package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/notify"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/aeroclub/flightsched/internal/repository/base"
)

// Интеграционные тесты гоняют сервисы против живого PostgreSQL.
// Без DB_DSN они пропускаются, поэтому go test работает и без базы.
type testEnv struct {
	pool     *pgxpool.Pool
	recorder *notify.Recorder

	students *repository.StudentRepository
	slots    *repository.SlotRepository
	requests *repository.RequestRepository
	fees     *repository.FeeRepository

	periodSvc  *PeriodService
	requestSvc *RequestService
	feeSvc     *FeeService
	sweepSvc   *SweepService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, goose.SetDialect("postgres"))
	db := stdlib.OpenDBFromPool(pool)
	require.NoError(t, goose.UpContext(ctx, db, "../../migrations"))
	require.NoError(t, db.Close())

	// Каждый тест начинает с чистых таблиц
	_, err = pool.Exec(ctx, `
		TRUNCATE cancellation_fees, flight_requests, flight_slots,
			flight_periods, instructors, students, aircraft
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	logger := zap.NewNop()
	recorder := &notify.Recorder{}

	aircraftRepo := repository.NewAircraftRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	periodRepo := repository.NewPeriodRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	feeRepo := repository.NewFeeRepository(pool)

	requestSvc := NewRequestService(
		pool, aircraftRepo, studentRepo, periodRepo,
		slotRepo, requestRepo, feeRepo, recorder, logger,
	)

	return &testEnv{
		pool:       pool,
		recorder:   recorder,
		students:   studentRepo,
		slots:      slotRepo,
		requests:   requestRepo,
		fees:       feeRepo,
		periodSvc:  NewPeriodService(pool, aircraftRepo, periodRepo, slotRepo, logger),
		requestSvc: requestSvc,
		feeSvc:     NewFeeService(pool, feeRepo, requestRepo, studentRepo, logger),
		sweepSvc:   NewSweepService(requestRepo, slotRepo, periodRepo, requestSvc, logger),
	}
}

func (e *testEnv) seedAircraft(t *testing.T, tailNumber string, hourlyRateCents int64) int64 {
	t.Helper()

	var id int64
	err := e.pool.QueryRow(context.Background(), `
		INSERT INTO aircraft (tail_number, model, hourly_rate_cents)
		VALUES ($1, 'Cessna 172', $2)
		RETURNING id
	`, tailNumber, hourlyRateCents).Scan(&id)
	require.NoError(t, err)

	return id
}

func (e *testEnv) seedStudent(t *testing.T, balanceCents int64) int64 {
	t.Helper()

	var id int64
	err := e.pool.QueryRow(context.Background(), `
		INSERT INTO students (full_name, balance_cents)
		VALUES ('Test Student', $1)
		RETURNING id
	`, balanceCents).Scan(&id)
	require.NoError(t, err)

	return id
}

func TestRequestLifecycleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftID := env.seedAircraft(t, "YV-204E", 15000)
	studentID := env.seedStudent(t, 100000)

	start := dateOnly(time.Now()).AddDate(0, 0, 1)
	period, err := env.periodSvc.Create(ctx, aircraftID, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)

	count, err := env.periodSvc.GenerateSlots(ctx, period.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, 21, count)

	slots, err := env.slots.ListByPeriod(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, slots, 21)

	// Слоты первого дня идут в хронологическом порядке блоков
	assert.Equal(t, model.BlockMorning, slots[0].Block)
	assert.Equal(t, model.BlockAfternoon, slots[1].Block)
	assert.Equal(t, model.BlockEvening, slots[2].Block)

	request, err := env.requestSvc.Create(ctx, studentID, slots[0].ID, "first solo")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, request.Status)

	// Create отдаёт слот уже в записанном состоянии
	require.NotNil(t, request.Slot)
	assert.Equal(t, model.SlotStatusPending, request.Slot.Status)
	require.NotNil(t, request.Slot.StudentID)
	assert.Equal(t, studentID, *request.Slot.StudentID)

	slot, err := env.slots.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusPending, slot.Status)
	require.NotNil(t, slot.StudentID)
	assert.Equal(t, studentID, *slot.StudentID)

	require.NoError(t, env.requestSvc.Approve(ctx, request.ID, nil))

	got, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, got.Status)

	slot, err = env.slots.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusReserved, slot.Status)

	require.NoError(t, env.requestSvc.Cancel(ctx, request.ID, true))

	got, err = env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, got.Status)

	// Слот освобождён для следующих заявок
	slot, err = env.slots.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)
	assert.Nil(t, slot.StudentID)

	// Штраф списан по часовой ставке судна
	student, err := env.students.GetByID(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(85000), student.BalanceCents)

	fees, err := env.fees.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, int64(15000), fees[0].AmountCents)

	var types []notify.EventType
	for _, ev := range env.recorder.Events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []notify.EventType{
		notify.RequestCreated,
		notify.RequestApproved,
		notify.RequestCancelled,
	}, types)
}

func TestApproveReservedSlotFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftID := env.seedAircraft(t, "YV-117B", 12000)
	studentA := env.seedStudent(t, 100000)
	studentB := env.seedStudent(t, 100000)

	start := dateOnly(time.Now()).AddDate(0, 0, 1)
	period, err := env.periodSvc.Create(ctx, aircraftID, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	_, err = env.periodSvc.GenerateSlots(ctx, period.ID, time.Now())
	require.NoError(t, err)

	slots, err := env.slots.ListByPeriod(ctx, period.ID)
	require.NoError(t, err)

	requestA, err := env.requestSvc.Create(ctx, studentA, slots[0].ID, "")
	require.NoError(t, err)

	// Вторая заявка на тот же слот записывается напрямую: две заявки,
	// успевшие до одобрения, выглядят в базе именно так.
	requestB := &model.FlightRequest{
		StudentID: studentB,
		SlotID:    slots[0].ID,
		Status:    model.RequestStatusPending,
	}
	require.NoError(t, env.requests.Create(ctx, requestB))

	// Слот числится за студентом A, заявку B одобрить нельзя
	err = env.requestSvc.Approve(ctx, requestB.ID, nil)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	require.NoError(t, env.requestSvc.Approve(ctx, requestA.ID, nil))

	// После резервирования слота заявка B всё так же непроходная
	err = env.requestSvc.Approve(ctx, requestB.ID, nil)
	assert.ErrorIs(t, err, ErrSlotNotAvailable)

	gotB, err := env.requests.GetByID(ctx, requestB.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, gotB.Status)

	slot, err := env.slots.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusReserved, slot.Status)
	require.NotNil(t, slot.StudentID)
	assert.Equal(t, studentA, *slot.StudentID)
}

func TestSweepReclaimsOverdueAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftID := env.seedAircraft(t, "YV-330C", 15000)
	studentID := env.seedStudent(t, 100000)

	// Период закончился вчера; слоты генерируем задним числом,
	// чтобы они создались доступными
	start := dateOnly(time.Now()).AddDate(0, 0, -7)
	period, err := env.periodSvc.Create(ctx, aircraftID, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	_, err = env.periodSvc.GenerateSlots(ctx, period.ID, start)
	require.NoError(t, err)

	slots, err := env.slots.ListByPeriod(ctx, period.ID)
	require.NoError(t, err)

	request, err := env.requestSvc.Create(ctx, studentID, slots[0].ID, "")
	require.NoError(t, err)

	require.NoError(t, env.sweepSvc.Run(ctx, time.Now()))

	got, err := env.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, got.Status)

	// Просроченный слот выведен из оборота, студент отвязан
	slot, err := env.slots.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusUnavailable, slot.Status)
	assert.Nil(t, slot.StudentID)

	// Отмена по сроку — без штрафа
	student, err := env.students.GetByID(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), student.BalanceCents)

	// Повторный прогон ничего не находит
	cancelled, err := env.sweepSvc.ReclaimRequests(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, cancelled)

	retired, err := env.sweepSvc.ReclaimSlots(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, retired)
}

func TestWaiveReimbursesStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftID := env.seedAircraft(t, "YV-555A", 5000)
	studentID := env.seedStudent(t, 100000)

	start := dateOnly(time.Now()).AddDate(0, 0, 1)
	period, err := env.periodSvc.Create(ctx, aircraftID, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	_, err = env.periodSvc.GenerateSlots(ctx, period.ID, time.Now())
	require.NoError(t, err)

	slots, err := env.slots.ListByPeriod(ctx, period.ID)
	require.NoError(t, err)

	request, err := env.requestSvc.Create(ctx, studentID, slots[0].ID, "")
	require.NoError(t, err)
	require.NoError(t, env.requestSvc.Cancel(ctx, request.ID, true))

	student, err := env.students.GetByID(ctx, studentID)
	require.NoError(t, err)
	require.Equal(t, int64(95000), student.BalanceCents)

	fees, err := env.fees.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, fees, 1)

	require.NoError(t, env.feeSvc.Waive(ctx, fees[0].ID))

	// Сумма вернулась, запись о штрафе удалена
	student, err = env.students.GetByID(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), student.BalanceCents)

	gone, err := env.fees.GetByID(ctx, fees[0].ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestWaiveOrphanedFeeSkipsRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	studentID := env.seedStudent(t, 100000)

	// Штраф, у которого заявка уже удалена: возвращать некому
	fee := &model.CancellationFee{AmountCents: 5000}
	require.NoError(t, env.fees.Create(ctx, fee))

	require.NoError(t, env.feeSvc.Waive(ctx, fee.ID))

	student, err := env.students.GetByID(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), student.BalanceCents)

	gone, err := env.fees.GetByID(ctx, fee.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRequestCapEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftID := env.seedAircraft(t, "YV-808D", 12000)
	studentID := env.seedStudent(t, 100000) // $1000 — лимит две заявки

	start := dateOnly(time.Now()).AddDate(0, 0, 1)
	period, err := env.periodSvc.Create(ctx, aircraftID, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	_, err = env.periodSvc.GenerateSlots(ctx, period.ID, time.Now())
	require.NoError(t, err)

	slots, err := env.slots.ListByPeriod(ctx, period.ID)
	require.NoError(t, err)

	_, err = env.requestSvc.Create(ctx, studentID, slots[0].ID, "")
	require.NoError(t, err)
	_, err = env.requestSvc.Create(ctx, studentID, slots[1].ID, "")
	require.NoError(t, err)

	_, err = env.requestSvc.Create(ctx, studentID, slots[2].ID, "")
	assert.ErrorIs(t, err, ErrMaxRequestsExceeded)

	// Баланс ниже минимума, но кредитная линия даёт одну заявку
	var creditID int64
	err = env.pool.QueryRow(ctx, `
		INSERT INTO students (full_name, balance_cents, has_credit)
		VALUES ('Credit Student', 40000, TRUE)
		RETURNING id
	`).Scan(&creditID)
	require.NoError(t, err)

	_, err = env.requestSvc.Create(ctx, creditID, slots[2].ID, "")
	require.NoError(t, err)
	_, err = env.requestSvc.Create(ctx, creditID, slots[3].ID, "")
	assert.ErrorIs(t, err, ErrMaxRequestsExceeded)
}

func TestSlotUniquePerAircraftDateBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftA := env.seedAircraft(t, "YV-901F", 12000)
	aircraftB := env.seedAircraft(t, "YV-902G", 12000)

	start := dateOnly(time.Now())
	periodA, err := env.periodSvc.Create(ctx, aircraftA, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	periodB, err := env.periodSvc.Create(ctx, aircraftB, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)

	makeSlot := func(periodID, aircraftID int64) *model.FlightSlot {
		id := aircraftID
		return &model.FlightSlot{
			PeriodID:   periodID,
			Date:       start,
			Block:      model.BlockMorning,
			AircraftID: &id,
			Status:     model.SlotStatusAvailable,
		}
	}

	require.NoError(t, env.slots.Create(ctx, makeSlot(periodA.ID, aircraftA)))

	// Дубль той же ячейки упирается в уникальный индекс
	err = env.slots.Create(ctx, makeSlot(periodA.ID, aircraftA))
	require.Error(t, err)
	assert.True(t, base.IsUniqueViolation(err))

	// Та же дата и блок на другом судне — отдельная ячейка
	require.NoError(t, env.slots.Create(ctx, makeSlot(periodB.ID, aircraftB)))
}

func TestPeriodOverlapRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aircraftA := env.seedAircraft(t, "YV-710H", 12000)
	aircraftB := env.seedAircraft(t, "YV-711J", 12000)

	start := dateOnly(time.Now())
	_, err := env.periodSvc.Create(ctx, aircraftA, start, start.AddDate(0, 0, 6))
	require.NoError(t, err)

	// Общий последний день — пересечение
	_, err = env.periodSvc.Create(ctx, aircraftA, start.AddDate(0, 0, 6), start.AddDate(0, 0, 12))
	assert.ErrorIs(t, err, ErrPeriodOverlap)

	// Встык, без общих дней — допустимо
	_, err = env.periodSvc.Create(ctx, aircraftA, start.AddDate(0, 0, 7), start.AddDate(0, 0, 13))
	assert.NoError(t, err)

	// Периоды разных судов не конкурируют
	_, err = env.periodSvc.Create(ctx, aircraftB, start, start.AddDate(0, 0, 6))
	assert.NoError(t, err)
}
