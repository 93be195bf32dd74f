package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SlotRepository struct {
	db base.DB
}

func NewSlotRepository(db base.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *SlotRepository) WithTx(tx pgx.Tx) *SlotRepository {
	return &SlotRepository{db: tx}
}

const slotColumns = `id, period_id, flight_date, block, aircraft_id, instructor_id, student_id, status, created_at, updated_at`

func scanSlot(row pgx.Row) (*model.FlightSlot, error) {
	var slot model.FlightSlot
	err := row.Scan(
		&slot.ID,
		&slot.PeriodID,
		&slot.Date,
		&slot.Block,
		&slot.AircraftID,
		&slot.InstructorID,
		&slot.StudentID,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.FlightSlot) error {
	query := `
		INSERT INTO flight_slots (period_id, flight_date, block, aircraft_id, instructor_id, student_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.PeriodID,
		slot.Date,
		slot.Block,
		slot.AircraftID,
		slot.InstructorID,
		slot.StudentID,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("slot already exists for %s %s: %w", slot.Date.Format("2006-01-02"), slot.Block, err)
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.FlightSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM flight_slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот по ID с блокировкой строки.
// Вызывается только внутри транзакции: блокировка держится до commit
// и закрывает гонку двух одновременных одобрений одного слота.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.FlightSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM flight_slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot for update: %w", err)
	}

	return slot, nil
}

// ListByPeriod получает все слоты периода в хронологическом порядке
func (r *SlotRepository) ListByPeriod(ctx context.Context, periodID int64) ([]*model.FlightSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM flight_slots
		WHERE period_id = $1
		ORDER BY flight_date,
			CASE block WHEN 'AM' THEN 1 WHEN 'PM' THEN 2 ELSE 3 END
	`

	rows, err := r.db.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("list slots by period: %w", err)
	}
	defer rows.Close()

	var slots []*model.FlightSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

// UpdateStatus обновляет статус слота
func (r *SlotRepository) UpdateStatus(ctx context.Context, id int64, status model.SlotStatus) error {
	query := `
		UPDATE flight_slots
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// SetStudentAndStatus меняет статус слота и привязку к студенту одним
// запросом: они всегда меняются вместе при переходах заявки.
func (r *SlotRepository) SetStudentAndStatus(ctx context.Context, id int64, studentID *int64, status model.SlotStatus) error {
	query := `
		UPDATE flight_slots
		SET student_id = $1, status = $2, updated_at = now()
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, studentID, status, id)
	if err != nil {
		return fmt.Errorf("set slot student and status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// SetInstructor назначает или снимает инструктора (nil — снять)
func (r *SlotRepository) SetInstructor(ctx context.Context, id int64, instructorID *int64) error {
	query := `
		UPDATE flight_slots
		SET instructor_id = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, instructorID, id)
	if err != nil {
		return fmt.Errorf("set slot instructor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// MarkOverdueUnavailable переводит все прошедшие слоты в unavailable.
// Запрос идемпотентен: повторный запуск в тот же день ничего не меняет.
func (r *SlotRepository) MarkOverdueUnavailable(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE flight_slots
		SET status = $1, updated_at = now()
		WHERE flight_date < $2
		  AND status IN ($3, $4, $5)
	`

	result, err := r.db.Exec(ctx, query,
		model.SlotStatusUnavailable,
		today,
		model.SlotStatusAvailable,
		model.SlotStatusPending,
		model.SlotStatusReserved,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue slots unavailable: %w", err)
	}

	return result.RowsAffected(), nil
}
