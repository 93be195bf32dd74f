package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type PeriodRepository struct {
	db base.DB
}

func NewPeriodRepository(db base.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *PeriodRepository) WithTx(tx pgx.Tx) *PeriodRepository {
	return &PeriodRepository{db: tx}
}

// Create создаёт новый учебный период
func (r *PeriodRepository) Create(ctx context.Context, period *model.FlightPeriod) error {
	query := `
		INSERT INTO flight_periods (aircraft_id, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		period.AircraftID,
		period.StartDate,
		period.EndDate,
		period.IsActive,
	).Scan(&period.ID, &period.CreatedAt, &period.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create flight period: %w", err)
	}

	return nil
}

// GetByID получает период по ID
func (r *PeriodRepository) GetByID(ctx context.Context, id int64) (*model.FlightPeriod, error) {
	query := `
		SELECT id, aircraft_id, start_date, end_date, is_active, created_at, updated_at
		FROM flight_periods
		WHERE id = $1
	`

	var period model.FlightPeriod
	err := r.db.QueryRow(ctx, query, id).Scan(
		&period.ID,
		&period.AircraftID,
		&period.StartDate,
		&period.EndDate,
		&period.IsActive,
		&period.CreatedAt,
		&period.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get flight period by id: %w", err)
	}

	return &period, nil
}

// OverlapExists проверяет, пересекается ли диапазон дат с другим
// периодом того же судна. excludeID исключает сам период при правке.
func (r *PeriodRepository) OverlapExists(ctx context.Context, aircraftID int64, start, end time.Time, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM flight_periods
			WHERE aircraft_id = $1
			  AND id <> $2
			  AND start_date <= $4
			  AND end_date >= $3
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, aircraftID, excludeID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check period overlap: %w", err)
	}

	return exists, nil
}

// SetActive включает или выключает приём заявок на слоты периода
func (r *PeriodRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `
		UPDATE flight_periods
		SET is_active = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set period active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("flight period not found")
	}

	return nil
}

// Delete удаляет период. Слоты и заявки на них удаляются каскадом.
func (r *PeriodRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM flight_periods WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete flight period: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("flight period not found")
	}

	return nil
}

// DeleteEndedBefore удаляет все периоды, закончившиеся строго до today.
// Возвращает количество удалённых периодов.
func (r *PeriodRepository) DeleteEndedBefore(ctx context.Context, today time.Time) (int64, error) {
	query := `DELETE FROM flight_periods WHERE end_date < $1`

	result, err := r.db.Exec(ctx, query, today)
	if err != nil {
		return 0, fmt.Errorf("delete ended periods: %w", err)
	}

	return result.RowsAffected(), nil
}
