package repository

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type AircraftRepository struct {
	db base.DB
}

func NewAircraftRepository(db base.DB) *AircraftRepository {
	return &AircraftRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *AircraftRepository) WithTx(tx pgx.Tx) *AircraftRepository {
	return &AircraftRepository{db: tx}
}

// GetByID получает судно по ID
func (r *AircraftRepository) GetByID(ctx context.Context, id int64) (*model.Aircraft, error) {
	query := `
		SELECT id, tail_number, model, is_active, is_available, hourly_rate_cents, created_at
		FROM aircraft
		WHERE id = $1
	`

	var a model.Aircraft
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.TailNumber,
		&a.Model,
		&a.IsActive,
		&a.IsAvailable,
		&a.HourlyRateCents,
		&a.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get aircraft by id: %w", err)
	}

	return &a, nil
}

// GetByTailNumber получает судно по бортовому номеру
func (r *AircraftRepository) GetByTailNumber(ctx context.Context, tailNumber string) (*model.Aircraft, error) {
	query := `
		SELECT id, tail_number, model, is_active, is_available, hourly_rate_cents, created_at
		FROM aircraft
		WHERE tail_number = $1
	`

	var a model.Aircraft
	err := r.db.QueryRow(ctx, query, tailNumber).Scan(
		&a.ID,
		&a.TailNumber,
		&a.Model,
		&a.IsActive,
		&a.IsAvailable,
		&a.HourlyRateCents,
		&a.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get aircraft by tail number: %w", err)
	}

	return &a, nil
}

// ListAvailable получает все активные и доступные суда
func (r *AircraftRepository) ListAvailable(ctx context.Context) ([]*model.Aircraft, error) {
	query := `
		SELECT id, tail_number, model, is_active, is_available, hourly_rate_cents, created_at
		FROM aircraft
		WHERE is_active AND is_available
		ORDER BY tail_number
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available aircraft: %w", err)
	}
	defer rows.Close()

	var aircraft []*model.Aircraft
	for rows.Next() {
		var a model.Aircraft
		err := rows.Scan(
			&a.ID,
			&a.TailNumber,
			&a.Model,
			&a.IsActive,
			&a.IsAvailable,
			&a.HourlyRateCents,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aircraft: %w", err)
		}
		aircraft = append(aircraft, &a)
	}

	return aircraft, nil
}

// Delete удаляет судно. Периоды и слоты удаляются каскадом на уровне БД.
func (r *AircraftRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM aircraft WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete aircraft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("aircraft not found")
	}

	return nil
}
