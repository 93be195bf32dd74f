package repository

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type FeeRepository struct {
	db base.DB
}

func NewFeeRepository(db base.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *FeeRepository) WithTx(tx pgx.Tx) *FeeRepository {
	return &FeeRepository{db: tx}
}

// Create создаёт запись о штрафе
func (r *FeeRepository) Create(ctx context.Context, fee *model.CancellationFee) error {
	query := `
		INSERT INTO cancellation_fees (request_id, amount_cents)
		VALUES ($1, $2)
		RETURNING id, date_added
	`

	err := r.db.QueryRow(ctx, query, fee.RequestID, fee.AmountCents).
		Scan(&fee.ID, &fee.DateAdded)
	if err != nil {
		return fmt.Errorf("create cancellation fee: %w", err)
	}

	return nil
}

// GetByID получает штраф по ID
func (r *FeeRepository) GetByID(ctx context.Context, id int64) (*model.CancellationFee, error) {
	query := `
		SELECT id, request_id, amount_cents, date_added
		FROM cancellation_fees
		WHERE id = $1
	`

	var fee model.CancellationFee
	err := r.db.QueryRow(ctx, query, id).Scan(
		&fee.ID,
		&fee.RequestID,
		&fee.AmountCents,
		&fee.DateAdded,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cancellation fee by id: %w", err)
	}

	return &fee, nil
}

// ListByRequest получает все штрафы по заявке
func (r *FeeRepository) ListByRequest(ctx context.Context, requestID int64) ([]*model.CancellationFee, error) {
	query := `
		SELECT id, request_id, amount_cents, date_added
		FROM cancellation_fees
		WHERE request_id = $1
		ORDER BY date_added
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list fees by request: %w", err)
	}
	defer rows.Close()

	var fees []*model.CancellationFee
	for rows.Next() {
		var fee model.CancellationFee
		err := rows.Scan(&fee.ID, &fee.RequestID, &fee.AmountCents, &fee.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("scan cancellation fee: %w", err)
		}
		fees = append(fees, &fee)
	}

	return fees, nil
}

// Delete удаляет запись о штрафе. Возврат суммы студенту делает
// сервис, в одной транзакции с удалением.
func (r *FeeRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM cancellation_fees WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete cancellation fee: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("cancellation fee not found")
	}

	return nil
}
