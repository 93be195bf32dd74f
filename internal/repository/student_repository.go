package repository

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type StudentRepository struct {
	db base.DB
}

func NewStudentRepository(db base.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *StudentRepository) WithTx(tx pgx.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

// GetByID получает профиль студента по ID.
// Баланс всегда читается заново, движок его не кэширует.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	query := `
		SELECT id, full_name, balance_cents, has_credit, has_temporary_permission, created_at
		FROM students
		WHERE id = $1
	`

	var st model.Student
	err := r.db.QueryRow(ctx, query, id).Scan(
		&st.ID,
		&st.FullName,
		&st.BalanceCents,
		&st.HasCredit,
		&st.HasTemporaryPermission,
		&st.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}

	return &st, nil
}

// AdjustBalance изменяет баланс студента на deltaCents
// (штраф — отрицательное значение, возврат — положительное).
func (r *StudentRepository) AdjustBalance(ctx context.Context, id int64, deltaCents int64) error {
	query := `
		UPDATE students
		SET balance_cents = balance_cents + $1
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust student balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}

// ClearTemporaryPermission гасит одноразовый флаг временного допуска
func (r *StudentRepository) ClearTemporaryPermission(ctx context.Context, id int64) error {
	query := `
		UPDATE students
		SET has_temporary_permission = FALSE
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear temporary permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("student not found")
	}

	return nil
}
