package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type RequestRepository struct {
	db base.DB
}

func NewRequestRepository(db base.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *RequestRepository) WithTx(tx pgx.Tx) *RequestRepository {
	return &RequestRepository{db: tx}
}

// Create создаёт новую заявку
func (r *RequestRepository) Create(ctx context.Context, request *model.FlightRequest) error {
	query := `
		INSERT INTO flight_requests (student_id, slot_id, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, requested_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		request.StudentID,
		request.SlotID,
		request.Status,
		request.Notes,
	).Scan(&request.ID, &request.RequestedAt, &request.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create flight request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*model.FlightRequest, error) {
	query := `
		SELECT id, student_id, slot_id, status, notes, requested_at, updated_at
		FROM flight_requests
		WHERE id = $1
	`

	var request model.FlightRequest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.StudentID,
		&request.SlotID,
		&request.Status,
		&request.Notes,
		&request.RequestedAt,
		&request.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get flight request by id: %w", err)
	}

	return &request, nil
}

// CountActiveByStudent считает pending и approved заявки студента.
// excludeID исключает саму проверяемую заявку, чтобы правка
// существующей заявки не считала себя.
func (r *RequestRepository) CountActiveByStudent(ctx context.Context, studentID int64, excludeID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM flight_requests
		WHERE student_id = $1
		  AND id <> $2
		  AND status IN ($3, $4)
	`

	var count int
	err := r.db.QueryRow(ctx, query, studentID, excludeID,
		model.RequestStatusPending, model.RequestStatusApproved).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active requests: %w", err)
	}

	return count, nil
}

// UpdateStatus обновляет статус заявки
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	query := `
		UPDATE flight_requests
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("flight request not found")
	}

	return nil
}

// ListOverduePending получает pending заявки, чей слот датирован
// строго раньше today
func (r *RequestRepository) ListOverduePending(ctx context.Context, today time.Time) ([]*model.FlightRequest, error) {
	query := `
		SELECT r.id, r.student_id, r.slot_id, r.status, r.notes, r.requested_at, r.updated_at
		FROM flight_requests r
		JOIN flight_slots s ON s.id = r.slot_id
		WHERE r.status = $1
		  AND s.flight_date < $2
		ORDER BY r.id
	`

	rows, err := r.db.Query(ctx, query, model.RequestStatusPending, today)
	if err != nil {
		return nil, fmt.Errorf("list overdue pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.FlightRequest
	for rows.Next() {
		var request model.FlightRequest
		err := rows.Scan(
			&request.ID,
			&request.StudentID,
			&request.SlotID,
			&request.Status,
			&request.Notes,
			&request.RequestedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flight request: %w", err)
		}
		requests = append(requests, &request)
	}

	return requests, nil
}

// Delete удаляет заявку. Освобождение слота делает сервис,
// в одной транзакции с удалением.
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM flight_requests WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete flight request: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("flight request not found")
	}

	return nil
}
