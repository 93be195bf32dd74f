package repository

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository/base"
)

type InstructorRepository struct {
	db base.DB
}

func NewInstructorRepository(db base.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// GetByID получает инструктора по ID
func (r *InstructorRepository) GetByID(ctx context.Context, id int64) (*model.Instructor, error) {
	query := `
		SELECT id, full_name, created_at
		FROM instructors
		WHERE id = $1
	`

	var instructor model.Instructor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&instructor.ID,
		&instructor.FullName,
		&instructor.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instructor by id: %w", err)
	}

	return &instructor, nil
}
