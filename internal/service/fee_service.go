package service

import (
	"context"
	"fmt"

	"github.com/aeroclub/flightsched/internal/model"
	"github.com/aeroclub/flightsched/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type FeeService struct {
	pool        *pgxpool.Pool
	feeRepo     *repository.FeeRepository
	requestRepo *repository.RequestRepository
	studentRepo *repository.StudentRepository
	logger      *zap.Logger
}

func NewFeeService(
	pool *pgxpool.Pool,
	feeRepo *repository.FeeRepository,
	requestRepo *repository.RequestRepository,
	studentRepo *repository.StudentRepository,
	logger *zap.Logger,
) *FeeService {
	return &FeeService{
		pool:        pool,
		feeRepo:     feeRepo,
		requestRepo: requestRepo,
		studentRepo: studentRepo,
		logger:      logger,
	}
}

// GetByID получает штраф по ID
func (s *FeeService) GetByID(ctx context.Context, feeID int64) (*model.CancellationFee, error) {
	return s.feeRepo.GetByID(ctx, feeID)
}

// ListByRequest получает все штрафы по заявке
func (s *FeeService) ListByRequest(ctx context.Context, requestID int64) ([]*model.CancellationFee, error) {
	return s.feeRepo.ListByRequest(ctx, requestID)
}

// Waive снимает штраф: сумма записи возвращается на баланс студента,
// затем запись удаляется — всё в одной транзакции. Если заявка уже
// удалена (request_id = NULL), возврат пропускается: исходного
// студента по оборванной ссылке не восстановить.
func (s *FeeService) Waive(ctx context.Context, feeID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	fee, err := s.feeRepo.WithTx(tx).GetByID(ctx, feeID)
	if err != nil {
		return fmt.Errorf("get fee: %w", err)
	}
	if fee == nil {
		return ErrFeeNotFound
	}

	reimbursed := false
	if fee.RequestID != nil {
		request, err := s.requestRepo.WithTx(tx).GetByID(ctx, *fee.RequestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if request != nil {
			if err := s.studentRepo.WithTx(tx).AdjustBalance(ctx, request.StudentID, fee.AmountCents); err != nil {
				return fmt.Errorf("reimburse fee: %w", err)
			}
			reimbursed = true
		}
	}

	if err := s.feeRepo.WithTx(tx).Delete(ctx, feeID); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Cancellation fee waived",
		zap.Int64("fee_id", feeID),
		zap.Int64("amount_cents", fee.AmountCents),
		zap.Bool("reimbursed", reimbursed),
	)

	return nil
}
