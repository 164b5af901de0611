package usecases

import (
	"context"
	"fmt"

	"techhive/internal/domain/payment"
	"techhive/internal/shared/logger"
)

type ListTransactionsQuery struct {
	UserID uint
	Limit  int
	Offset int
}

type ListTransactionsResult struct {
	Transactions []*payment.PaymentTransaction
	Total        int64
}

// ListTransactionsUseCase returns the user's payment history, newest first.
type ListTransactionsUseCase struct {
	transactionRepo payment.TransactionRepository
	logger          logger.Interface
}

func NewListTransactionsUseCase(transactionRepo payment.TransactionRepository, logger logger.Interface) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{transactionRepo: transactionRepo, logger: logger}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, q ListTransactionsQuery) (*ListTransactionsResult, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	txns, total, err := uc.transactionRepo.ListByUserID(ctx, q.UserID, limit, q.Offset)
	if err != nil {
		uc.logger.Errorw("failed to list transactions", "error", err, "user_id", q.UserID)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ListTransactionsResult{Transactions: txns, Total: total}, nil
}
