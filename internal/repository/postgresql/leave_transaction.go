package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
)

type leaveTransactionRepositoryImpl struct {
	db *database.DB
}

// NewLeaveTransactionRepository returns an append-only store: there is no update or delete.
func NewLeaveTransactionRepository(db *database.DB) leave.LeaveTransactionRepository {
	return &leaveTransactionRepositoryImpl{db: db}
}

// Create implements leave.LeaveTransactionRepository.
func (r *leaveTransactionRepositoryImpl) Create(ctx context.Context, transaction leave.LeaveTransaction) (leave.LeaveTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_transactions (
			balance_id, request_id, transaction_type, days, remarks, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		transaction.BalanceID, transaction.RequestID, transaction.Type, transaction.Days,
		transaction.Remarks, transaction.CreatedBy,
	).Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		return leave.LeaveTransaction{}, fmt.Errorf("failed to create leave transaction: %w", err)
	}

	return transaction, nil
}

// ListByBalanceID implements leave.LeaveTransactionRepository.
func (r *leaveTransactionRepositoryImpl) ListByBalanceID(ctx context.Context, balanceID int64) ([]leave.LeaveTransaction, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, balance_id, request_id, transaction_type, days, remarks, created_by, created_at
		FROM leave_transactions
		WHERE balance_id = $1
		ORDER BY created_at, id
	`, balanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave transactions: %w", err)
	}
	defer rows.Close()

	var transactions []leave.LeaveTransaction
	for rows.Next() {
		var t leave.LeaveTransaction
		if err := rows.Scan(
			&t.ID, &t.BalanceID, &t.RequestID, &t.Type, &t.Days, &t.Remarks, &t.CreatedBy, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
