package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// Movement carries the provenance written on a ledger transaction.
type Movement struct {
	RequestID *int64
	ActorID   *int64
	Remarks   *string
}

// BalanceLedger persists balance mutations together with their transaction row.
// Callers hold the balance row lock and run inside a transaction.
type BalanceLedger struct {
	leave.LeaveBalanceRepository
	leave.LeaveTransactionRepository
}

func NewBalanceLedger(balanceRepository leave.LeaveBalanceRepository, transactionRepository leave.LeaveTransactionRepository) *BalanceLedger {
	return &BalanceLedger{
		LeaveBalanceRepository:     balanceRepository,
		LeaveTransactionRepository: transactionRepository,
	}
}

// Debit records approved leave: a "use" transaction with negative days.
func (l *BalanceLedger) Debit(ctx context.Context, b leave.LeaveBalance, days decimal.Decimal, at time.Time, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	next, err := b.Debit(days, at)
	if err != nil {
		return b, leave.LeaveTransaction{}, err
	}
	return l.post(ctx, next, leave.TransactionTypeUse, days.Neg(), m)
}

// Credit reverses a debit with an "earn" transaction.
func (l *BalanceLedger) Credit(ctx context.Context, b leave.LeaveBalance, days decimal.Decimal, at time.Time, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	next, err := b.Credit(days, at)
	if err != nil {
		return b, leave.LeaveTransaction{}, err
	}
	return l.post(ctx, next, leave.TransactionTypeEarn, days, m)
}

func (l *BalanceLedger) Adjust(ctx context.Context, b leave.LeaveBalance, days decimal.Decimal, at time.Time, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	next, err := b.Adjust(days, at)
	if err != nil {
		return b, leave.LeaveTransaction{}, err
	}
	return l.post(ctx, next, leave.TransactionTypeAdjustment, days, m)
}

func (l *BalanceLedger) Encash(ctx context.Context, b leave.LeaveBalance, days, limit decimal.Decimal, at time.Time, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	next, err := b.Encash(days, limit, at)
	if err != nil {
		return b, leave.LeaveTransaction{}, err
	}
	return l.post(ctx, next, leave.TransactionTypeEncashment, days.Neg(), m)
}

func (l *BalanceLedger) CarryIn(ctx context.Context, b leave.LeaveBalance, days decimal.Decimal, at time.Time, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	next, err := b.CarryIn(days, at)
	if err != nil {
		return b, leave.LeaveTransaction{}, err
	}
	return l.post(ctx, next, leave.TransactionTypeCarry, days, m)
}

func (l *BalanceLedger) post(ctx context.Context, next leave.LeaveBalance, kind leave.TransactionType, days decimal.Decimal, m Movement) (leave.LeaveBalance, leave.LeaveTransaction, error) {
	saved, err := l.LeaveBalanceRepository.Update(ctx, next)
	if err != nil {
		return next, leave.LeaveTransaction{}, fmt.Errorf("failed to save leave balance: %w", err)
	}

	txn, err := l.LeaveTransactionRepository.Create(ctx, leave.LeaveTransaction{
		BalanceID: saved.ID,
		RequestID: m.RequestID,
		Type:      kind,
		Days:      days,
		Remarks:   m.Remarks,
		CreatedBy: m.ActorID,
	})
	if err != nil {
		return saved, leave.LeaveTransaction{}, fmt.Errorf("failed to append leave transaction: %w", err)
	}

	return saved, txn, nil
}
