package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CreateBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateBalance(ctx context.Context, req leave.CreateBalanceRequest, actorID int64) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}
	balance, err := leave.NewLeaveBalance(req.ToParams())
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	var created leave.LeaveBalance
	err = l.transactor.WithinTransaction(ctx, actionCreateBalance, func(ctx context.Context) error {
		policy, err := l.LeavePolicyRepository.GetByID(ctx, balance.PolicyID)
		if err != nil {
			return err
		}
		if policy.LeaveTypeID != balance.LeaveTypeID {
			return validator.ValidationErrors{{Field: "policy_id", Message: "policy does not belong to leave_type_id"}}
		}

		created, err = l.LeaveBalanceRepository.Create(ctx, balance)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionCreateBalance, activitylog.EntityLeaveBalance, created.ID, map[string]interface{}{
			"employee_id":   created.EmployeeID,
			"leave_type_id": created.LeaveTypeID,
			"year":          created.Year,
			"remaining":     created.Remaining,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return created, nil
}

// UpdateBalance implements leave.LeaveService. The supplied fields are written
// as-is and the result must still satisfy the ledger invariant.
func (l *LeaveServiceImpl) UpdateBalance(ctx context.Context, id int64, req leave.UpdateBalanceRequest, actorID int64) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}

	var updated leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, actionUpdateBalance, func(ctx context.Context) error {
		current, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		next, err := current.Apply(req.ToDelta())
		if err != nil {
			return err
		}
		updated, err = l.LeaveBalanceRepository.Update(ctx, next)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionUpdateBalance, activitylog.EntityLeaveBalance, id, map[string]interface{}{
			"before": current,
			"after":  updated,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return updated, nil
}

// GetBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetBalance(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	return l.LeaveBalanceRepository.GetByID(ctx, id)
}

// GetBalanceDetail implements leave.LeaveService.
func (l *LeaveServiceImpl) GetBalanceDetail(ctx context.Context, id int64) (leave.BalanceDetail, error) {
	balance, err := l.LeaveBalanceRepository.GetByID(ctx, id)
	if err != nil {
		return leave.BalanceDetail{}, err
	}

	var (
		policy       leave.LeavePolicy
		transactions []leave.LeaveTransaction
		requests     []leave.LeaveRequest
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		policy, err = l.LeavePolicyRepository.GetByID(gCtx, balance.PolicyID)
		return err
	})

	g.Go(func() error {
		var err error
		transactions, err = l.LeaveTransactionRepository.ListByBalanceID(gCtx, id)
		return err
	})

	g.Go(func() error {
		var err error
		requests, err = l.LeaveRequestRepository.ListByBalanceID(gCtx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return leave.BalanceDetail{}, err
	}

	if transactions == nil {
		transactions = []leave.LeaveTransaction{}
	}
	if requests == nil {
		requests = []leave.LeaveRequest{}
	}

	return leave.BalanceDetail{
		Balance:      balance,
		Policy:       &policy,
		Transactions: transactions,
		Requests:     requests,
	}, nil
}

// ListBalances implements leave.LeaveService.
func (l *LeaveServiceImpl) ListBalances(ctx context.Context, filter leave.BalanceFilter) (leave.ListResult[leave.LeaveBalance], error) {
	if err := filter.Validate(); err != nil {
		return leave.ListResult[leave.LeaveBalance]{}, err
	}
	balances, total, err := l.LeaveBalanceRepository.List(ctx, filter)
	if err != nil {
		return leave.ListResult[leave.LeaveBalance]{}, err
	}
	return leave.NewListResult(balances, total, filter.Page, filter.Limit), nil
}

// ListTransactions implements leave.LeaveService.
func (l *LeaveServiceImpl) ListTransactions(ctx context.Context, balanceID int64) ([]leave.LeaveTransaction, error) {
	if _, err := l.LeaveBalanceRepository.GetByID(ctx, balanceID); err != nil {
		return nil, err
	}
	transactions, err := l.LeaveTransactionRepository.ListByBalanceID(ctx, balanceID)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []leave.LeaveTransaction{}
	}
	return transactions, nil
}

// AdjustBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) AdjustBalance(ctx context.Context, id int64, req leave.AdjustBalanceRequest, actorID int64) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}

	var adjusted leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, actionAdjustBalance, func(ctx context.Context) error {
		balance, err := l.lockUsableBalance(ctx, id)
		if err != nil {
			return err
		}
		var txn leave.LeaveTransaction
		adjusted, txn, err = l.ledger.Adjust(ctx, balance, req.Days, l.now(), Movement{ActorID: &actorID, Remarks: req.Remarks})
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionAdjustBalance, activitylog.EntityLeaveBalance, id, map[string]interface{}{
			"transaction_id": txn.ID,
			"days":           req.Days,
			"remaining":      adjusted.Remaining,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return adjusted, nil
}

// EncashBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) EncashBalance(ctx context.Context, id int64, req leave.EncashBalanceRequest, actorID int64) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}

	var encashed leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, actionEncashBalance, func(ctx context.Context) error {
		balance, err := l.lockUsableBalance(ctx, id)
		if err != nil {
			return err
		}
		policy, err := l.LeavePolicyRepository.GetByID(ctx, balance.PolicyID)
		if err != nil {
			return err
		}

		var txn leave.LeaveTransaction
		encashed, txn, err = l.ledger.Encash(ctx, balance, req.Days, policy.EncashLimit, l.now(), Movement{ActorID: &actorID, Remarks: req.Remarks})
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionEncashBalance, activitylog.EntityLeaveBalance, id, map[string]interface{}{
			"transaction_id": txn.ID,
			"days":           req.Days,
			"encash_limit":   policy.EncashLimit,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return encashed, nil
}

// CarryOverBalance implements leave.LeaveService. Up to the policy's carry limit
// of the source's remaining days is credited to the target year balance, which is
// created from the policy entitlement when missing. The source balance is closed.
func (l *LeaveServiceImpl) CarryOverBalance(ctx context.Context, id int64, req leave.CarryOverRequest, actorID int64) (leave.LeaveBalance, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveBalance{}, err
	}
	targetYear := req.Year()

	var target leave.LeaveBalance
	var carried decimal.Decimal
	err := l.transactor.WithinTransaction(ctx, actionCarryOverBalance, func(ctx context.Context) error {
		source, err := l.lockUsableBalance(ctx, id)
		if err != nil {
			return err
		}
		policy, err := l.LeavePolicyRepository.GetByID(ctx, source.PolicyID)
		if err != nil {
			return err
		}

		sourceYear, ok := validator.IsValidYear(source.Year)
		if !ok || targetYear <= sourceYear || targetYear > sourceYear+policy.CarriedOverYears {
			return leave.ErrCarryOverNotAllowed
		}

		carried = decimal.Min(source.Remaining, policy.CarryLimit)

		existing, err := l.LeaveBalanceRepository.FindByEmployeeTypeYearForUpdate(ctx, source.EmployeeID, source.LeaveTypeID, strconv.Itoa(targetYear))
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.IsArchived() || !existing.Status.IsUsable() {
				return fmt.Errorf("target balance %d: %w", existing.ID, leave.ErrBalanceNotUsable)
			}
			target = *existing
		} else {
			fresh, err := leave.NewLeaveBalance(leave.BalanceParams{
				EmployeeID:  source.EmployeeID,
				LeaveTypeID: source.LeaveTypeID,
				PolicyID:    source.PolicyID,
				Year:        strconv.Itoa(targetYear),
				Earned:      policy.AnnualEntitlement,
			})
			if err != nil {
				return err
			}
			target, err = l.LeaveBalanceRepository.Create(ctx, fresh)
			if err != nil {
				return err
			}
		}

		var txnID int64
		if carried.IsPositive() {
			var txn leave.LeaveTransaction
			target, txn, err = l.ledger.CarryIn(ctx, target, carried, l.now(), Movement{ActorID: &actorID, Remarks: req.Remarks})
			if err != nil {
				return err
			}
			txnID = txn.ID
		}

		closed, err := source.Transition(leave.BalanceEventClose)
		if err != nil {
			return err
		}
		if err := l.LeaveBalanceRepository.UpdateStatus(ctx, source.ID, source.Status, closed.Status); err != nil {
			return err
		}

		return l.record(ctx, &actorID, actionCarryOverBalance, activitylog.EntityLeaveBalance, target.ID, map[string]interface{}{
			"source_balance_id": source.ID,
			"target_year":       target.Year,
			"carried":           carried,
			"transaction_id":    txnID,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	slog.Info("Leave balance carried over",
		"source_balance_id", id,
		"target_balance_id", target.ID,
		"carried", carried.StringFixed(leave.DayPrecision),
	)
	return target, nil
}

// TransitionBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) TransitionBalance(ctx context.Context, id int64, event leave.BalanceEvent, actorID int64) (leave.LeaveBalance, error) {
	var result leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, actionTransitionBalance, func(ctx context.Context) error {
		balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		next, err := balance.Transition(event)
		if err != nil {
			return err
		}
		if err := l.LeaveBalanceRepository.UpdateStatus(ctx, id, balance.Status, next.Status); err != nil {
			return err
		}
		result = next

		return l.record(ctx, &actorID, actionTransitionBalance, activitylog.EntityLeaveBalance, id, map[string]interface{}{
			"event": event,
			"from":  balance.Status,
			"to":    next.Status,
		})
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return result, nil
}

// ArchiveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) ArchiveBalance(ctx context.Context, id int64, actorID int64) error {
	return l.transactor.WithinTransaction(ctx, actionArchiveBalance, func(ctx context.Context) error {
		balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		archived, err := balance.Archive(actorID, l.now())
		if err != nil {
			return err
		}
		if err := l.LeaveBalanceRepository.SetArchived(ctx, id, archived.ArchivedAt, archived.ArchivedBy); err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionArchiveBalance, activitylog.EntityLeaveBalance, id, nil)
	})
}

// RestoreBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) RestoreBalance(ctx context.Context, id int64, actorID int64) error {
	return l.transactor.WithinTransaction(ctx, actionRestoreBalance, func(ctx context.Context) error {
		balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := balance.Restore(); err != nil {
			return err
		}
		if err := l.LeaveBalanceRepository.SetArchived(ctx, id, nil, nil); err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionRestoreBalance, activitylog.EntityLeaveBalance, id, nil)
	})
}

// lockUsableBalance locks a balance that may still take ledger movements.
func (l *LeaveServiceImpl) lockUsableBalance(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, id)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	if balance.IsArchived() {
		return leave.LeaveBalance{}, leave.ErrAlreadyArchived
	}
	if !balance.Status.IsUsable() {
		return leave.LeaveBalance{}, leave.ErrBalanceNotUsable
	}
	return balance, nil
}
