package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// CreateLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest, actorID int64) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}
	request, err := leave.NewLeaveRequest(req.ToParams())
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	var created leave.LeaveRequest
	err = l.transactor.WithinTransaction(ctx, actionCreateRequest, func(ctx context.Context) error {
		if err := l.EmployeeRepository.LockForLeave(ctx, request.EmployeeID); err != nil {
			return err
		}
		if err := l.checkRequestAgainstLedger(ctx, request, nil); err != nil {
			return err
		}

		created, err = l.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionCreateRequest, activitylog.EntityLeaveRequest, created.ID, map[string]interface{}{
			"employee_id": created.EmployeeID,
			"balance_id":  created.BalanceID,
			"start_date":  created.StartDate.Format("2006-01-02"),
			"end_date":    created.EndDate.Format("2006-01-02"),
			"total_days":  created.TotalDays,
		})
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request created", "request_id", created.ID, "employee_id", created.EmployeeID)
	return created, nil
}

// UpdateLeaveRequest implements leave.LeaveService. Only PENDING requests change.
func (l *LeaveServiceImpl) UpdateLeaveRequest(ctx context.Context, id int64, req leave.UpdateLeaveRequestRequest, actorID int64) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}

	var updated leave.LeaveRequest
	err := l.transactor.WithinTransaction(ctx, actionUpdateRequest, func(ctx context.Context) error {
		current, err := l.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != leave.RequestStatusPending {
			return leave.ErrRequestNotEditable
		}
		if err := l.EmployeeRepository.LockForLeave(ctx, current.EmployeeID); err != nil {
			return err
		}

		candidate := req.ApplyTo(current)
		if err := leave.ValidateRequest(candidate); err != nil {
			return err
		}
		if err := l.checkRequestAgainstLedger(ctx, candidate, &id); err != nil {
			return err
		}

		updated, err = l.LeaveRequestRepository.Update(ctx, candidate)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionUpdateRequest, activitylog.EntityLeaveRequest, id, map[string]interface{}{
			"before": current,
			"after":  updated,
		})
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return updated, nil
}

// checkRequestAgainstLedger verifies the balance can carry the request, the
// policy's excluded weekdays and that no approved leave overlaps it. The
// caller holds the employee lock.
func (l *LeaveServiceImpl) checkRequestAgainstLedger(ctx context.Context, request leave.LeaveRequest, excludeID *int64) error {
	balance, err := l.LeaveBalanceRepository.GetByID(ctx, request.BalanceID)
	if err != nil {
		return err
	}
	if err := request.AssertBalanceSufficient(balance); err != nil {
		return err
	}

	policy, err := l.LeavePolicyRepository.GetByID(ctx, balance.PolicyID)
	if err != nil {
		return err
	}
	if len(policy.ExcludedWeekdays) > 0 {
		leaveDays := leave.CountLeaveDays(request.StartDate, request.EndDate, policy)
		if request.TotalDays.GreaterThan(decimal.NewFromInt(int64(leaveDays))) {
			return leave.ErrExceedsWorkingDays
		}
	}

	return l.assertNoOverlap(ctx, request, excludeID)
}

func (l *LeaveServiceImpl) assertNoOverlap(ctx context.Context, request leave.LeaveRequest, excludeID *int64) error {
	overlapping, err := l.LeaveRequestRepository.FindOverlappingRequests(ctx, request.EmployeeID, request.StartDate, request.EndDate, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("request %d: %w", overlapping[0].ID, leave.ErrOverlappingLeave)
	}
	return nil
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, id int64) (leave.LeaveRequest, error) {
	return l.LeaveRequestRepository.GetByID(ctx, id)
}

// ListLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListResult[leave.LeaveRequest], error) {
	if err := filter.Validate(); err != nil {
		return leave.ListResult[leave.LeaveRequest]{}, err
	}
	requests, total, err := l.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return leave.ListResult[leave.LeaveRequest]{}, err
	}
	return leave.NewListResult(requests, total, filter.Page, filter.Limit), nil
}

// FindOverlappingRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) FindOverlappingRequests(ctx context.Context, query leave.OverlapQuery) ([]leave.LeaveRequest, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	start, end := query.Range()
	requests, err := l.LeaveRequestRepository.FindOverlappingRequests(ctx, query.EmployeeID, start, end, query.ExcludeID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []leave.LeaveRequest{}
	}
	return requests, nil
}

// ApproveLeaveRequest implements leave.LeaveService. The status write is
// conditional on the row still being PENDING, then the locked balance is
// debited and a "use" transaction appended.
func (l *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, id int64, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}
	approverID := *req.ApproverID

	var approved leave.LeaveRequest
	var balanceAfter leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, actionApproveRequest, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := l.now()
		reviewed, err := request.Review(leave.RequestEventApprove, approverID, req.Remarks, now)
		if err != nil {
			return err
		}
		// Concurrent approvals for one employee queue here, so the overlap
		// query below sees whatever the previous one committed.
		if err := l.EmployeeRepository.LockForLeave(ctx, request.EmployeeID); err != nil {
			return err
		}
		if err := l.assertNoOverlap(ctx, request, &id); err != nil {
			return err
		}

		approved, err = l.LeaveRequestRepository.UpdateStatus(ctx, reviewed, request.Status)
		if err != nil {
			return err
		}

		balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, request.BalanceID)
		if err != nil {
			return err
		}
		if err := request.AssertBalanceSufficient(balance); err != nil {
			return err
		}

		var txn leave.LeaveTransaction
		balanceAfter, txn, err = l.ledger.Debit(ctx, balance, request.TotalDays, now, Movement{
			RequestID: &id,
			ActorID:   &approverID,
			Remarks:   req.Remarks,
		})
		if err != nil {
			return err
		}

		return l.record(ctx, &approverID, actionApproveRequest, activitylog.EntityLeaveRequest, id, map[string]interface{}{
			"from":           request.Status,
			"to":             approved.Status,
			"balance_id":     balance.ID,
			"transaction_id": txn.ID,
			"days":           request.TotalDays,
		})
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request approved",
		"request_id", id,
		"employee_id", approved.EmployeeID,
		"balance_id", approved.BalanceID,
		"remaining", balanceAfter.Remaining.StringFixed(leave.DayPrecision),
	)
	return approved, nil
}

// RejectLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, id int64, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}
	approverID := *req.ApproverID

	var rejected leave.LeaveRequest
	err := l.transactor.WithinTransaction(ctx, actionRejectRequest, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		reviewed, err := request.Review(leave.RequestEventReject, approverID, req.Remarks, l.now())
		if err != nil {
			return err
		}
		rejected, err = l.LeaveRequestRepository.UpdateStatus(ctx, reviewed, request.Status)
		if err != nil {
			return err
		}
		return l.record(ctx, &approverID, actionRejectRequest, activitylog.EntityLeaveRequest, id, map[string]interface{}{
			"from": request.Status,
			"to":   rejected.Status,
		})
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request rejected", "request_id", id, "employee_id", rejected.EmployeeID)
	return rejected, nil
}

// CancelLeaveRequest implements leave.LeaveService. Cancelling an APPROVED
// request credits its days back with an "earn" transaction.
func (l *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, id int64, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequest{}, err
	}
	approverID := *req.ApproverID

	var cancelled leave.LeaveRequest
	err := l.transactor.WithinTransaction(ctx, actionCancelRequest, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := l.now()
		reviewed, err := request.Review(leave.RequestEventCancel, approverID, req.Remarks, now)
		if err != nil {
			return err
		}
		cancelled, err = l.LeaveRequestRepository.UpdateStatus(ctx, reviewed, request.Status)
		if err != nil {
			return err
		}

		details := map[string]interface{}{
			"from": request.Status,
			"to":   cancelled.Status,
		}

		if request.Status == leave.RequestStatusApproved {
			balance, err := l.LeaveBalanceRepository.GetByIDForUpdate(ctx, request.BalanceID)
			if err != nil {
				return err
			}
			_, txn, err := l.ledger.Credit(ctx, balance, request.TotalDays, now, Movement{
				RequestID: &id,
				ActorID:   &approverID,
				Remarks:   req.Remarks,
			})
			if err != nil {
				return err
			}
			details["balance_id"] = balance.ID
			details["transaction_id"] = txn.ID
			details["days"] = request.TotalDays
		}

		return l.record(ctx, &approverID, actionCancelRequest, activitylog.EntityLeaveRequest, id, details)
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request cancelled", "request_id", id, "employee_id", cancelled.EmployeeID)
	return cancelled, nil
}

// ReviewLeaveRequest implements leave.LeaveService by dispatching on the target status.
func (l *LeaveServiceImpl) ReviewLeaveRequest(ctx context.Context, id int64, req leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	event, err := req.Event()
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	switch event {
	case leave.RequestEventApprove:
		return l.ApproveLeaveRequest(ctx, id, req)
	case leave.RequestEventReject:
		return l.RejectLeaveRequest(ctx, id, req)
	default:
		return l.CancelLeaveRequest(ctx, id, req)
	}
}
