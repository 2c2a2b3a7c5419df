package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/google/uuid"
)

const (
	actionCreatePolicy     = "create_leave_policy"
	actionUpdatePolicy     = "update_leave_policy"
	actionActivatePolicy   = "activate_leave_policy"
	actionDeactivatePolicy = "deactivate_leave_policy"
	actionRetirePolicy     = "retire_leave_policy"
	actionArchivePolicy    = "archive_leave_policy"
	actionRestorePolicy    = "restore_leave_policy"

	actionCreateBalance     = "create_leave_balance"
	actionUpdateBalance     = "update_leave_balance"
	actionAdjustBalance     = "adjust_leave_balance"
	actionEncashBalance     = "encash_leave_balance"
	actionCarryOverBalance  = "carry_over_leave_balance"
	actionTransitionBalance = "transition_leave_balance"
	actionArchiveBalance    = "archive_leave_balance"
	actionRestoreBalance    = "restore_leave_balance"
	actionGenerateBalances  = "generate_leave_balances"

	actionCreateRequest  = "create_leave_request"
	actionUpdateRequest  = "update_leave_request"
	actionApproveRequest = "approve_leave_request"
	actionRejectRequest  = "reject_leave_request"
	actionCancelRequest  = "cancel_leave_request"
)

type LeaveServiceImpl struct {
	transactor leave.Transactor
	leave.LeavePolicyRepository
	leave.LeaveBalanceRepository
	leave.LeaveRequestRepository
	leave.LeaveTransactionRepository
	employee.EmployeeRepository
	activitylog.Repository
	activation  *ActivationService
	eligibility *EligibilityCalculator
	ledger      *BalanceLedger
	now         func() time.Time
}

func NewLeaveService(
	transactor leave.Transactor,
	leavePolicyRepository leave.LeavePolicyRepository,
	leaveBalanceRepository leave.LeaveBalanceRepository,
	leaveRequestRepository leave.LeaveRequestRepository,
	leaveTransactionRepository leave.LeaveTransactionRepository,
	employeeRepository employee.EmployeeRepository,
	activityLogRepository activitylog.Repository,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		transactor:                 transactor,
		LeavePolicyRepository:      leavePolicyRepository,
		LeaveBalanceRepository:     leaveBalanceRepository,
		LeaveRequestRepository:     leaveRequestRepository,
		LeaveTransactionRepository: leaveTransactionRepository,
		EmployeeRepository:         employeeRepository,
		Repository:                 activityLogRepository,
		activation:                 NewActivationService(),
		eligibility:                NewEligibilityCalculator(),
		ledger:                     NewBalanceLedger(leaveBalanceRepository, leaveTransactionRepository),
		now:                        func() time.Time { return time.Now().UTC() },
	}
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

// record appends the audit entry of a mutation. It runs inside the mutation's
// transaction so a failed write rolls the whole operation back.
func (l *LeaveServiceImpl) record(ctx context.Context, actorID *int64, action, entityType string, entityID int64, details map[string]interface{}) error {
	correlationID := activitylog.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	err := l.Repository.Create(ctx, activitylog.Entry{
		UserID:        actorID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Details:       details,
		CorrelationID: correlationID,
	})
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

// CreatePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) CreatePolicy(ctx context.Context, req leave.CreatePolicyRequest, actorID int64) (leave.LeavePolicy, error) {
	if err := req.Validate(); err != nil {
		return leave.LeavePolicy{}, err
	}
	policy := req.ToPolicy()
	if err := l.activation.ValidateParameters(policy); err != nil {
		return leave.LeavePolicy{}, err
	}

	var created leave.LeavePolicy
	err := l.transactor.WithinTransaction(ctx, actionCreatePolicy, func(ctx context.Context) error {
		inserted, err := l.LeavePolicyRepository.Create(ctx, policy)
		if err != nil {
			return err
		}
		created, err = l.LeavePolicyRepository.GetByID(ctx, inserted.ID)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionCreatePolicy, activitylog.EntityLeavePolicy, created.ID, map[string]interface{}{
			"leave_type_id":      created.LeaveTypeID,
			"annual_entitlement": created.AnnualEntitlement,
		})
	})
	if err != nil {
		return leave.LeavePolicy{}, err
	}

	slog.Info("Leave policy created", "policy_id", created.ID, "leave_type_id", created.LeaveTypeID)
	return created, nil
}

// UpdatePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) UpdatePolicy(ctx context.Context, id int64, req leave.UpdatePolicyRequest, actorID int64) (leave.LeavePolicy, error) {
	if err := req.Validate(); err != nil {
		return leave.LeavePolicy{}, err
	}

	var updated leave.LeavePolicy
	err := l.transactor.WithinTransaction(ctx, actionUpdatePolicy, func(ctx context.Context) error {
		current, err := l.LeavePolicyRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := l.activation.CanUpdate(current); err != nil {
			return err
		}

		candidate := req.ApplyTo(current)
		if err := l.activation.ValidateParameters(candidate); err != nil {
			return err
		}

		updated, err = l.LeavePolicyRepository.Update(ctx, candidate, current.Status)
		if err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionUpdatePolicy, activitylog.EntityLeavePolicy, id, map[string]interface{}{
			"before": current,
			"after":  updated,
		})
	})
	if err != nil {
		return leave.LeavePolicy{}, err
	}
	return updated, nil
}

// GetPolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) GetPolicy(ctx context.Context, id int64) (leave.LeavePolicy, error) {
	return l.LeavePolicyRepository.GetByID(ctx, id)
}

// ListPolicies implements leave.LeaveService.
func (l *LeaveServiceImpl) ListPolicies(ctx context.Context, filter leave.PolicyFilter) (leave.ListResult[leave.LeavePolicy], error) {
	if err := filter.Validate(); err != nil {
		return leave.ListResult[leave.LeavePolicy]{}, err
	}
	policies, total, err := l.LeavePolicyRepository.List(ctx, filter)
	if err != nil {
		return leave.ListResult[leave.LeavePolicy]{}, err
	}
	return leave.NewListResult(policies, total, filter.Page, filter.Limit), nil
}

// ActivatePolicy implements leave.LeaveService. The leave type's current ACTIVE
// policy is locked, retired and replaced in one transaction.
func (l *LeaveServiceImpl) ActivatePolicy(ctx context.Context, id int64, actorID int64) (leave.LeavePolicy, error) {
	var activated leave.LeavePolicy
	var retiredID *int64
	err := l.transactor.WithinTransaction(ctx, actionActivatePolicy, func(ctx context.Context) error {
		policy, err := l.LeavePolicyRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		existing, err := l.LeavePolicyRepository.GetActiveByLeaveTypeForUpdate(ctx, policy.LeaveTypeID)
		if err != nil {
			return err
		}

		decision, err := l.activation.CanActivate(policy, existing)
		if err != nil {
			return err
		}
		if decision.RetirePolicyID != nil {
			if err := l.LeavePolicyRepository.UpdateStatus(ctx, *decision.RetirePolicyID, leave.PolicyStatusActive, leave.PolicyStatusRetired); err != nil {
				return fmt.Errorf("failed to retire active policy %d: %w", *decision.RetirePolicyID, err)
			}
			retiredID = decision.RetirePolicyID
		}

		if err := l.LeavePolicyRepository.UpdateStatus(ctx, policy.ID, policy.Status, leave.PolicyStatusActive); err != nil {
			return err
		}
		activated, err = l.LeavePolicyRepository.GetByID(ctx, policy.ID)
		if err != nil {
			return err
		}

		return l.record(ctx, &actorID, actionActivatePolicy, activitylog.EntityLeavePolicy, policy.ID, map[string]interface{}{
			"from":              policy.Status,
			"to":                leave.PolicyStatusActive,
			"retired_policy_id": decision.RetirePolicyID,
		})
	})
	if err != nil {
		return leave.LeavePolicy{}, err
	}

	slog.Info("Leave policy activated",
		"policy_id", activated.ID,
		"leave_type_id", activated.LeaveTypeID,
		"retired_policy_id", retiredID,
	)
	return activated, nil
}

// DeactivatePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) DeactivatePolicy(ctx context.Context, id int64, actorID int64) (leave.LeavePolicy, error) {
	return l.transitionPolicy(ctx, id, actorID, leave.PolicyEventDeactivate, actionDeactivatePolicy, nil)
}

// RetirePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) RetirePolicy(ctx context.Context, id int64, actorID int64) (leave.LeavePolicy, error) {
	return l.transitionPolicy(ctx, id, actorID, leave.PolicyEventRetire, actionRetirePolicy, l.activation.CanRetire)
}

func (l *LeaveServiceImpl) transitionPolicy(
	ctx context.Context,
	id, actorID int64,
	event leave.PolicyEvent,
	action string,
	guard func(leave.LeavePolicy) error,
) (leave.LeavePolicy, error) {
	var result leave.LeavePolicy
	err := l.transactor.WithinTransaction(ctx, action, func(ctx context.Context) error {
		policy, err := l.LeavePolicyRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(policy); err != nil {
				return err
			}
		}
		next, err := policy.Status.Next(event)
		if err != nil {
			return err
		}

		if err := l.LeavePolicyRepository.UpdateStatus(ctx, id, policy.Status, next); err != nil {
			return err
		}
		result, err = l.LeavePolicyRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}

		return l.record(ctx, &actorID, action, activitylog.EntityLeavePolicy, id, map[string]interface{}{
			"from": policy.Status,
			"to":   next,
		})
	})
	if err != nil {
		return leave.LeavePolicy{}, err
	}
	return result, nil
}

// ArchivePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) ArchivePolicy(ctx context.Context, id int64, actorID int64) error {
	return l.transactor.WithinTransaction(ctx, actionArchivePolicy, func(ctx context.Context) error {
		policy, err := l.LeavePolicyRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		archived, err := policy.Archive(actorID, l.now())
		if err != nil {
			return err
		}
		if err := l.LeavePolicyRepository.SetArchived(ctx, id, archived.ArchivedAt, archived.ArchivedBy); err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionArchivePolicy, activitylog.EntityLeavePolicy, id, nil)
	})
}

// RestorePolicy implements leave.LeaveService.
func (l *LeaveServiceImpl) RestorePolicy(ctx context.Context, id int64, actorID int64) error {
	return l.transactor.WithinTransaction(ctx, actionRestorePolicy, func(ctx context.Context) error {
		policy, err := l.LeavePolicyRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := policy.Restore(); err != nil {
			return err
		}
		if err := l.LeavePolicyRepository.SetArchived(ctx, id, nil, nil); err != nil {
			return err
		}
		return l.record(ctx, &actorID, actionRestorePolicy, activitylog.EntityLeavePolicy, id, nil)
	})
}
