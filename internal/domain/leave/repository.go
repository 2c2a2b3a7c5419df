package leave

import (
	"context"
	"time"
)

// Transactor runs fn inside one database transaction. Every repository call
// made with the context passed to fn joins that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, action string, fn func(ctx context.Context) error) error
}

// LeavePolicyRepository - interface for leave_policies table
type LeavePolicyRepository interface {
	Create(ctx context.Context, policy LeavePolicy) (LeavePolicy, error)
	GetByID(ctx context.Context, id int64) (LeavePolicy, error)
	GetByIDForUpdate(ctx context.Context, id int64) (LeavePolicy, error)
	List(ctx context.Context, filter PolicyFilter) ([]LeavePolicy, int64, error)
	// Update writes editable fields only while the policy is still in status expected.
	Update(ctx context.Context, policy LeavePolicy, expected PolicyStatus) (LeavePolicy, error)
	// UpdateStatus is a conditional write: zero affected rows returns ErrPolicyStale.
	UpdateStatus(ctx context.Context, id int64, from, to PolicyStatus) error
	SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error
	// GetActiveByLeaveTypeForUpdate locks and returns the active policy, nil when none.
	GetActiveByLeaveTypeForUpdate(ctx context.Context, leaveTypeID int64) (*LeavePolicy, error)
	RetrieveActivePolicies(ctx context.Context) ([]LeavePolicy, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	// BulkCreate inserts balances that do not exist yet for (employee, leave type, year)
	// and returns only the rows it created.
	BulkCreate(ctx context.Context, balances []LeaveBalance) ([]LeaveBalance, error)
	GetByID(ctx context.Context, id int64) (LeaveBalance, error)
	GetByIDForUpdate(ctx context.Context, id int64) (LeaveBalance, error)
	// FindByEmployeeTypeYearForUpdate returns nil when no balance exists.
	FindByEmployeeTypeYearForUpdate(ctx context.Context, employeeID, leaveTypeID int64, year string) (*LeaveBalance, error)
	List(ctx context.Context, filter BalanceFilter) ([]LeaveBalance, int64, error)
	// Update writes ledger fields; zero affected rows returns ErrWriteNotApplied.
	Update(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	UpdateStatus(ctx context.Context, id int64, from, to BalanceStatus) error
	SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id int64) (LeaveRequest, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	ListByBalanceID(ctx context.Context, balanceID int64) ([]LeaveRequest, error)
	// Update rewrites a PENDING request's editable fields.
	Update(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	// UpdateStatus writes status and approval fields only while the row is still in from.
	// Zero affected rows returns ErrRequestStale.
	UpdateStatus(ctx context.Context, request LeaveRequest, from RequestStatus) (LeaveRequest, error)
	// FindOverlappingRequests returns APPROVED requests of the employee intersecting [start, end].
	FindOverlappingRequests(ctx context.Context, employeeID int64, start, end time.Time, excludeID *int64) ([]LeaveRequest, error)
}

// LeaveTransactionRepository - append-only interface for leave_transactions table
type LeaveTransactionRepository interface {
	Create(ctx context.Context, transaction LeaveTransaction) (LeaveTransaction, error)
	ListByBalanceID(ctx context.Context, balanceID int64) ([]LeaveTransaction, error)
}
