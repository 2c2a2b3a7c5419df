package leave

import (
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	// Not found
	ErrLeaveTypeNotFound    = apperror.New(apperror.KindNotFound, "LEAVE_TYPE_NOT_FOUND", "leave type not found")
	ErrPolicyNotFound       = apperror.New(apperror.KindNotFound, "LEAVE_POLICY_NOT_FOUND", "leave policy not found")
	ErrBalanceNotFound      = apperror.New(apperror.KindNotFound, "LEAVE_BALANCE_NOT_FOUND", "leave balance not found")
	ErrLeaveRequestNotFound = apperror.New(apperror.KindNotFound, "LEAVE_REQUEST_NOT_FOUND", "leave request not found")
	ErrReferenceNotFound    = apperror.New(apperror.KindNotFound, "REFERENCE_NOT_FOUND", "referenced employee, leave type, policy or balance not found")

	// Conflict
	ErrInvalidTransition    = apperror.New(apperror.KindConflict, "INVALID_STATUS_TRANSITION", "invalid status transition")
	ErrPolicyAlreadyActive  = apperror.New(apperror.KindConflict, "LEAVE_POLICY_ALREADY_ACTIVE", "leave policy is already active")
	ErrPolicyAlreadyRetired = apperror.New(apperror.KindConflict, "LEAVE_POLICY_ALREADY_RETIRED", "leave policy is already retired")
	ErrPolicyImmutable      = apperror.New(apperror.KindConflict, "LEAVE_POLICY_IMMUTABLE", "active or retired leave policy cannot be modified")
	ErrPolicyActiveArchive  = apperror.New(apperror.KindConflict, "LEAVE_POLICY_ACTIVE", "active leave policy cannot be archived")
	ErrActivePolicyExists   = apperror.New(apperror.KindConflict, "ACTIVE_POLICY_EXISTS", "another active policy exists for this leave type")
	ErrAlreadyArchived      = apperror.New(apperror.KindConflict, "ALREADY_ARCHIVED", "record is already archived")
	ErrNotArchived          = apperror.New(apperror.KindConflict, "NOT_ARCHIVED", "record is not archived")
	ErrBalanceExists        = apperror.New(apperror.KindConflict, "LEAVE_BALANCE_EXISTS", "leave balance already exists for this employee, leave type and year")
	ErrBalanceNotUsable     = apperror.New(apperror.KindConflict, "LEAVE_BALANCE_NOT_USABLE", "leave balance is not open")
	ErrRequestNotEditable   = apperror.New(apperror.KindConflict, "LEAVE_REQUEST_NOT_EDITABLE", "only pending leave requests can be modified")
	ErrRequestStale         = apperror.New(apperror.KindConflict, "LEAVE_REQUEST_STALE", "leave request was modified concurrently")
	ErrPolicyStale          = apperror.New(apperror.KindConflict, "LEAVE_POLICY_STALE", "leave policy was modified concurrently")

	// Validation
	ErrInvalidPolicyWindow = apperror.New(apperror.KindValidation, "INVALID_POLICY_WINDOW", "expiry_date must be after effective_date")
	ErrLedgerInvariant     = apperror.New(apperror.KindValidation, "LEDGER_INVARIANT_VIOLATED", "remaining must equal beginning_balance + earned + carried_over - used - encashed")
	ErrInsufficientBalance = apperror.New(apperror.KindValidation, "INSUFFICIENT_BALANCE", "insufficient leave balance")
	ErrBalanceMismatch     = apperror.New(apperror.KindValidation, "LEAVE_BALANCE_MISMATCH", "leave balance does not belong to this request")
	ErrOverlappingLeave    = apperror.New(apperror.KindValidation, "OVERLAPPING_LEAVE", "leave dates overlap an approved leave request")
	ErrExceedsWorkingDays  = apperror.New(apperror.KindValidation, "EXCEEDS_WORKING_DAYS", "total_days exceeds the number of leave days in the range")
	ErrEncashLimitExceeded = apperror.New(apperror.KindValidation, "ENCASH_LIMIT_EXCEEDED", "encashment exceeds the policy encash limit")
	ErrCarryOverNotAllowed = apperror.New(apperror.KindValidation, "CARRY_OVER_NOT_ALLOWED", "carry-over is not allowed for this balance")
	ErrInvalidYear         = apperror.New(apperror.KindValidation, "INVALID_YEAR", "year must be a 4-digit integer between 1900 and 2100")
	ErrEmptyFilters        = apperror.New(apperror.KindValidation, "EMPTY_FILTERS", "employment_types and employment_statuses must not be empty")

	// Internal
	ErrWriteNotApplied = apperror.New(apperror.KindInternal, "WRITE_NOT_APPLIED", "write affected no rows")
)

// InsufficientBalanceError carries the amounts behind a failed debit.
type InsufficientBalanceError struct {
	BalanceID int64
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance %d: remaining %s, requested %s",
		e.BalanceID, e.Remaining.StringFixed(DayPrecision), e.Requested.StringFixed(DayPrecision))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// Details is rendered into the error envelope.
func (e *InsufficientBalanceError) Details() map[string]string {
	return map[string]string{
		"balance_id": fmt.Sprintf("%d", e.BalanceID),
		"remaining":  e.Remaining.StringFixed(DayPrecision),
		"requested":  e.Requested.StringFixed(DayPrecision),
	}
}
