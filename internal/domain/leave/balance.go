package leave

import (
	"time"
	"unicode/utf8"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// BalanceParams are the inputs of a new ledger. Remaining is always derived.
type BalanceParams struct {
	EmployeeID       int64
	LeaveTypeID      int64
	PolicyID         int64
	Year             string
	BeginningBalance decimal.Decimal
	Earned           decimal.Decimal
	Used             decimal.Decimal
	CarriedOver      decimal.Decimal
	Encashed         decimal.Decimal
}

// BalanceDelta holds the fields an update supplies. Nil fields are left alone
// and nothing is recomputed, so the caller must keep the ledger consistent.
type BalanceDelta struct {
	BeginningBalance    *decimal.Decimal
	Earned              *decimal.Decimal
	Used                *decimal.Decimal
	CarriedOver         *decimal.Decimal
	Encashed            *decimal.Decimal
	Remaining           *decimal.Decimal
	LastTransactionDate *time.Time
}

// ExpectedRemaining is beginning_balance + earned + carried_over - used - encashed.
func (b LeaveBalance) ExpectedRemaining() decimal.Decimal {
	return b.BeginningBalance.Add(b.Earned).Add(b.CarriedOver).Sub(b.Used).Sub(b.Encashed)
}

func NewLeaveBalance(p BalanceParams) (LeaveBalance, error) {
	b := LeaveBalance{
		EmployeeID:       p.EmployeeID,
		LeaveTypeID:      p.LeaveTypeID,
		PolicyID:         p.PolicyID,
		Year:             p.Year,
		BeginningBalance: p.BeginningBalance,
		Earned:           p.Earned,
		Used:             p.Used,
		CarriedOver:      p.CarriedOver,
		Encashed:         p.Encashed,
		Status:           BalanceStatusOpen,
	}
	b.Remaining = b.ExpectedRemaining()

	if err := ValidateBalance(b); err != nil {
		return LeaveBalance{}, err
	}
	return b, nil
}

// ValidateBalance checks a candidate ledger before it is persisted.
func ValidateBalance(b LeaveBalance) error {
	var errs validator.ValidationErrors

	if b.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id must be a positive integer")
	}
	if b.LeaveTypeID <= 0 {
		errs.Add("leave_type_id", "leave_type_id must be a positive integer")
	}
	if b.PolicyID <= 0 {
		errs.Add("policy_id", "policy_id must be a positive integer")
	}
	if validator.IsEmpty(b.Year) || utf8.RuneCountInString(b.Year) > 20 {
		errs.Add("year", "year must be between 1 and 20 characters")
	}
	if !b.Status.IsValid() {
		errs.Add("status", "status is invalid")
	}

	components := []struct {
		field string
		value decimal.Decimal
	}{
		{"beginning_balance", b.BeginningBalance},
		{"earned", b.Earned},
		{"used", b.Used},
		{"carried_over", b.CarriedOver},
		{"encashed", b.Encashed},
		{"remaining", b.Remaining},
	}
	for _, c := range components {
		if c.value.IsNegative() {
			errs.Add(c.field, c.field+" must not be negative")
		}
		if !validator.HasMaxDecimalPlaces(c.value, DayPrecision) {
			errs.Add(c.field, c.field+" must have at most 2 decimal places")
		}
	}

	if len(errs) > 0 {
		return errs
	}

	if !b.Remaining.Equal(b.ExpectedRemaining()) {
		return ErrLedgerInvariant
	}
	return nil
}

// Apply returns the balance with delta applied. The receiver is never modified.
func (b LeaveBalance) Apply(delta BalanceDelta) (LeaveBalance, error) {
	if b.IsArchived() {
		return b, ErrAlreadyArchived
	}

	next := b
	if delta.BeginningBalance != nil {
		next.BeginningBalance = *delta.BeginningBalance
	}
	if delta.Earned != nil {
		next.Earned = *delta.Earned
	}
	if delta.Used != nil {
		next.Used = *delta.Used
	}
	if delta.CarriedOver != nil {
		next.CarriedOver = *delta.CarriedOver
	}
	if delta.Encashed != nil {
		next.Encashed = *delta.Encashed
	}
	if delta.Remaining != nil {
		next.Remaining = *delta.Remaining
	}
	if delta.LastTransactionDate != nil {
		next.LastTransactionDate = delta.LastTransactionDate
	}

	if err := ValidateBalance(next); err != nil {
		return b, err
	}
	return next, nil
}

// Debit moves days from remaining to used.
func (b LeaveBalance) Debit(days decimal.Decimal, at time.Time) (LeaveBalance, error) {
	if b.Remaining.LessThan(days) {
		return b, &InsufficientBalanceError{BalanceID: b.ID, Remaining: b.Remaining, Requested: days}
	}
	used := b.Used.Add(days)
	remaining := b.Remaining.Sub(days)
	return b.Apply(BalanceDelta{Used: &used, Remaining: &remaining, LastTransactionDate: &at})
}

// Credit reverses a previous debit.
func (b LeaveBalance) Credit(days decimal.Decimal, at time.Time) (LeaveBalance, error) {
	used := b.Used.Sub(days)
	remaining := b.Remaining.Add(days)
	return b.Apply(BalanceDelta{Used: &used, Remaining: &remaining, LastTransactionDate: &at})
}

// Adjust changes earned and remaining by a signed amount.
func (b LeaveBalance) Adjust(days decimal.Decimal, at time.Time) (LeaveBalance, error) {
	earned := b.Earned.Add(days)
	remaining := b.Remaining.Add(days)
	if earned.IsNegative() || remaining.IsNegative() {
		return b, &InsufficientBalanceError{BalanceID: b.ID, Remaining: b.Remaining, Requested: days.Neg()}
	}
	return b.Apply(BalanceDelta{Earned: &earned, Remaining: &remaining, LastTransactionDate: &at})
}

// Encash converts remaining days into a payout, bounded by limit.
func (b LeaveBalance) Encash(days, limit decimal.Decimal, at time.Time) (LeaveBalance, error) {
	if b.Encashed.Add(days).GreaterThan(limit) {
		return b, ErrEncashLimitExceeded
	}
	if b.Remaining.LessThan(days) {
		return b, &InsufficientBalanceError{BalanceID: b.ID, Remaining: b.Remaining, Requested: days}
	}
	encashed := b.Encashed.Add(days)
	remaining := b.Remaining.Sub(days)
	return b.Apply(BalanceDelta{Encashed: &encashed, Remaining: &remaining, LastTransactionDate: &at})
}

// CarryIn credits days carried over from a prior year.
func (b LeaveBalance) CarryIn(days decimal.Decimal, at time.Time) (LeaveBalance, error) {
	carried := b.CarriedOver.Add(days)
	remaining := b.Remaining.Add(days)
	return b.Apply(BalanceDelta{CarriedOver: &carried, Remaining: &remaining, LastTransactionDate: &at})
}

func (b LeaveBalance) Archive(by int64, at time.Time) (LeaveBalance, error) {
	if b.IsArchived() {
		return b, ErrAlreadyArchived
	}
	b.ArchivedAt = &at
	b.ArchivedBy = &by
	return b, nil
}

func (b LeaveBalance) Restore() (LeaveBalance, error) {
	if !b.IsArchived() {
		return b, ErrNotArchived
	}
	b.ArchivedAt = nil
	b.ArchivedBy = nil
	return b, nil
}

// Transition applies a status event to a live balance.
func (b LeaveBalance) Transition(e BalanceEvent) (LeaveBalance, error) {
	if b.IsArchived() {
		return b, ErrAlreadyArchived
	}
	next, err := b.Status.Next(e)
	if err != nil {
		return b, err
	}
	b.Status = next
	return b, nil
}
