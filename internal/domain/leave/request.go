package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const maxReasonLength = 500

type RequestParams struct {
	EmployeeID  int64
	LeaveTypeID int64
	BalanceID   int64
	StartDate   time.Time
	EndDate     time.Time
	TotalDays   decimal.Decimal
	Reason      string
}

// DateOnly drops the clock part and pins the date to UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarSpan is the inclusive number of days in [start, end].
func CalendarSpan(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// CountLeaveDays counts the days in [start, end] not falling on an excluded weekday.
func CountLeaveDays(start, end time.Time, policy LeavePolicy) int {
	start, end = DateOnly(start), DateOnly(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !policy.ExcludesWeekday(d.Weekday()) {
			count++
		}
	}
	return count
}

func NewLeaveRequest(p RequestParams) (LeaveRequest, error) {
	r := LeaveRequest{
		EmployeeID:  p.EmployeeID,
		LeaveTypeID: p.LeaveTypeID,
		BalanceID:   p.BalanceID,
		StartDate:   DateOnly(p.StartDate),
		EndDate:     DateOnly(p.EndDate),
		TotalDays:   p.TotalDays,
		Reason:      p.Reason,
		Status:      RequestStatusPending,
	}
	if err := ValidateRequest(r); err != nil {
		return LeaveRequest{}, err
	}
	return r, nil
}

func ValidateRequest(r LeaveRequest) error {
	var errs validator.ValidationErrors

	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id must be a positive integer")
	}
	if r.LeaveTypeID <= 0 {
		errs.Add("leave_type_id", "leave_type_id must be a positive integer")
	}
	if r.BalanceID <= 0 {
		errs.Add("balance_id", "balance_id must be a positive integer")
	}
	if r.StartDate.IsZero() {
		errs.Add("start_date", "start_date is required")
	}
	if r.EndDate.IsZero() {
		errs.Add("end_date", "end_date is required")
	}
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if !r.TotalDays.IsPositive() {
		errs.Add("total_days", "total_days must be greater than 0")
	} else if !validator.HasMaxDecimalPlaces(r.TotalDays, DayPrecision) {
		errs.Add("total_days", "total_days must have at most 2 decimal places")
	} else if span := CalendarSpan(r.StartDate, r.EndDate); span > 0 && r.TotalDays.GreaterThan(decimal.NewFromInt(int64(span))) {
		errs.Add("total_days", "total_days must not exceed the calendar days between start_date and end_date")
	}
	if !validator.LengthBetween(r.Reason, 1, maxReasonLength) || validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason must be between 1 and 500 characters")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Overlaps reports whether [start, end] intersects the request's range, inclusive.
func (r LeaveRequest) Overlaps(start, end time.Time) bool {
	return !DateOnly(start).After(r.EndDate) && !DateOnly(end).Before(r.StartDate)
}

// AssertBalanceSufficient guards a debit of this request against b.
func (r LeaveRequest) AssertBalanceSufficient(b LeaveBalance) error {
	if b.ID != r.BalanceID || b.EmployeeID != r.EmployeeID || b.LeaveTypeID != r.LeaveTypeID {
		return ErrBalanceMismatch
	}
	if b.IsArchived() || !b.Status.IsUsable() {
		return ErrBalanceNotUsable
	}
	if b.Remaining.LessThan(r.TotalDays) {
		return &InsufficientBalanceError{BalanceID: b.ID, Remaining: b.Remaining, Requested: r.TotalDays}
	}
	return nil
}

// Review applies an approve, reject or cancel event and stamps the approval metadata.
func (r LeaveRequest) Review(e RequestEvent, by int64, remarks *string, at time.Time) (LeaveRequest, error) {
	next, err := r.Status.Next(e)
	if err != nil {
		return r, err
	}
	r.Status = next
	r.ApprovalBy = &by
	r.ApprovalDate = &at
	if remarks != nil {
		r.Remarks = remarks
	}
	return r, nil
}
