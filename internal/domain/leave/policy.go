package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ValidatePolicyParameters checks the numeric and eligibility rules of a policy.
func ValidatePolicyParameters(p LeavePolicy) error {
	var errs validator.ValidationErrors

	if p.LeaveTypeID <= 0 {
		errs.Add("leave_type", "leave_type must be a positive integer")
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"annual_entitlement", p.AnnualEntitlement},
		{"carry_limit", p.CarryLimit},
		{"encash_limit", p.EncashLimit},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			errs.Add(a.field, a.field+" must not be negative")
		}
		if !validator.HasMaxDecimalPlaces(a.value, DayPrecision) {
			errs.Add(a.field, a.field+" must have at most 2 decimal places")
		}
	}

	if p.CarriedOverYears < 1 {
		errs.Add("carried_over_years", "carried_over_years must be at least 1")
	}
	if p.MinimumServiceMonths != nil && *p.MinimumServiceMonths < 0 {
		errs.Add("minimum_service_months", "minimum_service_months must not be negative")
	}
	for _, d := range p.ExcludedWeekdays {
		if d < 0 || d > 6 {
			errs.Add("excluded_weekdays", "excluded_weekdays must be between 0 (Sunday) and 6 (Saturday)")
			break
		}
	}
	for _, t := range p.AllowedEmploymentTypes {
		if validator.IsEmpty(t) {
			errs.Add("allowed_employment_types", "allowed_employment_types must not contain empty values")
			break
		}
	}
	for _, s := range p.AllowedEmployeeStatuses {
		if validator.IsEmpty(s) {
			errs.Add("allowed_employee_statuses", "allowed_employee_statuses must not contain empty values")
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// HasValidWindow is false when both dates are set and expiry is not after effective.
func (p LeavePolicy) HasValidWindow() bool {
	if p.EffectiveDate == nil || p.ExpiryDate == nil {
		return true
	}
	return p.ExpiryDate.After(*p.EffectiveDate)
}

// CoversYear reports whether the validity window intersects the calendar year.
func (p LeavePolicy) CoversYear(year int) bool {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if p.EffectiveDate != nil && p.EffectiveDate.After(end) {
		return false
	}
	if p.ExpiryDate != nil && p.ExpiryDate.Before(start) {
		return false
	}
	return true
}

// ExcludesWeekday reports whether days falling on d are not counted as leave.
func (p LeavePolicy) ExcludesWeekday(d time.Weekday) bool {
	for _, w := range p.ExcludedWeekdays {
		if time.Weekday(w) == d {
			return true
		}
	}
	return false
}

// MinimumService returns the required tenure in months, 0 when unset.
func (p LeavePolicy) MinimumService() int {
	if p.MinimumServiceMonths == nil {
		return 0
	}
	return *p.MinimumServiceMonths
}

func (p LeavePolicy) Archive(by int64, at time.Time) (LeavePolicy, error) {
	if p.IsArchived() {
		return p, ErrAlreadyArchived
	}
	if p.Status == PolicyStatusActive {
		return p, ErrPolicyActiveArchive
	}
	p.ArchivedAt = &at
	p.ArchivedBy = &by
	return p, nil
}

func (p LeavePolicy) Restore() (LeavePolicy, error) {
	if !p.IsArchived() {
		return p, ErrNotArchived
	}
	p.ArchivedAt = nil
	p.ArchivedBy = nil
	return p, nil
}
