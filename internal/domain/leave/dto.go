package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

func parseOptionalDate(errs *validator.ValidationErrors, field string, value *string) *time.Time {
	if value == nil || validator.IsEmpty(*value) {
		return nil
	}
	date, ok := validator.IsValidDate(*value)
	if !ok {
		errs.Add(field, field+" must be in YYYY-MM-DD format")
		return nil
	}
	return &date
}

func parseRequiredDate(errs *validator.ValidationErrors, field string, value string) time.Time {
	if validator.IsEmpty(value) {
		errs.Add(field, field+" is required")
		return time.Time{}
	}
	date, ok := validator.IsValidDate(value)
	if !ok {
		errs.Add(field, field+" must be in YYYY-MM-DD format")
		return time.Time{}
	}
	return date
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// ListResult is one page of a list query.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func NewListResult[T any](items []T, total int64, page, limit int) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return ListResult[T]{Items: items, TotalCount: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// ---- Policy ----

type CreatePolicyRequest struct {
	LeaveTypeID             int64           `json:"leave_type"`
	AnnualEntitlement       decimal.Decimal `json:"annual_entitlement"`
	CarryLimit              decimal.Decimal `json:"carry_limit"`
	EncashLimit             decimal.Decimal `json:"encash_limit"`
	CarriedOverYears        int             `json:"carried_over_years"`
	MinimumServiceMonths    *int            `json:"minimum_service_months,omitempty"`
	AllowedEmploymentTypes  []string        `json:"allowed_employment_types,omitempty"`
	AllowedEmployeeStatuses []string        `json:"allowed_employee_statuses,omitempty"`
	ExcludedWeekdays        []int           `json:"excluded_weekdays,omitempty"`
	EffectiveDate           *string         `json:"effective_date,omitempty"`
	ExpiryDate              *string         `json:"expiry_date,omitempty"`
	Remarks                 *string         `json:"remarks,omitempty"`

	effectiveDate *time.Time
	expiryDate    *time.Time
}

func (r *CreatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.LeaveTypeID <= 0 {
		errs.Add("leave_type", "leave_type is required")
	}
	r.effectiveDate = parseOptionalDate(&errs, "effective_date", r.EffectiveDate)
	r.expiryDate = parseOptionalDate(&errs, "expiry_date", r.ExpiryDate)
	if r.Remarks != nil && len(*r.Remarks) > 500 {
		errs.Add("remarks", "remarks must not exceed 500 characters")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToPolicy builds a DRAFT policy. Validate must have been called first.
func (r *CreatePolicyRequest) ToPolicy() LeavePolicy {
	return LeavePolicy{
		LeaveTypeID:             r.LeaveTypeID,
		AnnualEntitlement:       r.AnnualEntitlement,
		CarryLimit:              r.CarryLimit,
		EncashLimit:             r.EncashLimit,
		CarriedOverYears:        r.CarriedOverYears,
		MinimumServiceMonths:    r.MinimumServiceMonths,
		AllowedEmploymentTypes:  nonNilStrings(r.AllowedEmploymentTypes),
		AllowedEmployeeStatuses: nonNilStrings(r.AllowedEmployeeStatuses),
		ExcludedWeekdays:        nonNilInts(r.ExcludedWeekdays),
		EffectiveDate:           r.effectiveDate,
		ExpiryDate:              r.expiryDate,
		Status:                  PolicyStatusDraft,
		Remarks:                 r.Remarks,
	}
}

type UpdatePolicyRequest struct {
	AnnualEntitlement       *decimal.Decimal `json:"annual_entitlement,omitempty"`
	CarryLimit              *decimal.Decimal `json:"carry_limit,omitempty"`
	EncashLimit             *decimal.Decimal `json:"encash_limit,omitempty"`
	CarriedOverYears        *int             `json:"carried_over_years,omitempty"`
	MinimumServiceMonths    *int             `json:"minimum_service_months,omitempty"`
	AllowedEmploymentTypes  *[]string        `json:"allowed_employment_types,omitempty"`
	AllowedEmployeeStatuses *[]string        `json:"allowed_employee_statuses,omitempty"`
	ExcludedWeekdays        *[]int           `json:"excluded_weekdays,omitempty"`
	EffectiveDate           *string          `json:"effective_date,omitempty"`
	ExpiryDate              *string          `json:"expiry_date,omitempty"`
	Remarks                 *string          `json:"remarks,omitempty"`

	// Optional fields cannot be nulled through their pointers, an omitted
	// field already means "unchanged".
	ClearEffectiveDate        bool `json:"clear_effective_date,omitempty"`
	ClearExpiryDate           bool `json:"clear_expiry_date,omitempty"`
	ClearMinimumServiceMonths bool `json:"clear_minimum_service_months,omitempty"`

	effectiveDate *time.Time
	expiryDate    *time.Time
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	r.effectiveDate = parseOptionalDate(&errs, "effective_date", r.EffectiveDate)
	r.expiryDate = parseOptionalDate(&errs, "expiry_date", r.ExpiryDate)
	if r.ClearEffectiveDate && r.EffectiveDate != nil {
		errs.Add("clear_effective_date", "cannot set and clear effective_date together")
	}
	if r.ClearExpiryDate && r.ExpiryDate != nil {
		errs.Add("clear_expiry_date", "cannot set and clear expiry_date together")
	}
	if r.ClearMinimumServiceMonths && r.MinimumServiceMonths != nil {
		errs.Add("clear_minimum_service_months", "cannot set and clear minimum_service_months together")
	}
	if r.Remarks != nil && len(*r.Remarks) > 500 {
		errs.Add("remarks", "remarks must not exceed 500 characters")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyTo returns p with the supplied fields replaced and the flagged ones cleared.
func (r *UpdatePolicyRequest) ApplyTo(p LeavePolicy) LeavePolicy {
	if r.AnnualEntitlement != nil {
		p.AnnualEntitlement = *r.AnnualEntitlement
	}
	if r.CarryLimit != nil {
		p.CarryLimit = *r.CarryLimit
	}
	if r.EncashLimit != nil {
		p.EncashLimit = *r.EncashLimit
	}
	if r.CarriedOverYears != nil {
		p.CarriedOverYears = *r.CarriedOverYears
	}
	if r.MinimumServiceMonths != nil {
		p.MinimumServiceMonths = r.MinimumServiceMonths
	}
	if r.ClearMinimumServiceMonths {
		p.MinimumServiceMonths = nil
	}
	if r.AllowedEmploymentTypes != nil {
		p.AllowedEmploymentTypes = nonNilStrings(*r.AllowedEmploymentTypes)
	}
	if r.AllowedEmployeeStatuses != nil {
		p.AllowedEmployeeStatuses = nonNilStrings(*r.AllowedEmployeeStatuses)
	}
	if r.ExcludedWeekdays != nil {
		p.ExcludedWeekdays = nonNilInts(*r.ExcludedWeekdays)
	}
	if r.effectiveDate != nil {
		p.EffectiveDate = r.effectiveDate
	}
	if r.expiryDate != nil {
		p.ExpiryDate = r.expiryDate
	}
	if r.ClearEffectiveDate {
		p.EffectiveDate = nil
	}
	if r.ClearExpiryDate {
		p.ExpiryDate = nil
	}
	if r.Remarks != nil {
		p.Remarks = r.Remarks
	}
	return p
}

type PolicyFilter struct {
	LeaveTypeID     *int64
	Status          *PolicyStatus
	IncludeArchived bool
	Page            int
	Limit           int
}

func (f *PolicyFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "status must be one of draft, active, inactive, retired")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	return errs.Err()
}

// ---- Balance ----

type CreateBalanceRequest struct {
	EmployeeID       int64           `json:"employee_id"`
	LeaveTypeID      int64           `json:"leave_type_id"`
	PolicyID         int64           `json:"policy_id"`
	Year             string          `json:"year"`
	BeginningBalance decimal.Decimal `json:"beginning_balance"`
	Earned           decimal.Decimal `json:"earned"`
	Used             decimal.Decimal `json:"used"`
	CarriedOver      decimal.Decimal `json:"carried_over"`
	Encashed         decimal.Decimal `json:"encashed"`
}

func (r *CreateBalanceRequest) Validate() error {
	r.Year = strings.TrimSpace(r.Year)
	var errs validator.ValidationErrors
	if r.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.LeaveTypeID <= 0 {
		errs.Add("leave_type_id", "leave_type_id is required")
	}
	if r.PolicyID <= 0 {
		errs.Add("policy_id", "policy_id is required")
	}
	if validator.IsEmpty(r.Year) {
		errs.Add("year", "year is required")
	}
	return errs.Err()
}

func (r *CreateBalanceRequest) ToParams() BalanceParams {
	return BalanceParams{
		EmployeeID:       r.EmployeeID,
		LeaveTypeID:      r.LeaveTypeID,
		PolicyID:         r.PolicyID,
		Year:             r.Year,
		BeginningBalance: r.BeginningBalance,
		Earned:           r.Earned,
		Used:             r.Used,
		CarriedOver:      r.CarriedOver,
		Encashed:         r.Encashed,
	}
}

// UpdateBalanceRequest supplies ledger fields as-is; nothing is recomputed.
type UpdateBalanceRequest struct {
	BeginningBalance *decimal.Decimal `json:"beginning_balance,omitempty"`
	Earned           *decimal.Decimal `json:"earned,omitempty"`
	Used             *decimal.Decimal `json:"used,omitempty"`
	CarriedOver      *decimal.Decimal `json:"carried_over,omitempty"`
	Encashed         *decimal.Decimal `json:"encashed,omitempty"`
	Remaining        *decimal.Decimal `json:"remaining,omitempty"`
}

func (r *UpdateBalanceRequest) Validate() error {
	if r.BeginningBalance == nil && r.Earned == nil && r.Used == nil &&
		r.CarriedOver == nil && r.Encashed == nil && r.Remaining == nil {
		return validator.ValidationErrors{{Field: "body", Message: "at least one field must be supplied"}}
	}
	return nil
}

func (r *UpdateBalanceRequest) ToDelta() BalanceDelta {
	return BalanceDelta{
		BeginningBalance: r.BeginningBalance,
		Earned:           r.Earned,
		Used:             r.Used,
		CarriedOver:      r.CarriedOver,
		Encashed:         r.Encashed,
		Remaining:        r.Remaining,
	}
}

type BalanceFilter struct {
	EmployeeID      *int64
	LeaveTypeID     *int64
	Year            *string
	Status          *BalanceStatus
	IncludeArchived bool
	Page            int
	Limit           int
}

func (f *BalanceFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "status must be one of open, closed, reopened, finalized")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	return errs.Err()
}

type AdjustBalanceRequest struct {
	Days    decimal.Decimal `json:"days"`
	Remarks *string         `json:"remarks,omitempty"`
}

func (r *AdjustBalanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Days.IsZero() {
		errs.Add("days", "days must not be zero")
	}
	if !validator.HasMaxDecimalPlaces(r.Days, DayPrecision) {
		errs.Add("days", "days must have at most 2 decimal places")
	}
	return errs.Err()
}

type EncashBalanceRequest struct {
	Days    decimal.Decimal `json:"days"`
	Remarks *string         `json:"remarks,omitempty"`
}

func (r *EncashBalanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.Days.IsPositive() {
		errs.Add("days", "days must be greater than 0")
	}
	if !validator.HasMaxDecimalPlaces(r.Days, DayPrecision) {
		errs.Add("days", "days must have at most 2 decimal places")
	}
	return errs.Err()
}

type CarryOverRequest struct {
	TargetYear string  `json:"target_year"`
	Remarks    *string `json:"remarks,omitempty"`

	targetYear int
}

func (r *CarryOverRequest) Validate() error {
	year, ok := validator.IsValidYear(strings.TrimSpace(r.TargetYear))
	if !ok {
		return validator.ValidationErrors{{Field: "target_year", Message: "target_year must be a 4-digit year between 1900 and 2100"}}
	}
	r.targetYear = year
	return nil
}

func (r *CarryOverRequest) Year() int {
	return r.targetYear
}

// BalanceDetail is a balance with its reconciliation trail.
type BalanceDetail struct {
	Balance      LeaveBalance       `json:"balance"`
	Policy       *LeavePolicy       `json:"policy,omitempty"`
	Transactions []LeaveTransaction `json:"transactions"`
	Requests     []LeaveRequest     `json:"requests"`
}

// ---- Generation ----

type GenerateBalancesRequest struct {
	Year               string   `json:"year"`
	EmploymentTypes    []string `json:"employment_types"`
	EmploymentStatuses []string `json:"employment_statuses"`

	year int
}

func (r *GenerateBalancesRequest) Validate() error {
	year, ok := validator.IsValidYear(strings.TrimSpace(r.Year))
	if !ok {
		return ErrInvalidYear
	}
	r.year = year
	if len(compactStrings(r.EmploymentTypes)) == 0 || len(compactStrings(r.EmploymentStatuses)) == 0 {
		return ErrEmptyFilters
	}
	return nil
}

func (r *GenerateBalancesRequest) YearValue() int {
	return r.year
}

const (
	SkipReasonIneligible    = "ineligible"
	SkipReasonAlreadyExists = "already_exists"
	SkipReasonNotEffective  = "policy_not_effective"
)

type SkippedEmployee struct {
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	LeaveType    string `json:"leave_type"`
	Reason       string `json:"reason"`
	Details      string `json:"details,omitempty"`
}

type GenerateBalancesResult struct {
	RunID            string            `json:"run_id"`
	Year             string            `json:"year"`
	CreatedCount     int               `json:"created_count"`
	SkippedCount     int               `json:"skipped_count"`
	SkippedEmployees []SkippedEmployee `json:"skipped_employees"`
}

// ---- Request ----

type CreateLeaveRequestRequest struct {
	EmployeeID  int64           `json:"employee_id"`
	LeaveTypeID int64           `json:"leave_type_id"`
	BalanceID   int64           `json:"balance_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	TotalDays   decimal.Decimal `json:"total_days"`
	Reason      string          `json:"reason"`

	startDate time.Time
	endDate   time.Time
}

func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	r.startDate = parseRequiredDate(&errs, "start_date", r.StartDate)
	r.endDate = parseRequiredDate(&errs, "end_date", r.EndDate)
	return errs.Err()
}

func (r *CreateLeaveRequestRequest) ToParams() RequestParams {
	return RequestParams{
		EmployeeID:  r.EmployeeID,
		LeaveTypeID: r.LeaveTypeID,
		BalanceID:   r.BalanceID,
		StartDate:   r.startDate,
		EndDate:     r.endDate,
		TotalDays:   r.TotalDays,
		Reason:      r.Reason,
	}
}

type UpdateLeaveRequestRequest struct {
	StartDate *string          `json:"start_date,omitempty"`
	EndDate   *string          `json:"end_date,omitempty"`
	TotalDays *decimal.Decimal `json:"total_days,omitempty"`
	Reason    *string          `json:"reason,omitempty"`

	startDate *time.Time
	endDate   *time.Time
}

func (r *UpdateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	r.startDate = parseOptionalDate(&errs, "start_date", r.StartDate)
	r.endDate = parseOptionalDate(&errs, "end_date", r.EndDate)
	return errs.Err()
}

func (r *UpdateLeaveRequestRequest) ApplyTo(req LeaveRequest) LeaveRequest {
	if r.startDate != nil {
		req.StartDate = DateOnly(*r.startDate)
	}
	if r.endDate != nil {
		req.EndDate = DateOnly(*r.endDate)
	}
	if r.TotalDays != nil {
		req.TotalDays = *r.TotalDays
	}
	if r.Reason != nil {
		req.Reason = *r.Reason
	}
	return req
}

// ReviewLeaveRequestRequest drives approve, reject and cancel.
type ReviewLeaveRequestRequest struct {
	Status     RequestStatus `json:"status,omitempty"`
	ApproverID *int64        `json:"approver_id,omitempty"`
	Remarks    *string       `json:"remarks,omitempty"`
}

func (r *ReviewLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.ApproverID == nil || *r.ApproverID <= 0 {
		errs.Add("approver_id", "approver_id must be a positive integer")
	}
	if r.Remarks != nil && len(*r.Remarks) > 500 {
		errs.Add("remarks", "remarks must not exceed 500 characters")
	}
	return errs.Err()
}

// Event maps the target status onto its transition event.
func (r *ReviewLeaveRequestRequest) Event() (RequestEvent, error) {
	switch r.Status {
	case RequestStatusApproved:
		return RequestEventApprove, nil
	case RequestStatusRejected:
		return RequestEventReject, nil
	case RequestStatusCancelled:
		return RequestEventCancel, nil
	}
	return "", validator.ValidationErrors{{Field: "status", Message: "status must be one of approved, rejected, cancelled"}}
}

type LeaveRequestFilter struct {
	EmployeeID  *int64
	LeaveTypeID *int64
	BalanceID   *int64
	Status      *RequestStatus
	Page        int
	Limit       int
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "status must be one of pending, approved, rejected, cancelled")
	}
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	return errs.Err()
}

type OverlapQuery struct {
	EmployeeID int64
	StartDate  string
	EndDate    string
	ExcludeID  *int64

	startDate time.Time
	endDate   time.Time
}

func (q *OverlapQuery) Validate() error {
	var errs validator.ValidationErrors
	if q.EmployeeID <= 0 {
		errs.Add("employee_id", "employee_id is required")
	}
	q.startDate = parseRequiredDate(&errs, "start_date", q.StartDate)
	q.endDate = parseRequiredDate(&errs, "end_date", q.EndDate)
	if len(errs) == 0 && q.endDate.Before(q.startDate) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	return errs.Err()
}

func (q *OverlapQuery) Range() (time.Time, time.Time) {
	return q.startDate, q.endDate
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return compactStrings(in)
}

func nonNilInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
