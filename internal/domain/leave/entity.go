package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayPrecision is the number of fractional digits kept on every day quantity.
const DayPrecision int32 = 2

type PolicyStatus string

const (
	PolicyStatusDraft    PolicyStatus = "draft"
	PolicyStatusActive   PolicyStatus = "active"
	PolicyStatusInactive PolicyStatus = "inactive"
	PolicyStatusRetired  PolicyStatus = "retired"
)

type BalanceStatus string

const (
	BalanceStatusOpen      BalanceStatus = "open"
	BalanceStatusClosed    BalanceStatus = "closed"
	BalanceStatusReopened  BalanceStatus = "reopened"
	BalanceStatusFinalized BalanceStatus = "finalized"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

type TransactionType string

const (
	TransactionTypeUse        TransactionType = "use"
	TransactionTypeEarn       TransactionType = "earn"
	TransactionTypeEncashment TransactionType = "encashment"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeCarry      TransactionType = "carry"
)

// Timestamps are owned by the store and only ever filled from RETURNING or SELECT.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeavePolicy entity
type LeavePolicy struct {
	ID            int64  `json:"id"`
	LeaveTypeID   int64  `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name,omitempty"`

	// Entitlement Rules
	AnnualEntitlement decimal.Decimal `json:"annual_entitlement"`
	CarryLimit        decimal.Decimal `json:"carry_limit"`
	EncashLimit       decimal.Decimal `json:"encash_limit"`
	CarriedOverYears  int             `json:"carried_over_years"`

	// Validity Window
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	// Eligibility Rules (empty = unrestricted)
	MinimumServiceMonths    *int     `json:"minimum_service_months,omitempty"`
	AllowedEmploymentTypes  []string `json:"allowed_employment_types"`
	AllowedEmployeeStatuses []string `json:"allowed_employee_statuses"`
	ExcludedWeekdays        []int    `json:"excluded_weekdays"`

	Status  PolicyStatus `json:"status"`
	Remarks *string      `json:"remarks,omitempty"`

	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchivedBy *int64     `json:"archived_by,omitempty"`

	Timestamps
}

func (p LeavePolicy) IsArchived() bool {
	return p.ArchivedAt != nil
}

// LeaveBalance is the per employee, leave type and year ledger.
type LeaveBalance struct {
	ID          int64  `json:"id"`
	EmployeeID  int64  `json:"employee_id"`
	LeaveTypeID int64  `json:"leave_type_id"`
	PolicyID    int64  `json:"policy_id"`
	Year        string `json:"year"`

	BeginningBalance decimal.Decimal `json:"beginning_balance"`
	Earned           decimal.Decimal `json:"earned"`
	Used             decimal.Decimal `json:"used"`
	CarriedOver      decimal.Decimal `json:"carried_over"`
	Encashed         decimal.Decimal `json:"encashed"`
	Remaining        decimal.Decimal `json:"remaining"`

	LastTransactionDate *time.Time    `json:"last_transaction_date,omitempty"`
	Status              BalanceStatus `json:"status"`

	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	ArchivedBy *int64     `json:"archived_by,omitempty"`

	Timestamps
}

func (b LeaveBalance) IsArchived() bool {
	return b.ArchivedAt != nil
}

// LeaveRequest entity
type LeaveRequest struct {
	ID          int64 `json:"id"`
	EmployeeID  int64 `json:"employee_id"`
	LeaveTypeID int64 `json:"leave_type_id"`
	BalanceID   int64 `json:"balance_id"`

	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	TotalDays decimal.Decimal `json:"total_days"`
	Reason    string          `json:"reason"`

	Status       RequestStatus `json:"status"`
	ApprovalBy   *int64        `json:"approval_by,omitempty"`
	ApprovalDate *time.Time    `json:"approval_date,omitempty"`
	Remarks      *string       `json:"remarks,omitempty"`

	Timestamps
}

// LeaveTransaction is append-only. Days is signed: debits are negative.
type LeaveTransaction struct {
	ID        int64           `json:"id"`
	BalanceID int64           `json:"balance_id"`
	RequestID *int64          `json:"request_id,omitempty"`
	Type      TransactionType `json:"transaction_type"`
	Days      decimal.Decimal `json:"days"`
	Remarks   *string         `json:"remarks,omitempty"`
	CreatedBy *int64          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
