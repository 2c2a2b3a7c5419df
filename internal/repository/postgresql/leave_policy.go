package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.LeavePolicyRepository {
	return &leavePolicyRepositoryImpl{db: db}
}

const policySelect = `
	SELECT p.id, p.leave_type_id, lt.name,
		   p.annual_entitlement, p.carry_limit, p.encash_limit, p.carried_over_years,
		   p.effective_date, p.expiry_date,
		   p.minimum_service_months, p.allowed_employment_types, p.allowed_employee_statuses, p.excluded_weekdays,
		   p.status, p.remarks, p.archived_at, p.archived_by,
		   p.created_at, p.updated_at
	FROM leave_policies p
	JOIN leave_types lt ON lt.id = p.leave_type_id
`

func scanPolicy(row pgx.Row) (leave.LeavePolicy, error) {
	var p leave.LeavePolicy
	err := row.Scan(
		&p.ID, &p.LeaveTypeID, &p.LeaveTypeName,
		&p.AnnualEntitlement, &p.CarryLimit, &p.EncashLimit, &p.CarriedOverYears,
		&p.EffectiveDate, &p.ExpiryDate,
		&p.MinimumServiceMonths, &p.AllowedEmploymentTypes, &p.AllowedEmployeeStatuses, &p.ExcludedWeekdays,
		&p.Status, &p.Remarks, &p.ArchivedAt, &p.ArchivedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *leavePolicyRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)
	p, err := scanPolicy(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePolicy{}, leave.ErrPolicyNotFound
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to get leave policy: %w", err)
	}
	return p, nil
}

// Create implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) Create(ctx context.Context, policy leave.LeavePolicy) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_policies (
			leave_type_id, annual_entitlement, carry_limit, encash_limit, carried_over_years,
			effective_date, expiry_date,
			minimum_service_months, allowed_employment_types, allowed_employee_statuses, excluded_weekdays,
			status, remarks
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		policy.LeaveTypeID, policy.AnnualEntitlement, policy.CarryLimit, policy.EncashLimit, policy.CarriedOverYears,
		policy.EffectiveDate, policy.ExpiryDate,
		policy.MinimumServiceMonths, policy.AllowedEmploymentTypes, policy.AllowedEmployeeStatuses, policy.ExcludedWeekdays,
		policy.Status, policy.Remarks,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return leave.LeavePolicy{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to create leave policy: %w", err)
	}

	return policy, nil
}

// GetByID implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByID(ctx context.Context, id int64) (leave.LeavePolicy, error) {
	return r.getOne(ctx, policySelect+` WHERE p.id = $1`, id)
}

// GetByIDForUpdate implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeavePolicy, error) {
	return r.getOne(ctx, policySelect+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

// GetActiveByLeaveTypeForUpdate implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) GetActiveByLeaveTypeForUpdate(ctx context.Context, leaveTypeID int64) (*leave.LeavePolicy, error) {
	p, err := r.getOne(ctx, policySelect+` WHERE p.leave_type_id = $1 AND p.status = $2 FOR UPDATE OF p`,
		leaveTypeID, leave.PolicyStatusActive)
	if err != nil {
		if errors.Is(err, leave.ErrPolicyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// RetrieveActivePolicies implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) RetrieveActivePolicies(ctx context.Context) ([]leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, policySelect+`
		WHERE p.status = $1 AND p.archived_at IS NULL
		ORDER BY p.leave_type_id`, leave.PolicyStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve active policies: %w", err)
	}
	defer rows.Close()

	var policies []leave.LeavePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// List implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) List(ctx context.Context, filter leave.PolicyFilter) ([]leave.LeavePolicy, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.LeaveTypeID != nil {
		conditions = append(conditions, fmt.Sprintf("p.leave_type_id = $%d", argIdx))
		args = append(args, *filter.LeaveTypeID)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "p.archived_at IS NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM leave_policies p` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave policies: %w", err)
	}

	query := policySelect + where + fmt.Sprintf(" ORDER BY p.id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave policies: %w", err)
	}
	defer rows.Close()

	var policies []leave.LeavePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return policies, total, nil
}

// Update implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) Update(ctx context.Context, policy leave.LeavePolicy, expected leave.PolicyStatus) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_policies SET
			annual_entitlement = $1, carry_limit = $2, encash_limit = $3, carried_over_years = $4,
			effective_date = $5, expiry_date = $6,
			minimum_service_months = $7, allowed_employment_types = $8, allowed_employee_statuses = $9,
			excluded_weekdays = $10, remarks = $11, updated_at = NOW()
		WHERE id = $12 AND status = $13 AND archived_at IS NULL
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		policy.AnnualEntitlement, policy.CarryLimit, policy.EncashLimit, policy.CarriedOverYears,
		policy.EffectiveDate, policy.ExpiryDate,
		policy.MinimumServiceMonths, policy.AllowedEmploymentTypes, policy.AllowedEmployeeStatuses,
		policy.ExcludedWeekdays, policy.Remarks,
		policy.ID, expected,
	).Scan(&policy.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePolicy{}, leave.ErrPolicyStale
		}
		return leave.LeavePolicy{}, fmt.Errorf("failed to update leave policy: %w", err)
	}

	return policy, nil
}

// UpdateStatus implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) UpdateStatus(ctx context.Context, id int64, from, to leave.PolicyStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_policies
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	commandTag, err := q.Exec(ctx, query, to, id, from)
	if err != nil {
		if code, constraint := pgErrorCode(err); code == pgUniqueViolation && constraint == "uq_leave_policies_active" {
			return leave.ErrActivePolicyExists
		}
		return fmt.Errorf("failed to update leave policy status: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrPolicyStale
	}
	return nil
}

// SetArchived implements leave.LeavePolicyRepository.
func (r *leavePolicyRepositoryImpl) SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error {
	q := GetQuerier(ctx, r.db)

	var query string
	if archivedAt != nil {
		query = `UPDATE leave_policies SET archived_at = $1, archived_by = $2, updated_at = NOW() WHERE id = $3 AND archived_at IS NULL`
	} else {
		query = `UPDATE leave_policies SET archived_at = $1, archived_by = $2, updated_at = NOW() WHERE id = $3 AND archived_at IS NOT NULL`
	}

	commandTag, err := q.Exec(ctx, query, archivedAt, archivedBy, id)
	if err != nil {
		return fmt.Errorf("failed to archive leave policy: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrPolicyStale
	}
	return nil
}
