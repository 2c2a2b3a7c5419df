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

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const balanceColumns = `
	id, employee_id, leave_type_id, policy_id, year,
	beginning_balance, earned, used, carried_over, encashed, remaining,
	last_transaction_date, status, archived_at, archived_by,
	created_at, updated_at
`

func scanBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.PolicyID, &b.Year,
		&b.BeginningBalance, &b.Earned, &b.Used, &b.CarriedOver, &b.Encashed, &b.Remaining,
		&b.LastTransactionDate, &b.Status, &b.ArchivedAt, &b.ArchivedBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *leaveBalanceRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	b, err := scanBalance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			employee_id, leave_type_id, policy_id, year,
			beginning_balance, earned, used, carried_over, encashed, remaining,
			last_transaction_date, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		balance.EmployeeID, balance.LeaveTypeID, balance.PolicyID, balance.Year,
		balance.BeginningBalance, balance.Earned, balance.Used, balance.CarriedOver, balance.Encashed, balance.Remaining,
		balance.LastTransactionDate, balance.Status,
	).Scan(&balance.ID, &balance.CreatedAt, &balance.UpdatedAt)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgUniqueViolation:
			return leave.LeaveBalance{}, leave.ErrBalanceExists
		case pgForeignKeyViolation:
			return leave.LeaveBalance{}, leave.ErrReferenceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}

	return balance, nil
}

// BulkCreate implements leave.LeaveBalanceRepository.
// Existing (employee, leave type, year) rows are left untouched and not returned.
func (r *leaveBalanceRepositoryImpl) BulkCreate(ctx context.Context, balances []leave.LeaveBalance) ([]leave.LeaveBalance, error) {
	if len(balances) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			employee_id, leave_type_id, policy_id, year,
			beginning_balance, earned, used, carried_over, encashed, remaining, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	batch := &pgx.Batch{}
	for _, b := range balances {
		batch.Queue(query,
			b.EmployeeID, b.LeaveTypeID, b.PolicyID, b.Year,
			b.BeginningBalance, b.Earned, b.Used, b.CarriedOver, b.Encashed, b.Remaining, b.Status,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	created := make([]leave.LeaveBalance, 0, len(balances))
	for _, b := range balances {
		err := results.QueryRow().Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to bulk create leave balances: %w", err)
		}
		created = append(created, b)
	}

	return created, nil
}

// GetByID implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByID(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	return r.getOne(ctx, `SELECT `+balanceColumns+` FROM leave_balances WHERE id = $1`, id)
}

// GetByIDForUpdate implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (leave.LeaveBalance, error) {
	return r.getOne(ctx, `SELECT `+balanceColumns+` FROM leave_balances WHERE id = $1 FOR UPDATE`, id)
}

// FindByEmployeeTypeYearForUpdate implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) FindByEmployeeTypeYearForUpdate(ctx context.Context, employeeID, leaveTypeID int64, year string) (*leave.LeaveBalance, error) {
	b, err := r.getOne(ctx, `
		SELECT `+balanceColumns+` FROM leave_balances
		WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
		FOR UPDATE`, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, leave.ErrBalanceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// List implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) List(ctx context.Context, filter leave.BalanceFilter) ([]leave.LeaveBalance, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.LeaveTypeID != nil {
		conditions = append(conditions, fmt.Sprintf("leave_type_id = $%d", argIdx))
		args = append(args, *filter.LeaveTypeID)
		argIdx++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM leave_balances`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave balances: %w", err)
	}

	query := `SELECT ` + balanceColumns + ` FROM leave_balances` + where +
		fmt.Sprintf(" ORDER BY year DESC, employee_id, leave_type_id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return balances, total, nil
}

// Update implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Update(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances SET
			beginning_balance = $1, earned = $2, used = $3, carried_over = $4, encashed = $5, remaining = $6,
			last_transaction_date = $7, updated_at = NOW()
		WHERE id = $8 AND archived_at IS NULL
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		balance.BeginningBalance, balance.Earned, balance.Used, balance.CarriedOver, balance.Encashed, balance.Remaining,
		balance.LastTransactionDate, balance.ID,
	).Scan(&balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, fmt.Errorf("update leave balance %d: %w", balance.ID, leave.ErrWriteNotApplied)
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to update leave balance: %w", err)
	}

	return balance, nil
}

// UpdateStatus implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) UpdateStatus(ctx context.Context, id int64, from, to leave.BalanceStatus) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE leave_balances
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND archived_at IS NULL
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update leave balance status: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return fmt.Errorf("update leave balance %d status: %w", id, leave.ErrWriteNotApplied)
	}
	return nil
}

// SetArchived implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) SetArchived(ctx context.Context, id int64, archivedAt *time.Time, archivedBy *int64) error {
	q := GetQuerier(ctx, r.db)

	var query string
	if archivedAt != nil {
		query = `UPDATE leave_balances SET archived_at = $1, archived_by = $2, updated_at = NOW() WHERE id = $3 AND archived_at IS NULL`
	} else {
		query = `UPDATE leave_balances SET archived_at = $1, archived_by = $2, updated_at = NOW() WHERE id = $3 AND archived_at IS NOT NULL`
	}

	commandTag, err := q.Exec(ctx, query, archivedAt, archivedBy, id)
	if err != nil {
		return fmt.Errorf("failed to archive leave balance: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return fmt.Errorf("archive leave balance %d: %w", id, leave.ErrWriteNotApplied)
	}
	return nil
}
