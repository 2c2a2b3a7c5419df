package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// GetEmployeesEligibleForLeave implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetEmployeesEligibleForLeave(ctx context.Context, filter employee.EligibilityFilter) ([]employee.EligibleEmployee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, first_name, last_name, employment_type, employment_status, hire_date
		FROM employees
		WHERE archived_at IS NULL
		  AND LOWER(employment_type) = ANY($1)
		  AND LOWER(employment_status) = ANY($2)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, lowerAll(filter.EmploymentTypes), lowerAll(filter.EmploymentStatuses))
	if err != nil {
		return nil, fmt.Errorf("failed to get employees eligible for leave: %w", err)
	}
	defer rows.Close()

	var employees []employee.EligibleEmployee
	for rows.Next() {
		var e employee.EligibleEmployee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.EmploymentType, &e.EmploymentStatus, &e.HireDate); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	return employees, rows.Err()
}

// LockForLeave implements employee.EmployeeRepository. It must run inside a
// transaction; outside one the lock is released as soon as the statement ends.
func (r *employeeRepositoryImpl) LockForLeave(ctx context.Context, employeeID int64) error {
	q := GetQuerier(ctx, r.db)

	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, employeeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to lock employee %d: %w", employeeID, err)
	}
	return nil
}
