package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
)

var ErrEmployeeNotFound = apperror.New(apperror.KindNotFound, "EMPLOYEE_NOT_FOUND", "employee not found")

type EmployeeRepository interface {
	GetEmployeesEligibleForLeave(ctx context.Context, filter EligibilityFilter) ([]EligibleEmployee, error)
	// LockForLeave holds the employee row until the surrounding transaction
	// ends, serialising leave decisions for that employee.
	LockForLeave(ctx context.Context, employeeID int64) error
}
