package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

// Eligibility is the outcome of matching one employee against one policy.
type Eligibility struct {
	Eligible bool
	Details  string
}

type EligibilityCalculator struct {
}

func NewEligibilityCalculator() *EligibilityCalculator {
	return &EligibilityCalculator{}
}

// Evaluate checks employment type, employment status and tenure, in that order.
// The first failing check is reported.
func (c *EligibilityCalculator) Evaluate(emp employee.EligibleEmployee, policy leave.LeavePolicy, year int) Eligibility {
	// Check employment type
	if len(policy.AllowedEmploymentTypes) > 0 && !validator.ContainsFold(emp.EmploymentType, policy.AllowedEmploymentTypes) {
		return Eligibility{Details: fmt.Sprintf("employment type %q not in [%s]",
			emp.EmploymentType, strings.Join(policy.AllowedEmploymentTypes, ", "))}
	}

	// Check employment status
	if len(policy.AllowedEmployeeStatuses) > 0 && !validator.ContainsFold(emp.EmploymentStatus, policy.AllowedEmployeeStatuses) {
		return Eligibility{Details: fmt.Sprintf("employment status %q not in [%s]",
			emp.EmploymentStatus, strings.Join(policy.AllowedEmployeeStatuses, ", "))}
	}

	// Check minimum tenure
	if minimum := policy.MinimumService(); minimum > 0 {
		months := c.ServiceMonths(emp.HireDate, year)
		if months < minimum {
			return Eligibility{Details: fmt.Sprintf("service of %d months is below the required %d months", months, minimum)}
		}
	}

	return Eligibility{Eligible: true}
}

// ServiceMonths counts whole months from the hire month to January 1st of year, in UTC.
// Days of the month are ignored and the result is never negative.
func (c *EligibilityCalculator) ServiceMonths(hireDate time.Time, year int) int {
	hire := hireDate.UTC()
	months := year*12 - (hire.Year()*12 + int(hire.Month()) - 1)

	// Ensure non-negative
	if months < 0 {
		months = 0
	}
	return months
}
