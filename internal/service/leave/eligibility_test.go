package leave

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/stretchr/testify/assert"
)

func TestEligibilityCalculator_ServiceMonths(t *testing.T) {
	c := NewEligibilityCalculator()

	tests := []struct {
		name  string
		hired time.Time
		year  int
		want  int
	}{
		{"hired in July of the prior year", time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC), 2025, 6},
		{"hired on the last day of December", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), 2025, 13},
		{"hired on January 1st of the year", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 2025, 0},
		{"hired after the year starts", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 2025, 0},
		{"non UTC zone is normalised", time.Date(2024, time.January, 1, 2, 0, 0, 0, time.FixedZone("UTC+8", 8*3600)), 2025, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ServiceMonths(tt.hired, tt.year))
		})
	}
}

func TestEligibilityCalculator_Evaluate(t *testing.T) {
	c := NewEligibilityCalculator()
	twelve := 12
	policy := leave.LeavePolicy{
		AllowedEmploymentTypes:  []string{"Regular", "probationary"},
		AllowedEmployeeStatuses: []string{"active"},
		MinimumServiceMonths:    &twelve,
	}
	emp := employee.EligibleEmployee{
		ID:               1,
		EmploymentType:   " regular ",
		EmploymentStatus: "ACTIVE",
		HireDate:         time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, c.Evaluate(emp, policy, 2025).Eligible)

	t.Run("type is checked first", func(t *testing.T) {
		e := emp
		e.EmploymentType = "contractual"
		e.EmploymentStatus = "resigned"
		got := c.Evaluate(e, policy, 2025)
		assert.False(t, got.Eligible)
		assert.Equal(t, `employment type "contractual" not in [Regular, probationary]`, got.Details)
	})

	t.Run("status", func(t *testing.T) {
		e := emp
		e.EmploymentStatus = "resigned"
		got := c.Evaluate(e, policy, 2025)
		assert.False(t, got.Eligible)
		assert.Contains(t, got.Details, "resigned")
	})

	t.Run("tenure", func(t *testing.T) {
		e := emp
		e.HireDate = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
		got := c.Evaluate(e, policy, 2025)
		assert.False(t, got.Eligible)
		assert.Equal(t, "service of 7 months is below the required 12 months", got.Details)
	})

	t.Run("allowed values are trimmed", func(t *testing.T) {
		p := policy
		p.AllowedEmploymentTypes = []string{" PROBATIONARY "}
		e := emp
		e.EmploymentType = "Probationary"
		assert.True(t, c.Evaluate(e, p, 2025).Eligible)
	})

	t.Run("unrestricted policy", func(t *testing.T) {
		e := emp
		e.EmploymentType = "contractual"
		e.HireDate = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
		assert.True(t, c.Evaluate(e, leave.LeavePolicy{}, 2025).Eligible)
	})
}
