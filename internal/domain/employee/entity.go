package employee

import (
	"strings"
	"time"
)

// EligibleEmployee is the slice of employee master data the leave engine reads.
type EligibleEmployee struct {
	ID               int64
	FirstName        string
	LastName         string
	EmploymentType   string
	EmploymentStatus string
	HireDate         time.Time
}

func (e EligibleEmployee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// EligibilityFilter narrows the population considered for balance generation.
// Matching is case-insensitive.
type EligibilityFilter struct {
	EmploymentTypes    []string
	EmploymentStatuses []string
}
