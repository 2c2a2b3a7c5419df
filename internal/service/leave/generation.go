package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
	"github.com/google/uuid"
)

type balanceKey struct {
	employeeID  int64
	leaveTypeID int64
}

type candidate struct {
	balance  leave.LeaveBalance
	employee employee.EligibleEmployee
	policy   leave.LeavePolicy
}

// GenerateBalancesForAllEmployees implements leave.LeaveService. Every eligible
// employee gets one balance per active policy covering the year. Pairs that
// already have a balance are skipped, so reruns create nothing new. Ineligible
// pairs and policies outside the year are reported, not raised, so every
// employee and policy pair ends up either created or skipped. The batch
// commits as a whole or not at all.
func (l *LeaveServiceImpl) GenerateBalancesForAllEmployees(ctx context.Context, req leave.GenerateBalancesRequest, actorID *int64) (leave.GenerateBalancesResult, error) {
	if err := req.Validate(); err != nil {
		return leave.GenerateBalancesResult{}, err
	}
	year := req.YearValue()
	yearLabel := strconv.Itoa(year)

	result := leave.GenerateBalancesResult{
		RunID:            uuid.NewString(),
		Year:             yearLabel,
		SkippedEmployees: []leave.SkippedEmployee{},
	}

	err := l.transactor.WithinTransaction(ctx, actionGenerateBalances, func(ctx context.Context) error {
		employees, err := l.EmployeeRepository.GetEmployeesEligibleForLeave(ctx, employee.EligibilityFilter{
			EmploymentTypes:    req.EmploymentTypes,
			EmploymentStatuses: req.EmploymentStatuses,
		})
		if err != nil {
			return fmt.Errorf("failed to get employees eligible for leave: %w", err)
		}

		policies, err := l.LeavePolicyRepository.RetrieveActivePolicies(ctx)
		if err != nil {
			return fmt.Errorf("failed to retrieve active policies: %w", err)
		}

		skipped := make([]leave.SkippedEmployee, 0)
		candidates := make([]candidate, 0, len(employees)*len(policies))

		for _, emp := range employees {
			for _, policy := range policies {
				if !policy.CoversYear(year) {
					skipped = append(skipped, leave.SkippedEmployee{
						EmployeeID:   emp.ID,
						EmployeeName: emp.FullName(),
						LeaveType:    policy.LeaveTypeName,
						Reason:       leave.SkipReasonNotEffective,
						Details:      policyWindow(policy, yearLabel),
					})
					continue
				}

				eligibility := l.eligibility.Evaluate(emp, policy, year)
				if !eligibility.Eligible {
					slog.Debug("Employee not eligible for leave policy",
						"employee_id", emp.ID,
						"leave_type_id", policy.LeaveTypeID,
						"reason", eligibility.Details,
					)
					skipped = append(skipped, leave.SkippedEmployee{
						EmployeeID:   emp.ID,
						EmployeeName: emp.FullName(),
						LeaveType:    policy.LeaveTypeName,
						Reason:       leave.SkipReasonIneligible,
						Details:      eligibility.Details,
					})
					continue
				}

				balance, err := leave.NewLeaveBalance(leave.BalanceParams{
					EmployeeID:  emp.ID,
					LeaveTypeID: policy.LeaveTypeID,
					PolicyID:    policy.ID,
					Year:        yearLabel,
					Earned:      policy.AnnualEntitlement,
				})
				if err != nil {
					return fmt.Errorf("failed to build balance for employee %d, policy %d: %w", emp.ID, policy.ID, err)
				}
				candidates = append(candidates, candidate{balance: balance, employee: emp, policy: policy})
			}
		}

		balances := make([]leave.LeaveBalance, len(candidates))
		for i, c := range candidates {
			balances[i] = c.balance
		}
		created, err := l.LeaveBalanceRepository.BulkCreate(ctx, balances)
		if err != nil {
			return fmt.Errorf("failed to bulk create leave balances: %w", err)
		}

		createdKeys := make(map[balanceKey]bool, len(created))
		for _, b := range created {
			createdKeys[balanceKey{b.EmployeeID, b.LeaveTypeID}] = true
		}
		for _, c := range candidates {
			if createdKeys[balanceKey{c.balance.EmployeeID, c.balance.LeaveTypeID}] {
				continue
			}
			skipped = append(skipped, leave.SkippedEmployee{
				EmployeeID:   c.employee.ID,
				EmployeeName: c.employee.FullName(),
				LeaveType:    c.policy.LeaveTypeName,
				Reason:       leave.SkipReasonAlreadyExists,
				Details:      fmt.Sprintf("balance for %s already exists", yearLabel),
			})
		}

		result.CreatedCount = len(created)
		result.SkippedCount = len(skipped)
		result.SkippedEmployees = skipped

		return l.record(ctx, actorID, actionGenerateBalances, activitylog.EntityBalanceRun, 0, map[string]interface{}{
			"run_id":        result.RunID,
			"year":          yearLabel,
			"created_count": result.CreatedCount,
			"skipped_count": result.SkippedCount,
		})
	})
	if err != nil {
		slog.Error("Leave balance generation failed", "run_id", result.RunID, "year", yearLabel, "error", err)
		return leave.GenerateBalancesResult{}, err
	}

	slog.Info("Leave balances generated",
		"run_id", result.RunID,
		"year", yearLabel,
		"created_count", result.CreatedCount,
		"skipped_count", result.SkippedCount,
	)
	return result, nil
}

func policyWindow(policy leave.LeavePolicy, year string) string {
	from, to := "open", "open"
	if policy.EffectiveDate != nil {
		from = policy.EffectiveDate.Format("2006-01-02")
	}
	if policy.ExpiryDate != nil {
		to = policy.ExpiryDate.Format("2006-01-02")
	}
	return fmt.Sprintf("policy effective %s to %s does not cover %s", from, to, year)
}
