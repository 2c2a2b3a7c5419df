package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/domain/leave"
)

const JobGenerateLeaveBalances = "generate_leave_balances"

// BalanceGenerator is the slice of leave.LeaveService the jobs need.
type BalanceGenerator interface {
	GenerateBalancesForAllEmployees(ctx context.Context, req leave.GenerateBalancesRequest, actorID *int64) (leave.GenerateBalancesResult, error)
}

// LeaveJobSettings configures balance generation. Schedule, a cron
// expression, wins over Interval when both are set.
type LeaveJobSettings struct {
	Interval           time.Duration
	Schedule           string
	EmploymentTypes    []string
	EmploymentStatuses []string
}

type LeaveJobs struct {
	generator BalanceGenerator
	settings  LeaveJobSettings
	now       func() time.Time
}

func NewLeaveJobs(generator BalanceGenerator, settings LeaveJobSettings) *LeaveJobs {
	return &LeaveJobs{
		generator: generator,
		settings:  settings,
		now:       time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) error {
	if j.settings.Schedule != "" {
		return scheduler.AddScheduledJob(JobGenerateLeaveBalances, j.settings.Schedule, j.GenerateLeaveBalances)
	}
	scheduler.AddJob(JobGenerateLeaveBalances, j.settings.Interval, j.GenerateLeaveBalances)
	return nil
}

// GenerateLeaveBalances creates the current year's balances. Existing
// balances are skipped, so every tick after the first is a no-op.
func (j *LeaveJobs) GenerateLeaveBalances(ctx context.Context) error {
	year := strconv.Itoa(j.now().UTC().Year())

	result, err := j.generator.GenerateBalancesForAllEmployees(ctx, leave.GenerateBalancesRequest{
		Year:               year,
		EmploymentTypes:    j.settings.EmploymentTypes,
		EmploymentStatuses: j.settings.EmploymentStatuses,
	}, nil)
	if err != nil {
		return fmt.Errorf("generate leave balances for %s: %w", year, err)
	}

	slog.Info("Cron: leave balances generated",
		"run_id", result.RunID,
		"correlation_id", activitylog.CorrelationID(ctx),
		"year", result.Year,
		"created_count", result.CreatedCount,
		"skipped_count", result.SkippedCount,
	)
	return nil
}
