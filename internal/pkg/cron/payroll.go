package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

// DefaultPayrollSchedule fires at 02:00 UTC on the first day of every month.
const DefaultPayrollSchedule = "0 2 1 * *"

type PayrollJobs struct {
	employeeRepo employee.EmployeeRepository
	payrollSvc   payroll.PayrollService
	now          func() time.Time
}

func NewPayrollJobs(employeeRepo employee.EmployeeRepository, payrollSvc payroll.PayrollService) *PayrollJobs {
	return &PayrollJobs{
		employeeRepo: employeeRepo,
		payrollSvc:   payrollSvc,
		now:          time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	if spec == "" {
		spec = DefaultPayrollSchedule
	}
	return scheduler.AddJob("run_previous_month_payroll", spec, j.RunPreviousMonth)
}

// RunPreviousMonth runs payroll for last month in every company. A failing
// company is logged and the remaining companies still run.
func (j *PayrollJobs) RunPreviousMonth(ctx context.Context) error {
	period := payroll.PeriodOf(j.now().UTC()).AddMonths(-1).String()

	companyIDs, err := j.employeeRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	slog.Info("Cron: Starting scheduled payroll run", "period", period, "companies", len(companyIDs))

	failed := 0
	for _, companyID := range companyIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		summary, err := j.payrollSvc.RunPayroll(ctx, companyID, period)
		if err != nil {
			failed++
			slog.Error("Cron: Payroll run failed", "company_id", companyID, "period", period, "error", err)
			continue
		}
		slog.Info("Cron: Payroll run completed",
			"company_id", companyID,
			"period", period,
			"processed", summary.ProcessedCount,
			"skipped", summary.SkippedCount,
			"total_gross_salary", summary.TotalGrossSalary.StringFixed(2),
		)
	}

	if failed > 0 {
		return fmt.Errorf("payroll run failed for %d of %d companies", failed, len(companyIDs))
	}
	return nil
}
