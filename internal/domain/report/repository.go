package report

import "context"

// ReportRepository reads aggregates from the salary ledger. A nil period
// aggregates across all periods.
type ReportRepository interface {
	GetDepartmentDistribution(ctx context.Context, companyID string, period *string) ([]DepartmentPayrollRow, error)
	GetBranchPayroll(ctx context.Context, companyID string, period *string) ([]BranchPayrollRow, error)
	// GetPeriodTotals returns one row per period that has records; periods
	// without records are absent.
	GetPeriodTotals(ctx context.Context, companyID string, periods []string) ([]PeriodTotals, error)
	GetAverageNetSalary(ctx context.Context, companyID string, period *string) (AverageSalaryResponse, error)
}
