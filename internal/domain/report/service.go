package report

import "context"

// ReportService defines the payroll aggregation queries
type ReportService interface {
	GetOverview(ctx context.Context, companyID string, period *string) (PayrollOverviewResponse, error)
	GetTotalDistribution(ctx context.Context, companyID string, period string) (TotalDistributionResponse, error)
	GetDepartmentDistribution(ctx context.Context, companyID string, period *string) ([]DepartmentPayrollRow, error)
	// GetHighestPaidDepartment returns nil when the company has no salary records.
	GetHighestPaidDepartment(ctx context.Context, companyID string, period *string) (*DepartmentPayrollRow, error)
	// GetPayrollTrend returns the last 6 months including the current one, or
	// the 12 months of year when it is given. Months without records are zero.
	GetPayrollTrend(ctx context.Context, companyID string, year *int) ([]TrendPoint, error)
	GetBranchPayroll(ctx context.Context, companyID string, period *string) ([]BranchPayrollRow, error)
	GetAverageNetSalary(ctx context.Context, companyID string, period *string) (AverageSalaryResponse, error)
}

// CacheInvalidator drops cached aggregates of a company after the ledger changes.
type CacheInvalidator interface {
	InvalidateCompany(ctx context.Context, companyID string) error
}
