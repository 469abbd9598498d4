package report

import "github.com/shopspring/decimal"

// ========== COMBINED OVERVIEW ==========

// PayrollOverviewResponse is the combined response for the payroll dashboard
type PayrollOverviewResponse struct {
	Period                 string                    `json:"period"`
	TotalDistribution      TotalDistributionResponse `json:"total_distribution"`
	AverageSalary          AverageSalaryResponse     `json:"average_salary"`
	DepartmentDistribution []DepartmentPayrollRow    `json:"department_distribution"`
	HighestPaidDepartment  *DepartmentPayrollRow     `json:"highest_paid_department"`
	Trend                  []TrendPoint              `json:"trend"`
}

// ========== TOTALS ==========

// TotalDistributionResponse sums every salary record of one period
type TotalDistributionResponse struct {
	Period           string          `json:"period"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	TotalNetSalary   decimal.Decimal `json:"total_net_salary"`
	RecordCount      int64           `json:"record_count"`
}

// ========== DEPARTMENTS ==========

type DepartmentPayrollRow struct {
	DepartmentID     *string         `json:"department_id"`
	DepartmentName   string          `json:"department_name"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	EmployeeCount    int64           `json:"employee_count"`
}

// ========== BRANCHES ==========

type BranchPayrollRow struct {
	BranchID       *string         `json:"branch_id"`
	BranchName     string          `json:"branch_name"`
	TotalNetSalary decimal.Decimal `json:"total_net_salary"`
	EmployeeCount  int64           `json:"employee_count"`
}

// ========== TREND ==========

type TrendPoint struct {
	Period           string          `json:"period"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	TotalTax         decimal.Decimal `json:"total_tax"`
}

// ========== AVERAGE ==========

type AverageSalaryResponse struct {
	Period           *string         `json:"period,omitempty"`
	AverageNetSalary decimal.Decimal `json:"average_net_salary"`
	RecordCount      int64           `json:"record_count"`
}

// PeriodTotals is the per-period aggregate read by trend and distribution queries
type PeriodTotals struct {
	Period           string
	TotalGrossSalary decimal.Decimal
	TotalDeductions  decimal.Decimal
	TotalTax         decimal.Decimal
	TotalNetSalary   decimal.Decimal
	RecordCount      int64
}
