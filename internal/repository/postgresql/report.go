package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type reportRepositoryImpl struct {
	db *database.DB
}

func NewReportRepository(db *database.DB) report.ReportRepository {
	return &reportRepositoryImpl{db: db}
}

// GetDepartmentDistribution groups gross salary by department. Employees
// without a department fall into an "Unassigned" row with a nil id.
func (r *reportRepositoryImpl) GetDepartmentDistribution(ctx context.Context, companyID string, period *string) ([]report.DepartmentPayrollRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			d.id,
			COALESCE(d.name, 'Unassigned') AS department_name,
			COALESCE(SUM(sr.gross_salary), 0) AS total_gross_salary,
			COUNT(DISTINCT sr.employee_id) AS employee_count
		FROM salary_records sr
		JOIN employees e ON e.id = sr.employee_id
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE sr.company_id = $1
			AND ($2::text IS NULL OR sr.period = $2)
		GROUP BY d.id, d.name
		ORDER BY total_gross_salary DESC, department_name
	`

	rows, err := q.Query(ctx, query, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get department distribution: %w", err)
	}
	defer rows.Close()

	result := []report.DepartmentPayrollRow{}
	for rows.Next() {
		var row report.DepartmentPayrollRow
		if err := rows.Scan(&row.DepartmentID, &row.DepartmentName, &row.TotalGrossSalary, &row.EmployeeCount); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func (r *reportRepositoryImpl) GetBranchPayroll(ctx context.Context, companyID string, period *string) ([]report.BranchPayrollRow, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			b.id,
			COALESCE(b.name, 'Unassigned') AS branch_name,
			COALESCE(SUM(sr.net_salary), 0) AS total_net_salary,
			COUNT(DISTINCT sr.employee_id) AS employee_count
		FROM salary_records sr
		JOIN employees e ON e.id = sr.employee_id
		LEFT JOIN branches b ON b.id = e.branch_id
		WHERE sr.company_id = $1
			AND ($2::text IS NULL OR sr.period = $2)
		GROUP BY b.id, b.name
		ORDER BY total_net_salary DESC, branch_name
	`

	rows, err := q.Query(ctx, query, companyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch payroll: %w", err)
	}
	defer rows.Close()

	result := []report.BranchPayrollRow{}
	for rows.Next() {
		var row report.BranchPayrollRow
		if err := rows.Scan(&row.BranchID, &row.BranchName, &row.TotalNetSalary, &row.EmployeeCount); err != nil {
			return nil, fmt.Errorf("failed to scan branch row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func (r *reportRepositoryImpl) GetPeriodTotals(ctx context.Context, companyID string, periods []string) ([]report.PeriodTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			period,
			COALESCE(SUM(gross_salary), 0),
			COALESCE(SUM(total_deductions), 0),
			COALESCE(SUM(tax_amount), 0),
			COALESCE(SUM(net_salary), 0),
			COUNT(*)
		FROM salary_records
		WHERE company_id = $1 AND period = ANY($2)
		GROUP BY period
		ORDER BY period
	`

	rows, err := q.Query(ctx, query, companyID, periods)
	if err != nil {
		return nil, fmt.Errorf("failed to get period totals: %w", err)
	}
	defer rows.Close()

	result := []report.PeriodTotals{}
	for rows.Next() {
		var t report.PeriodTotals
		if err := rows.Scan(&t.Period, &t.TotalGrossSalary, &t.TotalDeductions, &t.TotalTax, &t.TotalNetSalary, &t.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan period totals: %w", err)
		}
		result = append(result, t)
	}

	return result, rows.Err()
}

func (r *reportRepositoryImpl) GetAverageNetSalary(ctx context.Context, companyID string, period *string) (report.AverageSalaryResponse, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(ROUND(AVG(net_salary), 2), 0), COUNT(*)
		FROM salary_records
		WHERE company_id = $1
			AND ($2::text IS NULL OR period = $2)
	`

	result := report.AverageSalaryResponse{Period: period}
	if err := q.QueryRow(ctx, query, companyID, period).Scan(&result.AverageNetSalary, &result.RecordCount); err != nil {
		return report.AverageSalaryResponse{}, fmt.Errorf("failed to get average net salary: %w", err)
	}

	return result, nil
}
