package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/expense"
)

type PayrollService interface {
	// Salary heads
	CreateSalaryHead(ctx context.Context, companyID string, req CreateSalaryHeadRequest) (SalaryHead, error)
	GetSalaryHead(ctx context.Context, companyID string, id string) (SalaryHead, error)
	ListSalaryHeads(ctx context.Context, companyID string) ([]SalaryHead, error)
	UpdateSalaryHead(ctx context.Context, companyID string, req UpdateSalaryHeadRequest) (SalaryHead, error)
	DeleteSalaryHead(ctx context.Context, companyID string, id string) error

	// Tax brackets
	CreateTaxBracket(ctx context.Context, companyID string, req CreateTaxBracketRequest) (TaxBracket, error)
	ListTaxBrackets(ctx context.Context, companyID string) ([]TaxBracket, error)
	UpdateTaxBracket(ctx context.Context, companyID string, req UpdateTaxBracketRequest) (TaxBracket, error)
	DeleteTaxBracket(ctx context.Context, companyID string, id string) error

	// Pay profiles
	UpsertPayProfile(ctx context.Context, companyID string, req UpsertPayProfileRequest) (PayProfile, error)
	GetPayProfile(ctx context.Context, companyID string, employeeID string) (PayProfile, error)
	ListPayProfiles(ctx context.Context, companyID string) ([]PayProfile, error)
	DeletePayProfile(ctx context.Context, companyID string, employeeID string) error

	// Computation. Configuration failures of ComputeSalary are *EmployeeError.
	ComputeSalary(ctx context.Context, companyID string, employeeID string, period string) (SalaryRecord, error)
	RunPayroll(ctx context.Context, companyID string, period string) (RunSummary, error)

	// Ledger reads
	GetSalaryRecord(ctx context.Context, companyID string, id string) (SalaryRecord, error)
	ListSalaryRecords(ctx context.Context, companyID string, filter SalaryRecordFilter) ([]SalaryRecord, error)
	GetSalaryExpense(ctx context.Context, companyID string, period string) (expense.Expense, error)
}
