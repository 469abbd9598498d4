package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access.
type PayrollRepository interface {
	// Salary heads
	CreateSalaryHead(ctx context.Context, head SalaryHead) (SalaryHead, error)
	GetSalaryHeadByID(ctx context.Context, id string, companyID string) (SalaryHead, error)
	ListSalaryHeads(ctx context.Context, companyID string) ([]SalaryHead, error)
	UpdateSalaryHead(ctx context.Context, head SalaryHead) error
	DeleteSalaryHead(ctx context.Context, id string, companyID string) error

	// Tax brackets
	CreateTaxBracket(ctx context.Context, bracket TaxBracket) (TaxBracket, error)
	GetTaxBracketByID(ctx context.Context, id string, companyID string) (TaxBracket, error)
	ListTaxBrackets(ctx context.Context, companyID string) ([]TaxBracket, error)
	// ListTaxBracketsEffectiveAt returns every bracket row with effective_from <= date.
	ListTaxBracketsEffectiveAt(ctx context.Context, companyID string, date time.Time) ([]TaxBracket, error)
	UpdateTaxBracket(ctx context.Context, bracket TaxBracket) error
	DeleteTaxBracket(ctx context.Context, id string, companyID string) error

	// Pay profiles
	UpsertPayProfile(ctx context.Context, profile PayProfile) (PayProfile, error)
	GetPayProfile(ctx context.Context, companyID string, employeeID string) (PayProfile, error)
	// ListPayProfiles orders by employee name and fills EmployeeName.
	ListPayProfiles(ctx context.Context, companyID string) ([]PayProfile, error)
	DeletePayProfile(ctx context.Context, companyID string, employeeID string) error

	// Salary records (ledger)
	SalaryRecordExists(ctx context.Context, companyID string, employeeID string, period string) (bool, error)
	CreateSalaryRecord(ctx context.Context, record SalaryRecord) (SalaryRecord, error)
	GetSalaryRecordByID(ctx context.Context, id string, companyID string) (SalaryRecord, error)
	ListSalaryRecords(ctx context.Context, companyID string, filter SalaryRecordFilter) ([]SalaryRecord, error)
	SumGrossSalary(ctx context.Context, companyID string, period string) (decimal.Decimal, error)
}

// Transactor runs fn in one database transaction. Repositories called with the
// context handed to fn take part in it. A non-empty lockKey serialises
// concurrent callers using the same key.
type Transactor interface {
	WithinTransaction(ctx context.Context, lockKey string, fn func(ctx context.Context) error) error
}
