package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type HeadKind string

const (
	HeadKindEarning   HeadKind = "earning"
	HeadKindDeduction HeadKind = "deduction"
)

func (k HeadKind) IsValid() bool {
	return k == HeadKindEarning || k == HeadKindDeduction
}

// BasisShortName is the conventional short name of the Basic Salary head.
// A head created with it is flagged as the basis head automatically.
const BasisShortName = "BS"

// SalaryHead is a company-scoped earning or deduction line item definition.
type SalaryHead struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	ShortName   string    `json:"short_name"`
	Kind        HeadKind  `json:"kind"`
	IsBasisHead bool      `json:"is_basis_head"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Allocation assigns either a fixed amount or a percentage of the basic
// salary to one head.
type Allocation struct {
	HeadID      string           `json:"head_id"`
	FixedAmount *decimal.Decimal `json:"fixed_amount,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
}

// PayProfile is the single active pay composition of an employee.
type PayProfile struct {
	ID            string       `json:"id"`
	CompanyID     string       `json:"company_id"`
	EmployeeID    string       `json:"employee_id"`
	EffectiveFrom time.Time    `json:"effective_from"`
	TaxApplicable bool         `json:"tax_applicable"`
	Allocations   []Allocation `json:"allocations"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// Populated by ListPayProfiles only.
	EmployeeName string `json:"employee_name,omitempty"`
}

// TaxBracket is one band of an annual progressive tax table. A nil MaxIncome
// means the band is unbounded. Rate is a percentage.
type TaxBracket struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id"`
	MinIncome     decimal.Decimal  `json:"min_income"`
	MaxIncome     *decimal.Decimal `json:"max_income,omitempty"`
	Rate          decimal.Decimal  `json:"rate"`
	EffectiveFrom time.Time        `json:"effective_from"`
	Description   *string          `json:"description,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type LineItem struct {
	Title     string          `json:"title"`
	ShortName string          `json:"short_name"`
	Amount    decimal.Decimal `json:"amount"`
}

// SalaryRecord is an immutable snapshot of one employee's pay for one period.
type SalaryRecord struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	EmployeeID      string          `json:"employee_id"`
	Period          string          `json:"period"`
	Earnings        []LineItem      `json:"earnings"`
	Deductions      []LineItem      `json:"deductions"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	CreatedAt       time.Time       `json:"created_at"`

	// Populated on reads only.
	EmployeeName string `json:"employee_name,omitempty"`
}
