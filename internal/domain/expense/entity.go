package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseType string

const TypeSalary ExpenseType = "Salary"

// Expense is an entry of the company expense ledger. Salary expenses are
// keyed by (company, type, period) and overwritten on every payroll run.
type Expense struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	Title       string          `json:"title"`
	Type        ExpenseType     `json:"type"`
	Period      string          `json:"period"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SalaryTitle builds the ledger title for a period label such as "October 2026".
func SalaryTitle(periodLabel string) string {
	return "Salary Expense - " + periodLabel
}
