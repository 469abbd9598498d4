package expense

import "context"

type ExpenseRepository interface {
	FindSalaryExpense(ctx context.Context, companyID string, period string) (Expense, error)
	// UpsertSalaryExpense creates the salary entry for (company, period) or
	// overwrites the amount and title of the existing one.
	UpsertSalaryExpense(ctx context.Context, e Expense) (Expense, error)
}
