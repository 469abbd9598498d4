package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/expense"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type expenseRepository struct {
	db *database.DB
}

func NewExpenseRepository(db *database.DB) expense.ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, company_id, title, expense_type, period, amount, expense_date, created_at, updated_at`

func scanExpense(row pgx.Row) (expense.Expense, error) {
	var e expense.Expense
	err := row.Scan(&e.ID, &e.CompanyID, &e.Title, &e.Type, &e.Period, &e.Amount, &e.ExpenseDate, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *expenseRepository) FindSalaryExpense(ctx context.Context, companyID string, period string) (expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE company_id = $1 AND expense_type = $2 AND period = $3
	`

	e, err := scanExpense(q.QueryRow(ctx, query, companyID, expense.TypeSalary, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expense.Expense{}, expense.ErrExpenseNotFound
		}
		return expense.Expense{}, fmt.Errorf("failed to get salary expense: %w", err)
	}

	return e, nil
}

func (r *expenseRepository) UpsertSalaryExpense(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO expenses (company_id, title, expense_type, period, amount, expense_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, expense_type, period) DO UPDATE SET
			title = EXCLUDED.title,
			amount = EXCLUDED.amount,
			updated_at = NOW()
		RETURNING ` + expenseColumns

	saved, err := scanExpense(q.QueryRow(ctx, query,
		e.CompanyID, e.Title, expense.TypeSalary, e.Period, e.Amount, e.ExpenseDate,
	))
	if err != nil {
		return expense.Expense{}, fmt.Errorf("failed to upsert salary expense: %w", err)
	}

	return saved, nil
}
