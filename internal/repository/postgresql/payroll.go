package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// mapHeadConflict translates salary_heads constraint violations.
func mapHeadConflict(err error) error {
	switch {
	case isUniqueViolation(err, "uk_salary_heads_company_short_name"):
		return payroll.ErrSalaryHeadShortNameExists
	case isUniqueViolation(err, "uk_salary_heads_company_basis"):
		return payroll.ErrBasisHeadExists
	}
	return nil
}

// ========== SALARY HEADS ==========

const salaryHeadColumns = `id, company_id, title, short_name, kind, is_basis_head, created_at, updated_at`

func scanSalaryHead(row pgx.Row) (payroll.SalaryHead, error) {
	var h payroll.SalaryHead
	err := row.Scan(&h.ID, &h.CompanyID, &h.Title, &h.ShortName, &h.Kind, &h.IsBasisHead, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

func (r *payrollRepository) CreateSalaryHead(ctx context.Context, head payroll.SalaryHead) (payroll.SalaryHead, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_heads (company_id, title, short_name, kind, is_basis_head)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + salaryHeadColumns

	h, err := scanSalaryHead(q.QueryRow(ctx, query,
		head.CompanyID, head.Title, head.ShortName, head.Kind, head.IsBasisHead,
	))
	if err != nil {
		if mapped := mapHeadConflict(err); mapped != nil {
			return payroll.SalaryHead{}, mapped
		}
		return payroll.SalaryHead{}, fmt.Errorf("failed to create salary head: %w", err)
	}

	return h, nil
}

func (r *payrollRepository) GetSalaryHeadByID(ctx context.Context, id string, companyID string) (payroll.SalaryHead, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryHeadColumns + ` FROM salary_heads WHERE id = $1 AND company_id = $2`

	h, err := scanSalaryHead(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryHead{}, payroll.ErrSalaryHeadNotFound
		}
		return payroll.SalaryHead{}, fmt.Errorf("failed to get salary head: %w", err)
	}

	return h, nil
}

func (r *payrollRepository) ListSalaryHeads(ctx context.Context, companyID string) ([]payroll.SalaryHead, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + salaryHeadColumns + `
		FROM salary_heads
		WHERE company_id = $1
		ORDER BY is_basis_head DESC, kind, title
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary heads: %w", err)
	}
	defer rows.Close()

	heads := []payroll.SalaryHead{}
	for rows.Next() {
		h, err := scanSalaryHead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary head: %w", err)
		}
		heads = append(heads, h)
	}

	return heads, rows.Err()
}

func (r *payrollRepository) UpdateSalaryHead(ctx context.Context, head payroll.SalaryHead) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_heads
		SET title = $3, short_name = $4, kind = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`

	tag, err := q.Exec(ctx, query, head.ID, head.CompanyID, head.Title, head.ShortName, head.Kind)
	if err != nil {
		if mapped := mapHeadConflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update salary head: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSalaryHeadNotFound
	}

	return nil
}

func (r *payrollRepository) DeleteSalaryHead(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_heads WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete salary head: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSalaryHeadNotFound
	}

	return nil
}

// ========== TAX BRACKETS ==========

const taxBracketColumns = `id, company_id, min_income, max_income, rate, effective_from, description, created_at, updated_at`

func scanTaxBracket(row pgx.Row) (payroll.TaxBracket, error) {
	var b payroll.TaxBracket
	var maxIncome decimal.NullDecimal
	err := row.Scan(&b.ID, &b.CompanyID, &b.MinIncome, &maxIncome, &b.Rate, &b.EffectiveFrom, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	if maxIncome.Valid {
		b.MaxIncome = &maxIncome.Decimal
	}
	return b, err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *payrollRepository) CreateTaxBracket(ctx context.Context, bracket payroll.TaxBracket) (payroll.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tax_brackets (company_id, min_income, max_income, rate, effective_from, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taxBracketColumns

	b, err := scanTaxBracket(q.QueryRow(ctx, query,
		bracket.CompanyID, bracket.MinIncome, nullDecimal(bracket.MaxIncome), bracket.Rate,
		bracket.EffectiveFrom, bracket.Description,
	))
	if err != nil {
		return payroll.TaxBracket{}, fmt.Errorf("failed to create tax bracket: %w", err)
	}

	return b, nil
}

func (r *payrollRepository) GetTaxBracketByID(ctx context.Context, id string, companyID string) (payroll.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taxBracketColumns + ` FROM tax_brackets WHERE id = $1 AND company_id = $2`

	b, err := scanTaxBracket(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.TaxBracket{}, payroll.ErrTaxBracketNotFound
		}
		return payroll.TaxBracket{}, fmt.Errorf("failed to get tax bracket: %w", err)
	}

	return b, nil
}

func (r *payrollRepository) listTaxBrackets(ctx context.Context, query string, args ...interface{}) ([]payroll.TaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax brackets: %w", err)
	}
	defer rows.Close()

	brackets := []payroll.TaxBracket{}
	for rows.Next() {
		b, err := scanTaxBracket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax bracket: %w", err)
		}
		brackets = append(brackets, b)
	}

	return brackets, rows.Err()
}

func (r *payrollRepository) ListTaxBrackets(ctx context.Context, companyID string) ([]payroll.TaxBracket, error) {
	query := `
		SELECT ` + taxBracketColumns + `
		FROM tax_brackets
		WHERE company_id = $1
		ORDER BY effective_from DESC, min_income
	`
	return r.listTaxBrackets(ctx, query, companyID)
}

func (r *payrollRepository) ListTaxBracketsEffectiveAt(ctx context.Context, companyID string, date time.Time) ([]payroll.TaxBracket, error) {
	query := `
		SELECT ` + taxBracketColumns + `
		FROM tax_brackets
		WHERE company_id = $1 AND effective_from <= $2
		ORDER BY effective_from DESC, min_income
	`
	return r.listTaxBrackets(ctx, query, companyID, date)
}

func (r *payrollRepository) UpdateTaxBracket(ctx context.Context, bracket payroll.TaxBracket) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE tax_brackets
		SET min_income = $3, max_income = $4, rate = $5, effective_from = $6, description = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`

	tag, err := q.Exec(ctx, query,
		bracket.ID, bracket.CompanyID, bracket.MinIncome, nullDecimal(bracket.MaxIncome), bracket.Rate,
		bracket.EffectiveFrom, bracket.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update tax bracket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrTaxBracketNotFound
	}

	return nil
}

func (r *payrollRepository) DeleteTaxBracket(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM tax_brackets WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete tax bracket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrTaxBracketNotFound
	}

	return nil
}

// ========== PAY PROFILES ==========

func (r *payrollRepository) UpsertPayProfile(ctx context.Context, profile payroll.PayProfile) (payroll.PayProfile, error) {
	q := GetQuerier(ctx, r.db)

	allocations, err := json.Marshal(profile.Allocations)
	if err != nil {
		return payroll.PayProfile{}, fmt.Errorf("failed to marshal allocations: %w", err)
	}

	query := `
		INSERT INTO pay_profiles (company_id, employee_id, effective_from, tax_applicable, allocations)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, employee_id) DO UPDATE SET
			effective_from = EXCLUDED.effective_from,
			tax_applicable = EXCLUDED.tax_applicable,
			allocations = EXCLUDED.allocations,
			updated_at = NOW()
		RETURNING id, company_id, employee_id, effective_from, tax_applicable, allocations, created_at, updated_at
	`

	p, err := scanPayProfile(q.QueryRow(ctx, query,
		profile.CompanyID, profile.EmployeeID, profile.EffectiveFrom, profile.TaxApplicable, allocations,
	))
	if err != nil {
		return payroll.PayProfile{}, fmt.Errorf("failed to upsert pay profile: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) GetPayProfile(ctx context.Context, companyID string, employeeID string) (payroll.PayProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, effective_from, tax_applicable, allocations, created_at, updated_at
		FROM pay_profiles
		WHERE company_id = $1 AND employee_id = $2
	`

	p, err := scanPayProfile(q.QueryRow(ctx, query, companyID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayProfile{}, payroll.ErrPayProfileNotFound
		}
		return payroll.PayProfile{}, fmt.Errorf("failed to get pay profile: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) ListPayProfiles(ctx context.Context, companyID string) ([]payroll.PayProfile, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT pp.id, pp.company_id, pp.employee_id, pp.effective_from, pp.tax_applicable, pp.allocations,
			pp.created_at, pp.updated_at, COALESCE(e.full_name, '')
		FROM pay_profiles pp
		LEFT JOIN employees e ON e.id = pp.employee_id
		WHERE pp.company_id = $1
		ORDER BY e.full_name, pp.employee_id
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay profiles: %w", err)
	}
	defer rows.Close()

	profiles := []payroll.PayProfile{}
	for rows.Next() {
		var p payroll.PayProfile
		var allocations []byte
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.EmployeeID, &p.EffectiveFrom, &p.TaxApplicable, &allocations,
			&p.CreatedAt, &p.UpdatedAt, &p.EmployeeName); err != nil {
			return nil, fmt.Errorf("failed to scan pay profile: %w", err)
		}
		if err := json.Unmarshal(allocations, &p.Allocations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allocations: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

func (r *payrollRepository) DeletePayProfile(ctx context.Context, companyID string, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM pay_profiles WHERE company_id = $1 AND employee_id = $2`, companyID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to delete pay profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayProfileNotFound
	}

	return nil
}

func scanPayProfile(row pgx.Row) (payroll.PayProfile, error) {
	var p payroll.PayProfile
	var allocations []byte
	if err := row.Scan(&p.ID, &p.CompanyID, &p.EmployeeID, &p.EffectiveFrom, &p.TaxApplicable, &allocations, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return payroll.PayProfile{}, err
	}
	if err := json.Unmarshal(allocations, &p.Allocations); err != nil {
		return payroll.PayProfile{}, fmt.Errorf("failed to unmarshal allocations: %w", err)
	}
	return p, nil
}

// ========== SALARY RECORDS ==========

func (r *payrollRepository) SalaryRecordExists(ctx context.Context, companyID string, employeeID string, period string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM salary_records
			WHERE company_id = $1 AND employee_id = $2 AND period = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, companyID, employeeID, period).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check salary record: %w", err)
	}

	return exists, nil
}

func (r *payrollRepository) CreateSalaryRecord(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	earnings, err := json.Marshal(record.Earnings)
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to marshal earnings: %w", err)
	}
	deductions, err := json.Marshal(record.Deductions)
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to marshal deductions: %w", err)
	}

	query := `
		INSERT INTO salary_records (
			company_id, employee_id, period, earnings, deductions,
			total_earnings, total_deductions, gross_salary, net_salary, tax_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = q.QueryRow(ctx, query,
		record.CompanyID, record.EmployeeID, record.Period, earnings, deductions,
		record.TotalEarnings, record.TotalDeductions, record.GrossSalary, record.NetSalary, record.TaxAmount,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "uk_salary_records_employee_period") {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordAlreadyExists
		}
		return payroll.SalaryRecord{}, fmt.Errorf("failed to create salary record: %w", err)
	}

	return record, nil
}

const salaryRecordSelect = `
	SELECT sr.id, sr.company_id, sr.employee_id, sr.period, sr.earnings, sr.deductions,
		   sr.total_earnings, sr.total_deductions, sr.gross_salary, sr.net_salary, sr.tax_amount,
		   sr.created_at, COALESCE(e.full_name, '')
	FROM salary_records sr
	LEFT JOIN employees e ON e.id = sr.employee_id
`

func scanSalaryRecord(row pgx.Row) (payroll.SalaryRecord, error) {
	var rec payroll.SalaryRecord
	var earnings, deductions []byte
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Period, &earnings, &deductions,
		&rec.TotalEarnings, &rec.TotalDeductions, &rec.GrossSalary, &rec.NetSalary, &rec.TaxAmount,
		&rec.CreatedAt, &rec.EmployeeName,
	)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}
	if err := json.Unmarshal(earnings, &rec.Earnings); err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to unmarshal earnings: %w", err)
	}
	if err := json.Unmarshal(deductions, &rec.Deductions); err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to unmarshal deductions: %w", err)
	}
	return rec, nil
}

func (r *payrollRepository) GetSalaryRecordByID(ctx context.Context, id string, companyID string) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := salaryRecordSelect + ` WHERE sr.id = $1 AND sr.company_id = $2`

	rec, err := scanSalaryRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, fmt.Errorf("failed to get salary record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) ListSalaryRecords(ctx context.Context, companyID string, filter payroll.SalaryRecordFilter) ([]payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{"sr.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sr.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Period != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("sr.period = $%d", argIdx))
		args = append(args, *filter.Period)
	}

	query := salaryRecordSelect + `
		WHERE ` + strings.Join(whereClauses, " AND ") + `
		ORDER BY sr.period DESC, e.full_name
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary records: %w", err)
	}
	defer rows.Close()

	records := []payroll.SalaryRecord{}
	for rows.Next() {
		rec, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *payrollRepository) SumGrossSalary(ctx context.Context, companyID string, period string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(gross_salary), 0)
		FROM salary_records
		WHERE company_id = $1 AND period = $2
	`

	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, companyID, period).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum gross salary: %w", err)
	}

	return total, nil
}
