package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/expense"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	expenseRepo  expense.ExpenseRepository
	transactor   payroll.Transactor
	activities   activity.Recorder
	reportCache  report.CacheInvalidator
	calculator   *Calculator
}

func NewPayrollService(
	transactor payroll.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	expenseRepo expense.ExpenseRepository,
	activities activity.Recorder,
	reportCache report.CacheInvalidator,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		transactor:   transactor,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		expenseRepo:  expenseRepo,
		activities:   activities,
		reportCache:  reportCache,
		calculator:   NewCalculator(),
	}
}

// requireEmployee checks that employeeID belongs to the company.
func (s *PayrollServiceImpl) requireEmployee(ctx context.Context, companyID string, employeeID string) error {
	if _, err := s.employeeRepo.GetEmployee(ctx, companyID, employeeID); err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	return nil
}

func requireCompany(companyID string) error {
	if validator.IsEmpty(companyID) {
		return payroll.ErrCompanyIDRequired
	}
	return nil
}

// ========== SALARY HEADS ==========

func (s *PayrollServiceImpl) CreateSalaryHead(ctx context.Context, companyID string, req payroll.CreateSalaryHeadRequest) (payroll.SalaryHead, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.SalaryHead{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryHead{}, err
	}

	head, err := s.payrollRepo.CreateSalaryHead(ctx, payroll.SalaryHead{
		CompanyID:   companyID,
		Title:       req.Title,
		ShortName:   req.ShortName,
		Kind:        payroll.HeadKind(req.Kind),
		IsBasisHead: req.IsBasisHead,
	})
	if err != nil {
		return payroll.SalaryHead{}, fmt.Errorf("failed to create salary head: %w", err)
	}
	return head, nil
}

func (s *PayrollServiceImpl) GetSalaryHead(ctx context.Context, companyID string, id string) (payroll.SalaryHead, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.SalaryHead{}, err
	}
	return s.payrollRepo.GetSalaryHeadByID(ctx, id, companyID)
}

func (s *PayrollServiceImpl) ListSalaryHeads(ctx context.Context, companyID string) ([]payroll.SalaryHead, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	return s.payrollRepo.ListSalaryHeads(ctx, companyID)
}

func (s *PayrollServiceImpl) UpdateSalaryHead(ctx context.Context, companyID string, req payroll.UpdateSalaryHeadRequest) (payroll.SalaryHead, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.SalaryHead{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryHead{}, err
	}

	head, err := s.payrollRepo.GetSalaryHeadByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.SalaryHead{}, err
	}

	if req.Title != nil {
		head.Title = *req.Title
	}
	if req.ShortName != nil {
		head.ShortName = *req.ShortName
	}
	if req.Kind != nil {
		head.Kind = payroll.HeadKind(*req.Kind)
	}
	if head.IsBasisHead && head.Kind != payroll.HeadKindEarning {
		return payroll.SalaryHead{}, payroll.ErrBasisHeadMustBeEarning
	}

	if err := s.payrollRepo.UpdateSalaryHead(ctx, head); err != nil {
		return payroll.SalaryHead{}, fmt.Errorf("failed to update salary head: %w", err)
	}
	return s.payrollRepo.GetSalaryHeadByID(ctx, head.ID, companyID)
}

func (s *PayrollServiceImpl) DeleteSalaryHead(ctx context.Context, companyID string, id string) error {
	if err := requireCompany(companyID); err != nil {
		return err
	}
	return s.payrollRepo.DeleteSalaryHead(ctx, id, companyID)
}

// ========== TAX BRACKETS ==========

func (s *PayrollServiceImpl) CreateTaxBracket(ctx context.Context, companyID string, req payroll.CreateTaxBracketRequest) (payroll.TaxBracket, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.TaxBracket{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.TaxBracket{}, err
	}

	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)
	bracket, err := s.payrollRepo.CreateTaxBracket(ctx, payroll.TaxBracket{
		CompanyID:     companyID,
		MinIncome:     req.MinIncome,
		MaxIncome:     req.MaxIncome,
		Rate:          req.Rate,
		EffectiveFrom: effectiveFrom,
		Description:   req.Description,
	})
	if err != nil {
		return payroll.TaxBracket{}, fmt.Errorf("failed to create tax bracket: %w", err)
	}
	return bracket, nil
}

func (s *PayrollServiceImpl) ListTaxBrackets(ctx context.Context, companyID string) ([]payroll.TaxBracket, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	return s.payrollRepo.ListTaxBrackets(ctx, companyID)
}

func (s *PayrollServiceImpl) UpdateTaxBracket(ctx context.Context, companyID string, req payroll.UpdateTaxBracketRequest) (payroll.TaxBracket, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.TaxBracket{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.TaxBracket{}, err
	}

	bracket, err := s.payrollRepo.GetTaxBracketByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.TaxBracket{}, err
	}

	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)
	bracket.MinIncome = req.MinIncome
	bracket.MaxIncome = req.MaxIncome
	bracket.Rate = req.Rate
	bracket.EffectiveFrom = effectiveFrom
	bracket.Description = req.Description

	if err := s.payrollRepo.UpdateTaxBracket(ctx, bracket); err != nil {
		return payroll.TaxBracket{}, fmt.Errorf("failed to update tax bracket: %w", err)
	}
	return s.payrollRepo.GetTaxBracketByID(ctx, bracket.ID, companyID)
}

func (s *PayrollServiceImpl) DeleteTaxBracket(ctx context.Context, companyID string, id string) error {
	if err := requireCompany(companyID); err != nil {
		return err
	}
	return s.payrollRepo.DeleteTaxBracket(ctx, id, companyID)
}

// ========== PAY PROFILES ==========

func (s *PayrollServiceImpl) UpsertPayProfile(ctx context.Context, companyID string, req payroll.UpsertPayProfileRequest) (payroll.PayProfile, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.PayProfile{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.PayProfile{}, err
	}
	if err := s.requireEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return payroll.PayProfile{}, err
	}

	heads, err := s.headIndex(ctx, companyID)
	if err != nil {
		return payroll.PayProfile{}, err
	}

	var errs validator.ValidationErrors
	allocations := make([]payroll.Allocation, 0, len(req.Allocations))
	for i, a := range req.Allocations {
		head, ok := heads[a.HeadID]
		if !ok {
			errs.Add(fmt.Sprintf("allocations[%d].head_id", i), payroll.ErrSalaryHeadNotFound.Error())
			continue
		}
		if head.IsBasisHead && a.FixedAmount == nil {
			errs.Add(fmt.Sprintf("allocations[%d].fixed_amount", i), "basic salary requires a fixed amount")
		}
		allocations = append(allocations, payroll.Allocation{
			HeadID:      a.HeadID,
			FixedAmount: a.FixedAmount,
			Percentage:  a.Percentage,
		})
	}
	if len(errs) > 0 {
		return payroll.PayProfile{}, errs
	}

	effectiveFrom, _ := validator.IsValidDate(req.EffectiveFrom)
	profile, err := s.payrollRepo.UpsertPayProfile(ctx, payroll.PayProfile{
		CompanyID:     companyID,
		EmployeeID:    req.EmployeeID,
		EffectiveFrom: effectiveFrom,
		TaxApplicable: req.TaxApplicable,
		Allocations:   allocations,
	})
	if err != nil {
		return payroll.PayProfile{}, fmt.Errorf("failed to save pay profile: %w", err)
	}
	return profile, nil
}

func (s *PayrollServiceImpl) GetPayProfile(ctx context.Context, companyID string, employeeID string) (payroll.PayProfile, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.PayProfile{}, err
	}
	return s.payrollRepo.GetPayProfile(ctx, companyID, employeeID)
}

// ListPayProfiles returns every pay profile of the company with the employee name.
func (s *PayrollServiceImpl) ListPayProfiles(ctx context.Context, companyID string) ([]payroll.PayProfile, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	return s.payrollRepo.ListPayProfiles(ctx, companyID)
}

func (s *PayrollServiceImpl) DeletePayProfile(ctx context.Context, companyID string, employeeID string) error {
	if err := requireCompany(companyID); err != nil {
		return err
	}
	if validator.IsEmpty(employeeID) {
		return payroll.ErrEmployeeIDRequired
	}
	return s.payrollRepo.DeletePayProfile(ctx, companyID, employeeID)
}

// ========== COMPUTATION ==========

// computeInputs caches the company-wide inputs of a computation so a payroll
// run reads them once.
type computeInputs struct {
	heads    map[string]payroll.SalaryHead
	brackets []payroll.TaxBracket
}

func (s *PayrollServiceImpl) loadInputs(ctx context.Context, companyID string, period payroll.Period) (*computeInputs, error) {
	heads, err := s.headIndex(ctx, companyID)
	if err != nil {
		return nil, err
	}
	brackets, err := s.payrollRepo.ListTaxBracketsEffectiveAt(ctx, companyID, period.StartDate())
	if err != nil {
		return nil, fmt.Errorf("failed to load tax brackets: %w", err)
	}
	return &computeInputs{heads: heads, brackets: brackets}, nil
}

func (s *PayrollServiceImpl) headIndex(ctx context.Context, companyID string) (map[string]payroll.SalaryHead, error) {
	heads, err := s.payrollRepo.ListSalaryHeads(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load salary heads: %w", err)
	}
	index := make(map[string]payroll.SalaryHead, len(heads))
	for _, h := range heads {
		index[h.ID] = h
	}
	return index, nil
}

// computeSalary creates the salary record of one employee. The existence
// check is a fast path; the ledger's unique constraint is authoritative.
func (s *PayrollServiceImpl) computeSalary(ctx context.Context, companyID, employeeID string, period payroll.Period, inputs *computeInputs) (payroll.SalaryRecord, error) {
	exists, err := s.payrollRepo.SalaryRecordExists(ctx, companyID, employeeID, period.String())
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to check salary record: %w", err)
	}
	if exists {
		return payroll.SalaryRecord{}, payroll.ErrSalaryRecordAlreadyExists
	}

	profile, err := s.payrollRepo.GetPayProfile(ctx, companyID, employeeID)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	if inputs == nil {
		if inputs, err = s.loadInputs(ctx, companyID, period); err != nil {
			return payroll.SalaryRecord{}, err
		}
	}

	record, err := s.calculator.Compute(profile, inputs.heads, inputs.brackets, period)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	created, err := s.payrollRepo.CreateSalaryRecord(ctx, record)
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryRecordAlreadyExists) {
			return payroll.SalaryRecord{}, err
		}
		return payroll.SalaryRecord{}, fmt.Errorf("failed to create salary record: %w", err)
	}
	return created, nil
}

func (s *PayrollServiceImpl) ComputeSalary(ctx context.Context, companyID string, employeeID string, period string) (payroll.SalaryRecord, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.SalaryRecord{}, err
	}
	if validator.IsEmpty(employeeID) {
		return payroll.SalaryRecord{}, payroll.ErrEmployeeIDRequired
	}
	p, err := payroll.ParsePeriod(period)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}
	if err := s.requireEmployee(ctx, companyID, employeeID); err != nil {
		return payroll.SalaryRecord{}, err
	}

	record, err := s.computeSalary(ctx, companyID, employeeID, p, nil)
	if err != nil {
		if payroll.KindOf(err) == payroll.KindConfiguration {
			return payroll.SalaryRecord{}, &payroll.EmployeeError{EmployeeID: employeeID, Err: err}
		}
		return payroll.SalaryRecord{}, err
	}

	s.invalidateReports(ctx, companyID)
	s.activities.Record(ctx, activity.Activity{
		CompanyID:   companyID,
		Type:        activity.TypeSalaryGeneration,
		Title:       "Salary Generated",
		Description: fmt.Sprintf("Salary generated for employee %s for %s", employeeID, p.Label()),
		Metadata: map[string]interface{}{
			"employee_id":  employeeID,
			"period":       p.String(),
			"gross_salary": record.GrossSalary.StringFixed(2),
			"net_salary":   record.NetSalary.StringFixed(2),
		},
	})

	return record, nil
}

// RunPayroll computes the salary of every employee of the company for period.
// Employees are processed one at a time; a failure for one employee is
// recorded in the summary and the run continues. Only roster loading and the
// expense ledger write fail the run.
func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, companyID string, period string) (payroll.RunSummary, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.RunSummary{}, err
	}
	p, err := payroll.ParsePeriod(period)
	if err != nil {
		return payroll.RunSummary{}, err
	}

	summary := payroll.RunSummary{
		CompanyID:        companyID,
		Period:           p.String(),
		TotalGrossSalary: decimal.Zero,
		Errors:           []payroll.RunError{},
	}

	employees, err := s.employeeRepo.ListEmployees(ctx, companyID, employee.RoleEmployee)
	if err != nil {
		return summary, fmt.Errorf("failed to load employees: %w", err)
	}

	start := time.Now()
	var inputs *computeInputs
	for _, emp := range employees {
		if inputs == nil {
			inputs, err = s.loadInputs(ctx, companyID, p)
			if err != nil {
				slog.Error("Payroll run failed to load inputs", "company_id", companyID, "employee_id", emp.ID, "error", err)
				summary.SkippedCount++
				summary.Errors = append(summary.Errors, payroll.RunError{EmployeeID: emp.ID, EmployeeName: emp.FullName, Reason: payroll.RunErrorReason(err)})
				continue
			}
		}

		record, err := s.computeSalary(ctx, companyID, emp.ID, p, inputs)
		switch {
		case err == nil:
			summary.ProcessedCount++
			summary.TotalGrossSalary = summary.TotalGrossSalary.Add(record.GrossSalary)
		case errors.Is(err, payroll.ErrSalaryRecordAlreadyExists):
			summary.SkippedCount++
		default:
			if payroll.KindOf(err) != payroll.KindConfiguration {
				slog.Error("Payroll run failed for employee", "company_id", companyID, "employee_id", emp.ID, "period", p.String(), "error", err)
			}
			summary.SkippedCount++
			summary.Errors = append(summary.Errors, payroll.RunError{
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName,
				Reason:       payroll.RunErrorReason(err),
			})
		}
	}

	if summary.TotalGrossSalary.IsPositive() {
		if err := s.syncSalaryExpense(ctx, companyID, p); err != nil {
			return summary, err
		}
	}

	if summary.ProcessedCount > 0 {
		s.invalidateReports(ctx, companyID)
	}

	slog.Info("Payroll run completed",
		"company_id", companyID,
		"period", p.String(),
		"processed", summary.ProcessedCount,
		"skipped", summary.SkippedCount,
		"errors", len(summary.Errors),
		"duration", time.Since(start),
	)

	s.activities.Record(ctx, activity.Activity{
		CompanyID: companyID,
		Type:      activity.TypePayrollRun,
		Title:     "Salary Slips Generated",
		Description: fmt.Sprintf("Salary slips generated for all employees for %s (Processed: %d, Skipped: %d)",
			p.Label(), summary.ProcessedCount, summary.SkippedCount),
		Metadata: map[string]interface{}{
			"period":             p.String(),
			"processed_count":    summary.ProcessedCount,
			"skipped_count":      summary.SkippedCount,
			"total_gross_salary": summary.TotalGrossSalary.StringFixed(2),
		},
	})

	return summary, nil
}

// syncSalaryExpense overwrites the period's salary expense with the ledger
// total for the period. Concurrent runs of the same period are serialised so
// the last writer always stores a total that includes every earlier insert.
func (s *PayrollServiceImpl) syncSalaryExpense(ctx context.Context, companyID string, p payroll.Period) error {
	lockKey := "salary-expense:" + companyID + ":" + p.String()
	return s.transactor.WithinTransaction(ctx, lockKey, func(ctx context.Context) error {
		total, err := s.payrollRepo.SumGrossSalary(ctx, companyID, p.String())
		if err != nil {
			return fmt.Errorf("failed to total salary records: %w", err)
		}

		_, err = s.expenseRepo.UpsertSalaryExpense(ctx, expense.Expense{
			CompanyID:   companyID,
			Title:       expense.SalaryTitle(p.Label()),
			Type:        expense.TypeSalary,
			Period:      p.String(),
			Amount:      total.Round(2),
			ExpenseDate: p.StartDate(),
		})
		if err != nil {
			return fmt.Errorf("failed to upsert salary expense: %w", err)
		}
		return nil
	})
}

func (s *PayrollServiceImpl) invalidateReports(ctx context.Context, companyID string) {
	if s.reportCache == nil {
		return
	}
	if err := s.reportCache.InvalidateCompany(ctx, companyID); err != nil {
		slog.Warn("Failed to invalidate payroll report cache", "company_id", companyID, "error", err)
	}
}

// ========== LEDGER READS ==========

func (s *PayrollServiceImpl) GetSalaryRecord(ctx context.Context, companyID string, id string) (payroll.SalaryRecord, error) {
	if err := requireCompany(companyID); err != nil {
		return payroll.SalaryRecord{}, err
	}
	return s.payrollRepo.GetSalaryRecordByID(ctx, id, companyID)
}

func (s *PayrollServiceImpl) ListSalaryRecords(ctx context.Context, companyID string, filter payroll.SalaryRecordFilter) ([]payroll.SalaryRecord, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.payrollRepo.ListSalaryRecords(ctx, companyID, filter)
}

func (s *PayrollServiceImpl) GetSalaryExpense(ctx context.Context, companyID string, period string) (expense.Expense, error) {
	if err := requireCompany(companyID); err != nil {
		return expense.Expense{}, err
	}
	p, err := payroll.ParsePeriod(period)
	if err != nil {
		return expense.Expense{}, err
	}
	return s.expenseRepo.FindSalaryExpense(ctx, companyID, p.String())
}
