package payroll

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ========== SALARY HEAD DTOs ==========

type CreateSalaryHeadRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	ShortName   string `json:"short_name" validate:"required,max=20"`
	Kind        string `json:"kind" validate:"required,oneof=earning deduction"`
	IsBasisHead bool   `json:"is_basis_head"`
}

func (r *CreateSalaryHeadRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.ShortName = strings.ToUpper(strings.TrimSpace(r.ShortName))

	errs := validator.Struct(r)
	if r.ShortName == BasisShortName {
		r.IsBasisHead = true
	}
	if r.IsBasisHead && r.Kind != "" && HeadKind(r.Kind) != HeadKindEarning {
		errs.Add("kind", ErrBasisHeadMustBeEarning.Error())
	}
	return errs.Err()
}

type UpdateSalaryHeadRequest struct {
	ID        string  `json:"-"`
	Title     *string `json:"title,omitempty" validate:"omitempty,max=100"`
	ShortName *string `json:"short_name,omitempty" validate:"omitempty,max=20"`
	Kind      *string `json:"kind,omitempty" validate:"omitempty,oneof=earning deduction"`
}

func (r *UpdateSalaryHeadRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "is required")
	}
	if r.Title != nil && validator.IsEmpty(*r.Title) {
		errs.Add("title", "cannot be empty")
	}
	if r.ShortName != nil {
		sn := strings.ToUpper(strings.TrimSpace(*r.ShortName))
		if sn == "" {
			errs.Add("short_name", "cannot be empty")
		}
		r.ShortName = &sn
	}
	return errs.Err()
}

// ========== TAX BRACKET DTOs ==========

type CreateTaxBracketRequest struct {
	MinIncome     decimal.Decimal  `json:"min_income"`
	MaxIncome     *decimal.Decimal `json:"max_income,omitempty"`
	Rate          decimal.Decimal  `json:"rate"`
	EffectiveFrom string           `json:"effective_from" validate:"required,datetime=2006-01-02"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=255"`
}

func (r *CreateTaxBracketRequest) Validate() error {
	errs := validator.Struct(r)
	validateBracketRange(&errs, r.MinIncome, r.MaxIncome, r.Rate)
	return errs.Err()
}

type UpdateTaxBracketRequest struct {
	ID            string           `json:"-"`
	MinIncome     decimal.Decimal  `json:"min_income"`
	MaxIncome     *decimal.Decimal `json:"max_income,omitempty"`
	Rate          decimal.Decimal  `json:"rate"`
	EffectiveFrom string           `json:"effective_from" validate:"required,datetime=2006-01-02"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=255"`
}

func (r *UpdateTaxBracketRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "is required")
	}
	validateBracketRange(&errs, r.MinIncome, r.MaxIncome, r.Rate)
	return errs.Err()
}

func validateBracketRange(errs *validator.ValidationErrors, minIncome decimal.Decimal, maxIncome *decimal.Decimal, rate decimal.Decimal) {
	if minIncome.IsNegative() {
		errs.Add("min_income", "must be non-negative")
	}
	if maxIncome != nil && maxIncome.LessThanOrEqual(minIncome) {
		errs.Add("max_income", "must be greater than min_income")
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		errs.Add("rate", "must be between 0 and 100")
	}
}

// ========== PAY PROFILE DTOs ==========

type AllocationRequest struct {
	HeadID      string           `json:"head_id" validate:"required"`
	FixedAmount *decimal.Decimal `json:"fixed_amount,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
}

type UpsertPayProfileRequest struct {
	EmployeeID    string              `json:"-"`
	EffectiveFrom string              `json:"effective_from" validate:"required,datetime=2006-01-02"`
	TaxApplicable bool                `json:"tax_applicable"`
	Allocations   []AllocationRequest `json:"allocations" validate:"required,min=1,dive"`
}

func (r *UpsertPayProfileRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "is required")
	}

	seen := make(map[string]bool, len(r.Allocations))
	for i, a := range r.Allocations {
		field := fmt.Sprintf("allocations[%d]", i)
		switch {
		case a.FixedAmount == nil && a.Percentage == nil:
			errs.Add(field, "either fixed_amount or percentage is required")
		case a.FixedAmount != nil && a.Percentage != nil:
			errs.Add(field, "fixed_amount and percentage are mutually exclusive")
		case a.FixedAmount != nil && a.FixedAmount.IsNegative():
			errs.Add(field+".fixed_amount", "must be non-negative")
		case a.Percentage != nil && a.Percentage.IsNegative():
			errs.Add(field+".percentage", "must be non-negative")
		}
		if a.HeadID != "" && seen[a.HeadID] {
			errs.Add(field+".head_id", "salary head is allocated more than once")
		}
		seen[a.HeadID] = true
	}
	return errs.Err()
}

// ========== SALARY RECORD DTOs ==========

type ComputeSalaryRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Period     string `json:"period" validate:"required"`
}

func (r *ComputeSalaryRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Period != "" {
		if _, err := ParsePeriod(r.Period); err != nil {
			errs.Add("period", "must be in YYYY-MM format")
		}
	}
	return errs.Err()
}

type RunPayrollRequest struct {
	Period string `json:"period" validate:"required"`
}

func (r *RunPayrollRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Period != "" {
		if _, err := ParsePeriod(r.Period); err != nil {
			errs.Add("period", "must be in YYYY-MM format")
		}
	}
	return errs.Err()
}

type SalaryRecordFilter struct {
	EmployeeID *string
	Period     *string
}

func (f *SalaryRecordFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs.Add("employee_id", "must be a valid UUID")
	}
	if f.Period != nil {
		if _, err := ParsePeriod(*f.Period); err != nil {
			errs.Add("period", "must be in YYYY-MM format")
		}
	}
	return errs.Err()
}

// RunError reports one employee the payroll run could not process.
type RunError struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Reason       string `json:"reason"`
}

type RunSummary struct {
	CompanyID        string          `json:"company_id"`
	Period           string          `json:"period"`
	ProcessedCount   int             `json:"processed_count"`
	SkippedCount     int             `json:"skipped_count"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	Errors           []RunError      `json:"errors"`
}
