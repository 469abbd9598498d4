package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// Calculator turns a pay profile and a tax table into a salary record. It does
// no I/O.
type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute builds the salary record of profile for period. heads must contain
// every head the profile references, keyed by id. brackets is the company's
// bracket table as of the period start; it is ignored when the profile is not
// tax applicable.
func (c *Calculator) Compute(
	profile payroll.PayProfile,
	heads map[string]payroll.SalaryHead,
	brackets []payroll.TaxBracket,
	period payroll.Period,
) (payroll.SalaryRecord, error) {
	basic, err := c.basicSalary(profile, heads)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	earnings := make([]payroll.LineItem, 0, len(profile.Allocations))
	deductions := make([]payroll.LineItem, 0)
	totalEarnings := decimal.Zero
	totalDeductions := decimal.Zero

	for _, alloc := range profile.Allocations {
		head := heads[alloc.HeadID]
		item := payroll.LineItem{
			Title:     head.Title,
			ShortName: head.ShortName,
			Amount:    allocationAmount(alloc, basic),
		}

		switch head.Kind {
		case payroll.HeadKindDeduction:
			deductions = append(deductions, item)
			totalDeductions = totalDeductions.Add(item.Amount)
		default:
			earnings = append(earnings, item)
			totalEarnings = totalEarnings.Add(item.Amount)
		}
	}

	gross := totalEarnings
	tax := decimal.Zero
	if profile.TaxApplicable {
		effective := SelectEffectiveBrackets(brackets, period.StartDate())
		tax = c.MonthlyTax(effective, gross.Mul(monthsPerYear))
	}

	return payroll.SalaryRecord{
		CompanyID:       profile.CompanyID,
		EmployeeID:      profile.EmployeeID,
		Period:          period.String(),
		Earnings:        earnings,
		Deductions:      deductions,
		TotalEarnings:   totalEarnings.Round(2),
		TotalDeductions: totalDeductions.Round(2),
		GrossSalary:     gross.Round(2),
		TaxAmount:       tax,
		NetSalary:       gross.Sub(totalDeductions).Sub(tax).Round(2),
	}, nil
}

// basicSalary finds the basis allocation and validates every head reference.
func (c *Calculator) basicSalary(profile payroll.PayProfile, heads map[string]payroll.SalaryHead) (decimal.Decimal, error) {
	var basis *payroll.Allocation
	for i, alloc := range profile.Allocations {
		head, ok := heads[alloc.HeadID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", payroll.ErrUnknownSalaryHead, alloc.HeadID)
		}
		if head.IsBasisHead && basis == nil {
			basis = &profile.Allocations[i]
		}
	}

	if basis == nil || basis.FixedAmount == nil {
		return decimal.Zero, payroll.ErrBasicSalaryNotConfigured
	}
	return basis.FixedAmount.Round(2), nil
}

func allocationAmount(alloc payroll.Allocation, basic decimal.Decimal) decimal.Decimal {
	switch {
	case alloc.FixedAmount != nil:
		return alloc.FixedAmount.Round(2)
	case alloc.Percentage != nil:
		return alloc.Percentage.Div(hundred).Mul(basic).Round(2)
	default:
		return decimal.Zero
	}
}

// MonthlyTax applies brackets progressively to annualIncome and returns a
// twelfth of the annual tax, rounded to 2 decimals. Brackets must all belong
// to one effective version.
func (c *Calculator) MonthlyTax(brackets []payroll.TaxBracket, annualIncome decimal.Decimal) decimal.Decimal {
	if len(brackets) == 0 {
		return decimal.Zero
	}

	sorted := make([]payroll.TaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinIncome.LessThan(sorted[j].MinIncome)
	})

	annualTax := decimal.Zero
	for _, b := range sorted {
		if !annualIncome.GreaterThan(b.MinIncome) {
			continue
		}
		upper := annualIncome
		if b.MaxIncome != nil && b.MaxIncome.LessThan(upper) {
			upper = *b.MaxIncome
		}
		taxable := upper.Sub(b.MinIncome)
		if taxable.IsNegative() {
			continue
		}
		annualTax = annualTax.Add(taxable.Mul(b.Rate).Div(hundred))
	}

	return annualTax.Div(monthsPerYear).Round(2)
}

// SelectEffectiveBrackets keeps only the most recent bracket version in force
// at asOf: the rows whose effective date is the latest one not after asOf.
func SelectEffectiveBrackets(brackets []payroll.TaxBracket, asOf time.Time) []payroll.TaxBracket {
	var latest time.Time
	found := false
	for _, b := range brackets {
		if b.EffectiveFrom.After(asOf) {
			continue
		}
		if !found || b.EffectiveFrom.After(latest) {
			latest = b.EffectiveFrom
			found = true
		}
	}
	if !found {
		return nil
	}

	selected := make([]payroll.TaxBracket, 0, len(brackets))
	for _, b := range brackets {
		if b.EffectiveFrom.Equal(latest) {
			selected = append(selected, b)
		}
	}
	return selected
}
