package payroll

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

var (
	ErrCompanyIDRequired         = errors.New("company id is required")
	ErrEmployeeIDRequired        = errors.New("employee id is required")
	ErrPeriodRequired            = errors.New("period is required")
	ErrInvalidPeriod             = errors.New("invalid payroll period, expected YYYY-MM")
	ErrSalaryHeadNotFound        = errors.New("salary head not found")
	ErrSalaryHeadShortNameExists = errors.New("salary head short name already exists")
	ErrBasisHeadExists           = errors.New("company already has a basic salary head")
	ErrBasisHeadMustBeEarning    = errors.New("basic salary head must be an earning")
	ErrTaxBracketNotFound        = errors.New("tax bracket not found")
	ErrPayProfileNotFound        = errors.New("pay profile not found")
	ErrBasicSalaryNotConfigured  = errors.New("basic salary not configured")
	ErrUnknownSalaryHead         = errors.New("pay profile references an unknown salary head")
	ErrSalaryRecordAlreadyExists = errors.New("salary record already exists for this period")
	ErrSalaryRecordNotFound      = errors.New("salary record not found")
	ErrEmployeeNotFound          = errors.New("employee not found in this company")
)

// EmployeeError ties a computation failure to the employee it happened for.
type EmployeeError struct {
	EmployeeID string
	Err        error
}

func (e *EmployeeError) Error() string {
	return fmt.Sprintf("employee %s: %v", e.EmployeeID, e.Err)
}

func (e *EmployeeError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConflict      ErrorKind = "conflict"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindStorage       ErrorKind = "storage"
)

// KindOf classifies err. Anything not recognised is a storage failure.
func KindOf(err error) ErrorKind {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, ErrCompanyIDRequired),
		errors.Is(err, ErrEmployeeIDRequired),
		errors.Is(err, ErrPeriodRequired),
		errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrBasisHeadMustBeEarning):
		return KindValidation
	case errors.Is(err, ErrSalaryRecordAlreadyExists),
		errors.Is(err, ErrSalaryHeadShortNameExists),
		errors.Is(err, ErrBasisHeadExists):
		return KindConflict
	case errors.Is(err, ErrPayProfileNotFound),
		errors.Is(err, ErrBasicSalaryNotConfigured),
		errors.Is(err, ErrUnknownSalaryHead):
		return KindConfiguration
	case errors.Is(err, ErrSalaryHeadNotFound),
		errors.Is(err, ErrTaxBracketNotFound),
		errors.Is(err, ErrSalaryRecordNotFound),
		errors.Is(err, ErrEmployeeNotFound):
		return KindNotFound
	default:
		return KindStorage
	}
}

// RunErrorReason is the operator-facing reason reported for an employee
// skipped during a payroll run.
func RunErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrPayProfileNotFound):
		return "No salary settings found"
	case errors.Is(err, ErrBasicSalaryNotConfigured):
		return "Basic salary not configured"
	default:
		return err.Error()
	}
}
