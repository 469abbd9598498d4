package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/expense"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
		return
	case errors.Is(err, auth.ErrCompanyIDRequired),
		errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, err.Error())
		return
	case errors.Is(err, auth.ErrRateLimited):
		TooManyRequests(w, err.Error())
		return

	// Report and activity errors
	case errors.Is(err, report.ErrInvalidPeriod),
		errors.Is(err, report.ErrInvalidYear):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	case errors.Is(err, activity.ErrCompanyIDRequired):
		Forbidden(w, err.Error())
		return
	case errors.Is(err, expense.ErrExpenseNotFound):
		NotFound(w, "Salary expense not found")
		return
	}

	// Payroll errors
	switch payroll.KindOf(err) {
	case payroll.KindValidation:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	case payroll.KindConflict:
		Conflict(w, err.Error())
	case payroll.KindNotFound:
		NotFound(w, err.Error())
	case payroll.KindConfiguration:
		var details map[string]string
		var empErr *payroll.EmployeeError
		if errors.As(err, &empErr) {
			details = map[string]string{
				"employee_id": empErr.EmployeeID,
				"reason":      payroll.RunErrorReason(empErr.Err),
			}
		}
		writeError(w, http.StatusBadRequest, "CONFIGURATION_ERROR", err.Error(), details)
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
