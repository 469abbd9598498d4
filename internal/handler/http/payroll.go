package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Salary heads
	CreateSalaryHead(w http.ResponseWriter, r *http.Request)
	GetSalaryHead(w http.ResponseWriter, r *http.Request)
	ListSalaryHeads(w http.ResponseWriter, r *http.Request)
	UpdateSalaryHead(w http.ResponseWriter, r *http.Request)
	DeleteSalaryHead(w http.ResponseWriter, r *http.Request)

	// Tax brackets
	CreateTaxBracket(w http.ResponseWriter, r *http.Request)
	ListTaxBrackets(w http.ResponseWriter, r *http.Request)
	UpdateTaxBracket(w http.ResponseWriter, r *http.Request)
	DeleteTaxBracket(w http.ResponseWriter, r *http.Request)

	// Pay profiles
	ListPayProfiles(w http.ResponseWriter, r *http.Request)
	GetPayProfile(w http.ResponseWriter, r *http.Request)
	UpsertPayProfile(w http.ResponseWriter, r *http.Request)
	DeletePayProfile(w http.ResponseWriter, r *http.Request)

	// Salary records
	ComputeSalary(w http.ResponseWriter, r *http.Request)
	RunPayroll(w http.ResponseWriter, r *http.Request)
	GetSalaryRecord(w http.ResponseWriter, r *http.Request)
	ListSalaryRecords(w http.ResponseWriter, r *http.Request)

	// Expenses
	GetSalaryExpense(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// uuidParam returns the named URL parameter and whether it is a UUID. Ids
// that are not UUIDs cannot match any row.
func uuidParam(r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	return id, validator.IsValidUUID(id)
}

// ========== SALARY HEADS ==========

func (h *payrollHandlerImpl) CreateSalaryHead(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateSalaryHeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateSalaryHead(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary head created", result)
}

func (h *payrollHandlerImpl) GetSalaryHead(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrSalaryHeadNotFound)
		return
	}

	result, err := h.payrollService.GetSalaryHead(r.Context(), middleware.CompanyIDFromContext(r.Context()), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListSalaryHeads(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListSalaryHeads(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateSalaryHead(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrSalaryHeadNotFound)
		return
	}

	var req payroll.UpdateSalaryHeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdateSalaryHead(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary head updated", result)
}

func (h *payrollHandlerImpl) DeleteSalaryHead(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrSalaryHeadNotFound)
		return
	}

	if err := h.payrollService.DeleteSalaryHead(r.Context(), middleware.CompanyIDFromContext(r.Context()), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary head deleted", nil)
}

// ========== TAX BRACKETS ==========

func (h *payrollHandlerImpl) CreateTaxBracket(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateTaxBracketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateTaxBracket(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Tax bracket created", result)
}

func (h *payrollHandlerImpl) ListTaxBrackets(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListTaxBrackets(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateTaxBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrTaxBracketNotFound)
		return
	}

	var req payroll.UpdateTaxBracketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.payrollService.UpdateTaxBracket(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tax bracket updated", result)
}

func (h *payrollHandlerImpl) DeleteTaxBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrTaxBracketNotFound)
		return
	}

	if err := h.payrollService.DeleteTaxBracket(r.Context(), middleware.CompanyIDFromContext(r.Context()), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tax bracket deleted", nil)
}

// ========== PAY PROFILES ==========

// handleProfileError reports a missing profile as 404 on the profile routes.
// Computation reports the same error as a configuration problem.
func handleProfileError(w http.ResponseWriter, err error) {
	if errors.Is(err, payroll.ErrPayProfileNotFound) {
		response.NotFound(w, err.Error())
		return
	}
	response.HandleError(w, err)
}

func (h *payrollHandlerImpl) GetPayProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := uuidParam(r, "employeeID")
	if !ok {
		response.HandleError(w, payroll.ErrEmployeeNotFound)
		return
	}

	result, err := h.payrollService.GetPayProfile(r.Context(), middleware.CompanyIDFromContext(r.Context()), employeeID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpsertPayProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := uuidParam(r, "employeeID")
	if !ok {
		response.HandleError(w, payroll.ErrEmployeeNotFound)
		return
	}

	var req payroll.UpsertPayProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.UpsertPayProfile(r.Context(), middleware.CompanyIDFromContext(r.Context()), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay profile saved", result)
}

func (h *payrollHandlerImpl) ListPayProfiles(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListPayProfiles(r.Context(), middleware.CompanyIDFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) DeletePayProfile(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := uuidParam(r, "employeeID")
	if !ok {
		response.HandleError(w, payroll.ErrEmployeeNotFound)
		return
	}

	if err := h.payrollService.DeletePayProfile(r.Context(), middleware.CompanyIDFromContext(r.Context()), employeeID); err != nil {
		handleProfileError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay profile deleted", nil)
}

// ========== SALARY RECORDS ==========

func (h *payrollHandlerImpl) ComputeSalary(w http.ResponseWriter, r *http.Request) {
	var req payroll.ComputeSalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ComputeSalary(r.Context(), middleware.CompanyIDFromContext(r.Context()), req.EmployeeID, req.Period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary computed", result)
}

func (h *payrollHandlerImpl) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.RunPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.RunPayroll(r.Context(), middleware.CompanyIDFromContext(r.Context()), req.Period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run completed", result)
}

func (h *payrollHandlerImpl) GetSalaryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		response.HandleError(w, payroll.ErrSalaryRecordNotFound)
		return
	}

	result, err := h.payrollService.GetSalaryRecord(r.Context(), middleware.CompanyIDFromContext(r.Context()), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListSalaryRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter payroll.SalaryRecordFilter
	if v := query.Get("employee_id"); v != "" {
		filter.EmployeeID = &v
	}
	if v := query.Get("period"); v != "" {
		filter.Period = &v
	}

	result, err := h.payrollService.ListSalaryRecords(r.Context(), middleware.CompanyIDFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== EXPENSES ==========

func (h *payrollHandlerImpl) GetSalaryExpense(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")

	result, err := h.payrollService.GetSalaryExpense(r.Context(), middleware.CompanyIDFromContext(r.Context()), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
