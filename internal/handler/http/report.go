package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
)

type ReportHandler interface {
	GetOverview(w http.ResponseWriter, r *http.Request)
	GetTotalDistribution(w http.ResponseWriter, r *http.Request)
	GetDepartmentDistribution(w http.ResponseWriter, r *http.Request)
	GetHighestPaidDepartment(w http.ResponseWriter, r *http.Request)
	GetPayrollTrend(w http.ResponseWriter, r *http.Request)
	GetBranchPayroll(w http.ResponseWriter, r *http.Request)
	GetAverageNetSalary(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

func periodParam(r *http.Request) *string {
	if v := r.URL.Query().Get("period"); v != "" {
		return &v
	}
	return nil
}

// GetOverview handles GET /reports/payroll/overview
func (h *reportHandlerImpl) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reportService.GetOverview(ctx, middleware.CompanyIDFromContext(ctx), periodParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetTotalDistribution handles GET /reports/payroll/distribution. Without a
// period the current month is used.
func (h *reportHandlerImpl) GetTotalDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	period := payroll.PeriodOf(time.Now().UTC()).String()
	if p := periodParam(r); p != nil {
		period = *p
	}

	result, err := h.reportService.GetTotalDistribution(ctx, middleware.CompanyIDFromContext(ctx), period)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDepartmentDistribution handles GET /reports/payroll/departments
func (h *reportHandlerImpl) GetDepartmentDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reportService.GetDepartmentDistribution(ctx, middleware.CompanyIDFromContext(ctx), periodParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetHighestPaidDepartment handles GET /reports/payroll/departments/top
func (h *reportHandlerImpl) GetHighestPaidDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reportService.GetHighestPaidDepartment(ctx, middleware.CompanyIDFromContext(ctx), periodParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetPayrollTrend handles GET /reports/payroll/trend
func (h *reportHandlerImpl) GetPayrollTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var year *int
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			response.BadRequest(w, "invalid year parameter", nil)
			return
		}
		year = &y
	}

	result, err := h.reportService.GetPayrollTrend(ctx, middleware.CompanyIDFromContext(ctx), year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetBranchPayroll handles GET /reports/payroll/branches
func (h *reportHandlerImpl) GetBranchPayroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reportService.GetBranchPayroll(ctx, middleware.CompanyIDFromContext(ctx), periodParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetAverageNetSalary handles GET /reports/payroll/average
func (h *reportHandlerImpl) GetAverageNetSalary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.reportService.GetAverageNetSalary(ctx, middleware.CompanyIDFromContext(ctx), periodParam(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
