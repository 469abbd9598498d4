package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestCompanyID = "c0a80000-0000-4000-8000-000000000001"
	handlerTestEmployee  = "e0a80000-0000-4000-8000-000000000001"
)

// stubPayrollService implements only what the routes under test reach.
type stubPayrollService struct {
	payroll.PayrollService

	mu         sync.Mutex
	companyIDs []string
	computeErr error
	runs       int
	calls      int
	deleted    []string
}

func (s *stubPayrollService) called() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubPayrollService) ComputeSalary(ctx context.Context, companyID string, employeeID string, period string) (payroll.SalaryRecord, error) {
	s.mu.Lock()
	s.companyIDs = append(s.companyIDs, companyID)
	s.mu.Unlock()
	if s.computeErr != nil {
		return payroll.SalaryRecord{}, s.computeErr
	}
	return payroll.SalaryRecord{
		ID:          "r-1",
		CompanyID:   companyID,
		EmployeeID:  employeeID,
		Period:      period,
		GrossSalary: decimal.RequireFromString("5000.00"),
		NetSalary:   decimal.RequireFromString("4500.00"),
	}, nil
}

func (s *stubPayrollService) RunPayroll(ctx context.Context, companyID string, period string) (payroll.RunSummary, error) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	return payroll.RunSummary{CompanyID: companyID, Period: period, Errors: []payroll.RunError{}}, nil
}

func (s *stubPayrollService) UpdateSalaryHead(ctx context.Context, companyID string, req payroll.UpdateSalaryHeadRequest) (payroll.SalaryHead, error) {
	s.called()
	return payroll.SalaryHead{ID: req.ID, CompanyID: companyID}, nil
}

func (s *stubPayrollService) GetSalaryHead(ctx context.Context, companyID string, id string) (payroll.SalaryHead, error) {
	s.called()
	return payroll.SalaryHead{ID: id, CompanyID: companyID}, nil
}

func (s *stubPayrollService) GetPayProfile(ctx context.Context, companyID string, employeeID string) (payroll.PayProfile, error) {
	s.called()
	return payroll.PayProfile{CompanyID: companyID, EmployeeID: employeeID}, nil
}

func (s *stubPayrollService) GetSalaryRecord(ctx context.Context, companyID string, id string) (payroll.SalaryRecord, error) {
	s.called()
	return payroll.SalaryRecord{ID: id, CompanyID: companyID}, nil
}

func (s *stubPayrollService) ListPayProfiles(ctx context.Context, companyID string) ([]payroll.PayProfile, error) {
	s.called()
	return []payroll.PayProfile{
		{CompanyID: companyID, EmployeeID: handlerTestEmployee, EmployeeName: "Dina"},
	}, nil
}

func (s *stubPayrollService) DeletePayProfile(ctx context.Context, companyID string, employeeID string) error {
	s.called()
	if employeeID != handlerTestEmployee {
		return payroll.ErrPayProfileNotFound
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, employeeID)
	s.mu.Unlock()
	return nil
}

type stubReportService struct {
	report.ReportService

	year *int
	err  error
}

func (s *stubReportService) GetPayrollTrend(ctx context.Context, companyID string, year *int) ([]report.TrendPoint, error) {
	s.year = year
	if s.err != nil {
		return nil, s.err
	}
	return []report.TrendPoint{}, nil
}

type stubActivityService struct {
	activity.ActivityService

	limit int
}

func (s *stubActivityService) ListRecent(ctx context.Context, companyID string, limit int) ([]activity.Activity, error) {
	s.limit = limit
	return []activity.Activity{}, nil
}

type routerFixture struct {
	handler  http.Handler
	jwt      jwt.Service
	payroll  *stubPayrollService
	reports  *stubReportService
	activity *stubActivityService
}

func newRouterFixture(t *testing.T, runRate int) *routerFixture {
	t.Helper()
	f := &routerFixture{
		jwt:      jwt.NewJWTService(handlerTestSecret, "1h"),
		payroll:  &stubPayrollService{},
		reports:  &stubReportService{},
		activity: &stubActivityService{},
	}
	f.handler = NewRouter(
		RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}, RunRatePerMinute: runRate},
		f.jwt,
		NewPayrollHandler(f.payroll),
		NewReportHandler(f.reports),
		NewActivityHandler(f.activity),
	)
	return f
}

func (f *routerFixture) token(t *testing.T, companyID, role string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("u-1", companyID, role)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Authorization(t *testing.T) {
	f := newRouterFixture(t, 10)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "missing token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "no company", token: f.token(t, "", "owner"), wantStatus: http.StatusForbidden},
		{name: "employee role", token: f.token(t, handlerTestCompanyID, "employee"), wantStatus: http.StatusForbidden},
		{name: "manager", token: f.token(t, handlerTestCompanyID, "manager"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/api/v1/reports/payroll/trend", tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_ComputeSalary(t *testing.T) {
	body := map[string]string{"employee_id": handlerTestEmployee, "period": "2026-10"}

	t.Run("created", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodPost, "/api/v1/payroll/records", f.token(t, handlerTestCompanyID, "owner"), body)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeBody(t, w)
		assert.True(t, resp["success"].(bool))
		data := resp["data"].(map[string]interface{})
		assert.Equal(t, "5000", data["gross_salary"])
		assert.Equal(t, []string{handlerTestCompanyID}, f.payroll.companyIDs)
	})

	t.Run("invalid period", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodPost, "/api/v1/payroll/records", f.token(t, handlerTestCompanyID, "owner"),
			map[string]string{"employee_id": handlerTestEmployee, "period": "2026-13"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, f.payroll.companyIDs)
	})

	t.Run("non uuid employee", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodPost, "/api/v1/payroll/records", f.token(t, handlerTestCompanyID, "owner"),
			map[string]string{"employee_id": "emp-1", "period": "2026-10"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		details := decodeBody(t, w)["error"].(map[string]interface{})["details"].(map[string]interface{})
		assert.Equal(t, "must be a valid UUID", details["employee_id"])
		assert.Empty(t, f.payroll.companyIDs)
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantReason string
	}{
		{name: "already exists", err: payroll.ErrSalaryRecordAlreadyExists, wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{name: "unknown employee", err: payroll.ErrEmployeeNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{
			name:       "no profile",
			err:        &payroll.EmployeeError{EmployeeID: handlerTestEmployee, Err: payroll.ErrPayProfileNotFound},
			wantStatus: http.StatusBadRequest,
			wantCode:   "CONFIGURATION_ERROR",
			wantReason: "No salary settings found",
		},
		{
			name:       "no basic salary",
			err:        &payroll.EmployeeError{EmployeeID: handlerTestEmployee, Err: payroll.ErrBasicSalaryNotConfigured},
			wantStatus: http.StatusBadRequest,
			wantCode:   "CONFIGURATION_ERROR",
			wantReason: "Basic salary not configured",
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRouterFixture(t, 10)
			f.payroll.computeErr = tc.err

			w := f.do(t, http.MethodPost, "/api/v1/payroll/records", f.token(t, handlerTestCompanyID, "owner"), body)

			assert.Equal(t, tc.wantStatus, w.Code)
			errBody := decodeBody(t, w)["error"].(map[string]interface{})
			assert.Equal(t, tc.wantCode, errBody["code"])
			if tc.wantReason != "" {
				details := errBody["details"].(map[string]interface{})
				assert.Equal(t, handlerTestEmployee, details["employee_id"])
				assert.Equal(t, tc.wantReason, details["reason"])
				assert.Contains(t, errBody["message"], handlerTestEmployee)
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/records", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+f.token(t, handlerTestCompanyID, "owner"))
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_RunPayrollRateLimited(t *testing.T) {
	f := newRouterFixture(t, 1)
	body := map[string]string{"period": "2026-10"}

	first := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, handlerTestCompanyID, "owner"), body)
	assert.Equal(t, http.StatusOK, first.Code)

	second := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, handlerTestCompanyID, "owner"), body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	other := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, "c0a80000-0000-4000-8000-000000000002", "owner"), body)
	assert.Equal(t, http.StatusOK, other.Code)

	assert.Equal(t, 2, f.payroll.runs)
}

func TestRouter_UpdateSalaryHeadUsesPathID(t *testing.T) {
	f := newRouterFixture(t, 10)

	headID := "a0a80000-0000-4000-8000-000000000042"
	w := f.do(t, http.MethodPut, "/api/v1/payroll/salary-heads/"+headID, f.token(t, handlerTestCompanyID, "owner"),
		map[string]string{"title": "Housing"})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, headID, data["id"])
}

func TestRouter_MalformedPathID(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "get salary head", method: http.MethodGet, path: "/api/v1/payroll/salary-heads/h-42"},
		{name: "update salary head", method: http.MethodPut, path: "/api/v1/payroll/salary-heads/h-42"},
		{name: "delete tax bracket", method: http.MethodDelete, path: "/api/v1/payroll/tax-brackets/not-a-uuid"},
		{name: "get profile", method: http.MethodGet, path: "/api/v1/payroll/profiles/emp-1"},
		{name: "upsert profile", method: http.MethodPut, path: "/api/v1/payroll/profiles/emp-1"},
		{name: "delete profile", method: http.MethodDelete, path: "/api/v1/payroll/profiles/emp-1"},
		{name: "get record", method: http.MethodGet, path: "/api/v1/payroll/records/42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, 10)
			w := f.do(t, tt.method, tt.path, f.token(t, handlerTestCompanyID, "owner"),
				map[string]string{"title": "Housing"})

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "NOT_FOUND", decodeBody(t, w)["error"].(map[string]interface{})["code"])
			assert.Zero(t, f.payroll.calls)
		})
	}
}

func TestRouter_PayProfiles(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodGet, "/api/v1/payroll/profiles", f.token(t, handlerTestCompanyID, "manager"), nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].([]interface{})
		require.Len(t, data, 1)
		profile := data[0].(map[string]interface{})
		assert.Equal(t, handlerTestEmployee, profile["employee_id"])
		assert.Equal(t, "Dina", profile["employee_name"])
	})

	t.Run("delete", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodDelete, "/api/v1/payroll/profiles/"+handlerTestEmployee, f.token(t, handlerTestCompanyID, "owner"), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{handlerTestEmployee}, f.payroll.deleted)
	})

	t.Run("delete missing profile", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodDelete, "/api/v1/payroll/profiles/e0a80000-0000-4000-8000-000000000099", f.token(t, handlerTestCompanyID, "owner"), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, f.payroll.deleted)
	})
}

func TestRouter_Trend(t *testing.T) {
	t.Run("year passed through", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodGet, "/api/v1/reports/payroll/trend?year=2025", f.token(t, handlerTestCompanyID, "owner"), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, f.reports.year)
		assert.Equal(t, 2025, *f.reports.year)
	})

	t.Run("non numeric year", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		w := f.do(t, http.MethodGet, "/api/v1/reports/payroll/trend?year=abc", f.token(t, handlerTestCompanyID, "owner"), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out of range year", func(t *testing.T) {
		f := newRouterFixture(t, 10)
		f.reports.err = report.ErrInvalidYear
		w := f.do(t, http.MethodGet, "/api/v1/reports/payroll/trend?year=99999", f.token(t, handlerTestCompanyID, "owner"), nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRouter_ActivitiesLimit(t *testing.T) {
	f := newRouterFixture(t, 10)

	w := f.do(t, http.MethodGet, "/api/v1/payroll/activities?limit=5", f.token(t, handlerTestCompanyID, "manager"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, f.activity.limit)

	w = f.do(t, http.MethodGet, "/api/v1/payroll/activities?limit=five", f.token(t, handlerTestCompanyID, "manager"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
