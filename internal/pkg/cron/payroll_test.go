package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmployeeRepo struct {
	companyIDs []string
	err        error
}

func (s *stubEmployeeRepo) GetEmployee(ctx context.Context, companyID string, employeeID string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (s *stubEmployeeRepo) ListEmployees(ctx context.Context, companyID string, role employee.Role) ([]employee.Employee, error) {
	return nil, nil
}

func (s *stubEmployeeRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	return s.companyIDs, s.err
}

type stubPayrollService struct {
	payroll.PayrollService
	failFor map[string]bool
	runs    []string
}

func (s *stubPayrollService) RunPayroll(ctx context.Context, companyID string, period string) (payroll.RunSummary, error) {
	s.runs = append(s.runs, companyID+"@"+period)
	if s.failFor[companyID] {
		return payroll.RunSummary{}, errors.New("failed to load employees")
	}
	return payroll.RunSummary{CompanyID: companyID, Period: period, ProcessedCount: 1, TotalGrossSalary: decimal.NewFromInt(1000)}, nil
}

func TestPayrollJobs_RunPreviousMonth(t *testing.T) {
	ctx := context.Background()
	fixedNow := func() time.Time { return time.Date(2026, time.January, 1, 2, 0, 0, 0, time.UTC) }

	t.Run("runs every company for the previous month", func(t *testing.T) {
		svc := &stubPayrollService{}
		jobs := NewPayrollJobs(&stubEmployeeRepo{companyIDs: []string{"a", "b"}}, svc)
		jobs.now = fixedNow

		require.NoError(t, jobs.RunPreviousMonth(ctx))
		assert.Equal(t, []string{"a@2025-12", "b@2025-12"}, svc.runs)
	})

	t.Run("a failing company does not stop the others", func(t *testing.T) {
		svc := &stubPayrollService{failFor: map[string]bool{"a": true}}
		jobs := NewPayrollJobs(&stubEmployeeRepo{companyIDs: []string{"a", "b"}}, svc)
		jobs.now = fixedNow

		err := jobs.RunPreviousMonth(ctx)
		assert.EqualError(t, err, "payroll run failed for 1 of 2 companies")
		assert.Equal(t, []string{"a@2025-12", "b@2025-12"}, svc.runs)
	})

	t.Run("directory failure", func(t *testing.T) {
		jobs := NewPayrollJobs(&stubEmployeeRepo{err: errors.New("timeout")}, &stubPayrollService{})

		assert.Error(t, jobs.RunPreviousMonth(ctx))
	})
}

func TestScheduler_AddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	assert.Error(t, s.AddJob("bad", "every tuesday", func(ctx context.Context) error { return nil }))

	ran := 0
	require.NoError(t, s.AddJob("count", DefaultPayrollSchedule, func(ctx context.Context) error {
		ran++
		return nil
	}))

	s.RunOnce(context.Background())
	assert.Equal(t, 1, ran)
}
