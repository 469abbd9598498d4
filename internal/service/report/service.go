package report

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	trendMonths = 6
	minYear     = 1900
	maxYear     = 9999
)

// ReportServiceImpl serves ledger aggregates. A nil redis client disables caching.
type ReportServiceImpl struct {
	reportRepo report.ReportRepository
	rdb        *redis.Client
	ttl        time.Duration
	sf         singleflight.Group
	now        func() time.Time
}

var (
	_ report.ReportService    = (*ReportServiceImpl)(nil)
	_ report.CacheInvalidator = (*ReportServiceImpl)(nil)
)

func NewReportService(reportRepo report.ReportRepository, rdb *redis.Client, ttl time.Duration) *ReportServiceImpl {
	return &ReportServiceImpl{
		reportRepo: reportRepo,
		rdb:        rdb,
		ttl:        ttl,
		now:        time.Now,
	}
}

func requireCompany(companyID string) error {
	if validator.IsEmpty(companyID) {
		return payroll.ErrCompanyIDRequired
	}
	return nil
}

// parseOptionalPeriod validates period when present and returns its cache key form.
func parseOptionalPeriod(period *string) (string, error) {
	if period == nil {
		return "all", nil
	}
	if _, err := payroll.ParsePeriod(*period); err != nil {
		return "", report.ErrInvalidPeriod
	}
	return *period, nil
}

func (s *ReportServiceImpl) currentPeriod() payroll.Period {
	return payroll.PeriodOf(s.now().UTC())
}

// GetOverview fetches the dashboard aggregates concurrently. A nil period means the current month.
func (s *ReportServiceImpl) GetOverview(ctx context.Context, companyID string, period *string) (report.PayrollOverviewResponse, error) {
	if err := requireCompany(companyID); err != nil {
		return report.PayrollOverviewResponse{}, err
	}

	p := s.currentPeriod().String()
	if period != nil {
		p = *period
	}
	if _, err := payroll.ParsePeriod(p); err != nil {
		return report.PayrollOverviewResponse{}, report.ErrInvalidPeriod
	}

	resp := report.PayrollOverviewResponse{Period: p}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.GetTotalDistribution(gCtx, companyID, p)
		resp.TotalDistribution = total
		return err
	})

	g.Go(func() error {
		avg, err := s.GetAverageNetSalary(gCtx, companyID, &p)
		resp.AverageSalary = avg
		return err
	})

	g.Go(func() error {
		rows, err := s.GetDepartmentDistribution(gCtx, companyID, &p)
		if err != nil {
			return err
		}
		resp.DepartmentDistribution = rows
		resp.HighestPaidDepartment = highest(rows)
		return nil
	})

	g.Go(func() error {
		trend, err := s.GetPayrollTrend(gCtx, companyID, nil)
		resp.Trend = trend
		return err
	})

	if err := g.Wait(); err != nil {
		return report.PayrollOverviewResponse{}, err
	}

	return resp, nil
}

func (s *ReportServiceImpl) GetTotalDistribution(ctx context.Context, companyID string, period string) (report.TotalDistributionResponse, error) {
	if err := requireCompany(companyID); err != nil {
		return report.TotalDistributionResponse{}, err
	}
	if _, err := payroll.ParsePeriod(period); err != nil {
		return report.TotalDistributionResponse{}, report.ErrInvalidPeriod
	}

	return cached(ctx, s, companyID, "total", period, func(ctx context.Context) (report.TotalDistributionResponse, error) {
		totals, err := s.reportRepo.GetPeriodTotals(ctx, companyID, []string{period})
		if err != nil {
			return report.TotalDistributionResponse{}, err
		}

		resp := report.TotalDistributionResponse{
			Period:           period,
			TotalGrossSalary: decimal.Zero,
			TotalDeductions:  decimal.Zero,
			TotalTax:         decimal.Zero,
			TotalNetSalary:   decimal.Zero,
		}
		for _, t := range totals {
			if t.Period != period {
				continue
			}
			resp.TotalGrossSalary = t.TotalGrossSalary.Round(2)
			resp.TotalDeductions = t.TotalDeductions.Round(2)
			resp.TotalTax = t.TotalTax.Round(2)
			resp.TotalNetSalary = t.TotalNetSalary.Round(2)
			resp.RecordCount = t.RecordCount
		}
		return resp, nil
	})
}

func (s *ReportServiceImpl) GetDepartmentDistribution(ctx context.Context, companyID string, period *string) ([]report.DepartmentPayrollRow, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	args, err := parseOptionalPeriod(period)
	if err != nil {
		return nil, err
	}

	return cached(ctx, s, companyID, "departments", args, func(ctx context.Context) ([]report.DepartmentPayrollRow, error) {
		return s.reportRepo.GetDepartmentDistribution(ctx, companyID, period)
	})
}

func (s *ReportServiceImpl) GetHighestPaidDepartment(ctx context.Context, companyID string, period *string) (*report.DepartmentPayrollRow, error) {
	rows, err := s.GetDepartmentDistribution(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	return highest(rows), nil
}

// highest picks the row with the largest gross total. Ties keep the first row.
func highest(rows []report.DepartmentPayrollRow) *report.DepartmentPayrollRow {
	var top *report.DepartmentPayrollRow
	for i := range rows {
		if top == nil || rows[i].TotalGrossSalary.GreaterThan(top.TotalGrossSalary) {
			top = &rows[i]
		}
	}
	if top == nil {
		return nil
	}
	row := *top
	return &row
}

func (s *ReportServiceImpl) GetPayrollTrend(ctx context.Context, companyID string, year *int) ([]report.TrendPoint, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}

	var periods []payroll.Period
	if year != nil {
		if *year < minYear || *year > maxYear {
			return nil, report.ErrInvalidYear
		}
		periods = payroll.YearPeriods(*year)
	} else {
		periods = payroll.LastPeriods(s.currentPeriod(), trendMonths)
	}

	args := periods[0].String() + ".." + periods[len(periods)-1].String()
	return cached(ctx, s, companyID, "trend", args, func(ctx context.Context) ([]report.TrendPoint, error) {
		keys := make([]string, len(periods))
		for i, p := range periods {
			keys[i] = p.String()
		}

		totals, err := s.reportRepo.GetPeriodTotals(ctx, companyID, keys)
		if err != nil {
			return nil, err
		}
		return zeroFillTrend(keys, totals), nil
	})
}

// zeroFillTrend returns one point per period, in order, with zero totals for
// periods absent from totals.
func zeroFillTrend(periods []string, totals []report.PeriodTotals) []report.TrendPoint {
	byPeriod := make(map[string]report.PeriodTotals, len(totals))
	for _, t := range totals {
		byPeriod[t.Period] = t
	}

	points := make([]report.TrendPoint, 0, len(periods))
	for _, p := range periods {
		point := report.TrendPoint{Period: p, TotalGrossSalary: decimal.Zero, TotalTax: decimal.Zero}
		if t, ok := byPeriod[p]; ok {
			point.TotalGrossSalary = t.TotalGrossSalary.Round(2)
			point.TotalTax = t.TotalTax.Round(2)
		}
		points = append(points, point)
	}
	return points
}

func (s *ReportServiceImpl) GetBranchPayroll(ctx context.Context, companyID string, period *string) ([]report.BranchPayrollRow, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	args, err := parseOptionalPeriod(period)
	if err != nil {
		return nil, err
	}

	return cached(ctx, s, companyID, "branches", args, func(ctx context.Context) ([]report.BranchPayrollRow, error) {
		return s.reportRepo.GetBranchPayroll(ctx, companyID, period)
	})
}

func (s *ReportServiceImpl) GetAverageNetSalary(ctx context.Context, companyID string, period *string) (report.AverageSalaryResponse, error) {
	if err := requireCompany(companyID); err != nil {
		return report.AverageSalaryResponse{}, err
	}
	args, err := parseOptionalPeriod(period)
	if err != nil {
		return report.AverageSalaryResponse{}, err
	}

	return cached(ctx, s, companyID, "average", args, func(ctx context.Context) (report.AverageSalaryResponse, error) {
		avg, err := s.reportRepo.GetAverageNetSalary(ctx, companyID, period)
		if err != nil {
			return report.AverageSalaryResponse{}, err
		}
		avg.AverageNetSalary = avg.AverageNetSalary.Round(2)
		return avg, nil
	})
}
