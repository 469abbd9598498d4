package payroll

import (
	"fmt"
	"strings"
	"time"
)

const periodLayout = "2006-01"

// Period is one payroll cycle, a calendar month. Its token form is "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, ErrPeriodRequired
	}
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label renders the period for humans, e.g. "October 2026".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

// StartDate is the first day of the month at midnight UTC. Tax brackets are
// selected against this date.
func (p Period) StartDate() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.StartDate().AddDate(0, n, 0))
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// LastPeriods returns the n contiguous periods ending at (and including) end,
// oldest first.
func LastPeriods(end Period, n int) []Period {
	if n <= 0 {
		return nil
	}
	periods := make([]Period, n)
	for i := 0; i < n; i++ {
		periods[i] = end.AddMonths(i - (n - 1))
	}
	return periods
}

// YearPeriods returns January through December of year.
func YearPeriods(year int) []Period {
	periods := make([]Period, 12)
	for i := range periods {
		periods[i] = Period{Year: year, Month: time.Month(i + 1)}
	}
	return periods
}
