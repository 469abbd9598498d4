package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// CompanyRateLimiter keeps one token bucket per company.
type CompanyRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

// NewCompanyRateLimiter allows perMinute requests per company with an equal burst.
func NewCompanyRateLimiter(perMinute int) *CompanyRateLimiter {
	return &CompanyRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Every(time.Minute / time.Duration(perMinute)),
		b:        perMinute,
	}
}

func (l *CompanyRateLimiter) limiter(companyID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[companyID]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[companyID] = limiter
	}
	return limiter
}

// Limit must run after RequireCompany.
func (l *CompanyRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(CompanyIDFromContext(r.Context())).Allow() {
			response.HandleError(w, auth.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
