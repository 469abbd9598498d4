package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type companyIDKey struct{}

// RequireCompany takes company_id from the token claims and stores it in the
// request context. Tokens without a company are rejected.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			response.HandleError(w, auth.ErrCompanyIDRequired)
			return
		}

		ctx := context.WithValue(r.Context(), companyIDKey{}, companyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompanyIDFromContext returns the company set by RequireCompany
func CompanyIDFromContext(ctx context.Context) string {
	companyID, _ := ctx.Value(companyIDKey{}).(string)
	return companyID
}
