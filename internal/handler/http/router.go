package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger           *slog.Logger
	AllowedOrigins   []string
	RunRatePerMinute int
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, payrollHandler PayrollHandler, reportHandler ReportHandler, activityHandler ActivityHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	runLimiter := middleware.NewCompanyRateLimiter(cfg.RunRatePerMinute)

	r.Route("/api/v1", func(r chi.Router) {
		// Requires a manager or owner of a company
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)
			r.Use(middleware.RequireManager)

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/salary-heads", func(r chi.Router) {
					r.Get("/", payrollHandler.ListSalaryHeads)
					r.Post("/", payrollHandler.CreateSalaryHead)
					r.Get("/{id}", payrollHandler.GetSalaryHead)
					r.Put("/{id}", payrollHandler.UpdateSalaryHead)
					r.Delete("/{id}", payrollHandler.DeleteSalaryHead)
				})

				r.Route("/tax-brackets", func(r chi.Router) {
					r.Get("/", payrollHandler.ListTaxBrackets)
					r.Post("/", payrollHandler.CreateTaxBracket)
					r.Put("/{id}", payrollHandler.UpdateTaxBracket)
					r.Delete("/{id}", payrollHandler.DeleteTaxBracket)
				})

				r.Route("/profiles", func(r chi.Router) {
					r.Get("/", payrollHandler.ListPayProfiles)
					r.Get("/{employeeID}", payrollHandler.GetPayProfile)
					r.Put("/{employeeID}", payrollHandler.UpsertPayProfile)
					r.Delete("/{employeeID}", payrollHandler.DeletePayProfile)
				})

				r.Route("/records", func(r chi.Router) {
					r.Get("/", payrollHandler.ListSalaryRecords)
					r.Post("/", payrollHandler.ComputeSalary)
					r.Get("/{id}", payrollHandler.GetSalaryRecord)
				})

				r.With(runLimiter.Limit).Post("/runs", payrollHandler.RunPayroll)
				r.Get("/expenses/{period}", payrollHandler.GetSalaryExpense)

				r.Route("/activities", func(r chi.Router) {
					r.Get("/", activityHandler.ListRecent)
					r.Get("/stream", activityHandler.Stream)
				})
			})

			r.Route("/reports/payroll", func(r chi.Router) {
				r.Get("/overview", reportHandler.GetOverview)
				r.Get("/distribution", reportHandler.GetTotalDistribution)
				r.Get("/departments", reportHandler.GetDepartmentDistribution)
				r.Get("/departments/top", reportHandler.GetHighestPaidDepartment)
				r.Get("/trend", reportHandler.GetPayrollTrend)
				r.Get("/branches", reportHandler.GetBranchPayroll)
				r.Get("/average", reportHandler.GetAverageNetSalary)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	return r
}
