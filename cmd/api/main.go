package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/config"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	appHTTP "github.com/cmlabs-hris/payroll-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cache"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/kafka"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	activityService "github.com/cmlabs-hris/payroll-engine-go/internal/service/activity"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	reportService "github.com/cmlabs-hris/payroll-engine-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const (
	appName         = "payroll-engine"
	appVersion      = "v1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
	} else {
		slog.Info("REDIS_ADDR not set, report cache disabled")
	}

	hub := sse.NewHub(32)
	publishers := []activity.Publisher{activityService.NewHubPublisher(hub)}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := kafka.NewWriter(cfg.Kafka.Brokers)
		defer writer.Close()
		publishers = append(publishers, activityService.NewKafkaPublisher(writer, cfg.Kafka.ActivityTopic))
	} else {
		slog.Info("KAFKA_BROKERS not set, activities are not published to kafka")
	}

	transactor := postgresql.NewTransactor(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	expenseRepo := postgresql.NewExpenseRepository(db)
	activityRepo := postgresql.NewActivityRepository(db)
	reportRepo := postgresql.NewReportRepository(db)

	activitySvc := activityService.NewActivityService(activityRepo, hub, publishers...)
	reportSvc := reportService.NewReportService(reportRepo, rdb, cfg.Redis.TTL)
	payrollSvc := payrollService.NewPayrollService(transactor, payrollRepo, employeeRepo, expenseRepo, activitySvc, reportSvc)

	if cfg.Payroll.AutoRunEnabled {
		scheduler := cron.NewScheduler()
		if err := cron.NewPayrollJobs(employeeRepo, payrollSvc).RegisterJobs(scheduler, cfg.Payroll.AutoRunSchedule); err != nil {
			return fmt.Errorf("register payroll jobs: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Logger:           logger,
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			RunRatePerMinute: cfg.Payroll.RunRatePerMinute,
		},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewReportHandler(reportSvc),
		appHTTP.NewActivityHandler(activitySvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(app config.AppConfig) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(app.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", app.Env),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
