package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/policyfile"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
)

// repositories groups the store implementations selected by STORE_DRIVER.
type repositories struct {
	employees   employee.EmployeeRepository
	attendance  attendance.AttendanceRepository
	salaries    payroll.SalaryRepository
	adjustments payroll.AdjustmentRepository
	close       func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, _ := cfg.LogLevel()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policyStore, err := policyfile.Open(cfg.Payroll.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	tables, err := policyStore.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	slog.Info("Policy loaded", "version", tables.Version, "timezone", tables.Loc().String(), "file", cfg.Payroll.PolicyFile)

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	progressHub := sse.NewHub()
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, repos.employees, tables)
	payrollSvc := payrollService.NewPayrollService(
		repos.employees,
		repos.attendance,
		repos.salaries,
		repos.adjustments,
		policyStore,
		locker,
		cfg.Payroll.Workers,
		payrollService.WithProgress(progressHub),
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Progress:       appHTTP.NewProgressHandler(progressHub),
		},
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewPolicyHandler(policyStore),
	)

	scheduler := cron.NewScheduler(tables.Loc())
	jobs := cron.NewPayrollJobs(payrollSvc, attendanceSvc, cfg.Payroll.Schedule, cfg.Payroll.StaleSessionSchedule, tables.Loc())
	if err := jobs.RegisterJobs(scheduler); err != nil {
		return fmt.Errorf("failed to register cron jobs: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", srv.Addr, "store", cfg.Store.Driver, "lock", cfg.Lock.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, postgresql.Schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &repositories{
			employees:   postgresql.NewEmployeeRepository(db),
			attendance:  postgresql.NewAttendanceRepository(db),
			salaries:    postgresql.NewSalaryRepository(db),
			adjustments: postgresql.NewAdjustmentRepository(db),
			close:       db.Close,
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &repositories{
			employees:   sqlite.NewEmployeeRepository(db),
			attendance:  sqlite.NewAttendanceRepository(db),
			salaries:    sqlite.NewSalaryRepository(db),
			adjustments: sqlite.NewAdjustmentRepository(db),
			close:       func() { db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func openLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.Lock.Backend != config.LockRedis {
		return lock.NewMemoryLocker(), func() {}, nil
	}
	client, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return lock.NewRedisLocker(client, "payroll:lock:", cfg.Lock.TTL), func() { client.Close() }, nil
}
