package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peoplehub-hr/peoplehub/internal/app"
	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/dashboard"
	"github.com/peoplehub-hr/peoplehub/internal/employee"
	"github.com/peoplehub-hr/peoplehub/internal/identity"
	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/observability"
	"github.com/peoplehub-hr/peoplehub/internal/platform/cache"
	"github.com/peoplehub-hr/peoplehub/internal/platform/db"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
	"github.com/peoplehub-hr/peoplehub/internal/task"
	"github.com/peoplehub-hr/peoplehub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "peoplehub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	activityLogger := shared.NewActivityLogger(dbpool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo, activityLogger, logger)
	identityHandler := identity.NewHandler(logger, identityService, sessionManager, csrfManager)
	identityMiddleware := identity.Middleware{Service: identityService, Logger: logger}

	employeeRepo := employee.NewRepository(dbpool)
	employeeService := employee.NewService(employeeRepo, activityLogger, logger)
	employeeHandler := employee.NewHandler(logger, employeeService)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, activityLogger, logger, attendance.Config{WorkDayHours: cfg.WorkDayHours})
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	leaveRepo := leave.NewRepository(dbpool)
	leaveService := leave.NewService(leaveRepo, activityLogger, jobClient, logger)
	leaveHandler := leave.NewHandler(logger, leaveService)

	taskRepo := task.NewRepository(dbpool)
	taskService := task.NewService(taskRepo, activityLogger, logger)
	taskHandler := task.NewHandler(logger, taskService)

	dashboardService := dashboard.NewService(employeeService, attendanceService, leaveService, taskService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		IdentityMiddleware: identityMiddleware,
		IdentityHandler:    identityHandler,
		EmployeeHandler:    employeeHandler,
		AttendanceHandler:  attendanceHandler,
		LeaveHandler:       leaveHandler,
		TaskHandler:        taskHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
