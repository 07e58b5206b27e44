package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peoplehub-hr/peoplehub/internal/app"
	"github.com/peoplehub-hr/peoplehub/internal/attendance"
	"github.com/peoplehub-hr/peoplehub/internal/leave"
	"github.com/peoplehub-hr/peoplehub/internal/platform/db"
	"github.com/peoplehub-hr/peoplehub/internal/shared"
	"github.com/peoplehub-hr/peoplehub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	activityLogger := shared.NewActivityLogger(pool)

	leaveRepo := leave.NewRepository(pool)
	reconcileJob := &jobs.BalanceReconcileJob{Repo: leaveRepo, Logger: logger}

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, activityLogger, logger, attendance.Config{WorkDayHours: cfg.WorkDayHours})
	markAbsentJob := &jobs.MarkAbsentJob{Attendance: attendanceService, Logger: logger}

	reconcileTask, err := jobs.NewReconcileBalancesTask(0)
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}
	markAbsentTask, err := jobs.NewMarkAbsentTask(time.Time{})
	if err != nil {
		logger.Error("build mark-absent task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLeaveReconcileBalances, Handler: reconcileJob.Handle},
			{Type: jobs.TaskAttendanceMarkAbsent, Handler: markAbsentJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 0 * * *", Task: markAbsentTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
