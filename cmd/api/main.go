package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-leave-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-leave-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-leave-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-leave-go/internal/service/leave"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	generateOnce := flag.Bool("generate-once", false, "generate the current year's leave balances, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", "hris-leave"),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	leaveTransactionRepo := postgresql.NewLeaveTransactionRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	activityLogRepo := postgresql.NewActivityLogRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	leaveService := leave.NewLeaveService(
		postgresql.NewTransactor(db),
		leavePolicyRepo,
		leaveBalanceRepo,
		leaveRequestRepo,
		leaveTransactionRepo,
		employeeRepo,
		activityLogRepo,
	)

	leaveJobs := cron.NewLeaveJobs(leaveService, cron.LeaveJobSettings{
		Interval:           cfg.Leave.GenerationInterval,
		Schedule:           cfg.Leave.GenerationSchedule,
		EmploymentTypes:    cfg.Leave.EmploymentTypes,
		EmploymentStatuses: cfg.Leave.EmploymentStatuses,
	})
	scheduler := cron.NewScheduler()
	if *generateOnce || cfg.Leave.AutoGenerate {
		if err := leaveJobs.RegisterJobs(scheduler); err != nil {
			return fmt.Errorf("register leave jobs: %w", err)
		}
	}
	if *generateOnce {
		return scheduler.RunOnce(ctx)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	leaveHandler := appHTTP.NewLeaveHandler(leaveService)
	router := appHTTP.NewRouter(JWTService, leaveHandler, appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       cfg.SlogLevel(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
