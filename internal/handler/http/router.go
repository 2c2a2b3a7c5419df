package http

import (
	"io"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-leave-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
	// LogOutput defaults to stdout.
	LogOutput io.Writer
}

func NewRouter(JWTService jwt.Service, leaveHandler LeaveHandler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-leave"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CorrelationIDHeader},
		ExposedHeaders:   []string{"Link", middleware.CorrelationIDHeader},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(middleware.CorrelationID)

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/leave", func(r chi.Router) {
				r.Route("/policies", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionLeaveViewOwn)).Get("/", leaveHandler.ListPolicies)
					r.With(middleware.RequirePermission(user.PermissionLeaveViewOwn)).Get("/{id}", leaveHandler.GetPolicy)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveManagePolicies))
						r.Post("/", leaveHandler.CreatePolicy)
						r.Put("/{id}", leaveHandler.UpdatePolicy)
						r.Post("/{id}/activate", leaveHandler.ActivatePolicy)
						r.Post("/{id}/deactivate", leaveHandler.DeactivatePolicy)
						r.Post("/{id}/retire", leaveHandler.RetirePolicy)
						r.Post("/{id}/archive", leaveHandler.ArchivePolicy)
						r.Post("/{id}/restore", leaveHandler.RestorePolicy)
					})
				})

				r.Route("/balances", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveViewOwn))
						r.Get("/", leaveHandler.ListBalances)
						r.Get("/{id}", leaveHandler.GetBalance)
						r.Get("/{id}/detail", leaveHandler.GetBalanceDetail)
						r.Get("/{id}/transactions", leaveHandler.ListTransactions)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveManageBalances))
						r.Post("/", leaveHandler.CreateBalance)
						r.Post("/generate", leaveHandler.GenerateBalances)
						r.Put("/{id}", leaveHandler.UpdateBalance)
						r.Post("/{id}/adjust", leaveHandler.AdjustBalance)
						r.Post("/{id}/encash", leaveHandler.EncashBalance)
						r.Post("/{id}/carry-over", leaveHandler.CarryOverBalance)
						r.Post("/{id}/close", leaveHandler.CloseBalance)
						r.Post("/{id}/reopen", leaveHandler.ReopenBalance)
						r.Post("/{id}/finalize", leaveHandler.FinalizeBalance)
						r.Post("/{id}/archive", leaveHandler.ArchiveBalance)
						r.Post("/{id}/restore", leaveHandler.RestoreBalance)
					})
				})

				r.Route("/requests", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveViewOwn))
						r.Get("/", leaveHandler.ListRequests)
						r.Get("/overlaps", leaveHandler.FindOverlaps)
						r.Get("/{id}", leaveHandler.GetRequest)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveCreate))
						r.Post("/", leaveHandler.CreateRequest)
						r.Put("/{id}", leaveHandler.UpdateRequest)
						r.Post("/{id}/cancel", leaveHandler.CancelRequest)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveApprove))
						r.Post("/{id}/approve", leaveHandler.ApproveRequest)
						r.Post("/{id}/reject", leaveHandler.RejectRequest)
						r.Post("/{id}/review", leaveHandler.ReviewRequest)
					})
				})
			})
		})
	})

	return r
}
