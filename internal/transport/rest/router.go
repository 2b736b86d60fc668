package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-reconciliation/internal/advance"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/catalog"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/reconciliation"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/internal/transport/middleware"
	"github.com/frahmantamala/expense-reconciliation/internal/transport/swagger"
	"github.com/frahmantamala/expense-reconciliation/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler leaves its routes out.
type Handlers struct {
	Auth           *auth.Handler
	User           *user.Handler
	ExpenseSheet   *expensesheet.Handler
	Advance        *advance.Handler
	Reconciliation *reconciliation.Handler
	Payment        *payment.Handler
	Catalog        *catalog.Handler
	Health         *HealthHandler
}

type RouterConfig struct {
	AllowedOrigins string
}

func RegisterAllRoutes(router chi.Router, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(auth.NewPermissionChecker(), logger)

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.NotFound(NotFound(logger))

	router.Get("/openapi.yml", swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Catalog != nil {
			r.Route("/catalog", func(cr chi.Router) {
				cr.Get("/bill-types", h.Catalog.GetBillTypes)
				cr.Get("/payment-modes", h.Catalog.GetPaymentModes)
				cr.Get("/statuses", h.Catalog.GetStatuses)
			})
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.With(h.Auth.AuthMiddleware).Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			pr.Route("/expense-sheets", func(er chi.Router) {
				if h.Reconciliation != nil {
					er.Get("/summary/{user_id}", h.Reconciliation.AnnualSummary)
				}
				if h.ExpenseSheet == nil {
					return
				}
				sheets := h.ExpenseSheet

				er.Post("/", sheets.CreateSheet)
				er.Get("/", sheets.ListSheets)

				er.Route("/{id}", func(sr chi.Router) {
					sr.Get("/", sheets.GetSheet)
					sr.Put("/", sheets.UpdateSheet)
					sr.Post("/add-item", sheets.AddItem)
					sr.Put("/items/{item_id}", sheets.UpdateItem)
					sr.Delete("/items/{item_id}", sheets.DeleteItem)
					sr.Put("/submit", sheets.Submit)
					sr.Get("/history", sheets.History)
					sr.Get("/export", sheets.Export)

					sr.Group(func(fr chi.Router) {
						fr.Use(rbac.RequireFinance())
						fr.Put("/verify", sheets.Verify)
						fr.Put("/approve", sheets.Approve)
						fr.Put("/reject", sheets.Reject)
						fr.Put("/pay", sheets.Pay)
					})
				})
			})

			pr.Route("/advance-requests", func(ar chi.Router) {
				if h.Reconciliation != nil {
					ar.Get("/balance/{user_id}", h.Reconciliation.AdvanceBalance)
				}
				if h.Advance == nil {
					return
				}
				adv := h.Advance

				ar.Post("/", adv.CreateRequest)
				ar.Get("/", adv.ListRequests)
				ar.With(rbac.RequireFinance()).Post("/direct", adv.CreateDirect)

				ar.Route("/{id}", func(sr chi.Router) {
					sr.Get("/", adv.GetRequest)
					sr.Delete("/", adv.Withdraw)

					sr.Group(func(fr chi.Router) {
						fr.Use(rbac.RequireFinance())
						fr.Put("/approve", adv.Approve)
						fr.Put("/reject", adv.Reject)
						fr.Put("/pay", adv.Pay)
					})
				})
			})

			if h.Payment != nil {
				pr.With(rbac.Middleware(auth.PermissionPaySheets)).Get("/payouts", h.Payment.ListPayouts)
			}
		})
	})
}

// NotFound keeps unknown routes on the standard error envelope.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transport.NewBaseHandler(logger).WriteError(w, http.StatusNotFound, "route not found")
	}
}
