package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
)

type RBACAuthorization struct {
	authorizer PermissionChecker
	logger     *slog.Logger
	responder  *transport.BaseHandler
}

func NewRBACAuthorization(authorizer PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		authorizer: authorizer,
		logger:     logger,
		responder:  transport.NewBaseHandler(logger),
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user == nil {
			ra.logger.Warn("authorization check failed: user not found in context")
			ra.responder.HandleServiceError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeUnauthorizedAccess))
			return
		}

		hasAccess, err := ra.authorizer.HasPermission(r.Context(), user, permission)
		if err != nil {
			ra.logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", user.ID, "permission", permission)
			ra.responder.HandleServiceError(w, err)
			return
		}

		if !hasAccess {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"role", user.Role,
				"required_permission", permission)
			ra.responder.HandleServiceError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeUnauthorizedAccess))
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}

// RequireFinance guards the finance-only route groups.
func (ra *RBACAuthorization) RequireFinance() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.responder.HandleServiceError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeUnauthorizedAccess))
				return
			}

			isFinance, err := ra.authorizer.IsFinance(r.Context(), user)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "finance check failed", "error", err, "user_id", user.ID)
				ra.responder.HandleServiceError(w, err)
				return
			}

			if !isFinance {
				ra.logger.WarnContext(r.Context(), "access denied: finance role required", "user_id", user.ID, "role", user.Role)
				ra.responder.HandleServiceError(w, internal.ErrFinanceRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
