package reconciliation

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/core/common/validation"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     func() time.Time
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		now:         time.Now,
	}
}

// AnnualSummary handles GET /expense-sheets/summary/{user_id}?year=
func (h *Handler) AnnualSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	userID, err := h.IDParam(r, "user_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	year := h.now().UTC().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleServiceError(w, internal.NewValidationFieldError("year", "year must be an integer", internal.ErrCodeInvalidPeriod))
			return
		}
		year = y
	}
	if appErr := validation.ValidatePeriod(1, year); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}

	sum, err := h.Service.Summary(r.Context(), user, userID, year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NewSummaryResponse(sum))
}

// AdvanceBalance handles GET /advance-requests/balance/{user_id}
func (h *Handler) AdvanceBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	userID, err := h.IDParam(r, "user_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.Service.Balance(r.Context(), user, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, NewBalanceResponse(b))
}
