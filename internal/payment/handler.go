package payment

import (
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListPayouts handles GET /payouts?user_id=. The route sits behind the finance guard.
func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		h.HandleServiceError(w, errors.NewValidationFieldError("user_id", "user_id query parameter is required", errors.ErrCodeValidationFailed))
		return
	}

	payouts, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := PayoutListResponse{Payouts: make([]PayoutResponse, 0, len(payouts))}
	total := money.Zero
	for _, p := range payouts {
		resp.Payouts = append(resp.Payouts, NewPayoutResponse(p))
		total = total.Add(p.Amount)
	}
	resp.Total = money.Format(total)

	h.WriteJSON(w, http.StatusOK, resp)
}
