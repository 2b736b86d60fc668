package catalog

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler() *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{BaseHandler: transport.NewBaseHandler(lg)}
}

// GetBillTypes handles GET /catalog/bill-types
func (h *Handler) GetBillTypes(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, NewEntriesResponse(BillTypes()))
}

// GetPaymentModes handles GET /catalog/payment-modes
func (h *Handler) GetPaymentModes(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, NewEntriesResponse(PaymentModes()))
}

// GetStatuses handles GET /catalog/statuses
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, NewStatusesResponse(SheetStatuses(), AdvanceStatuses()))
}
