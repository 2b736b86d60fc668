package advance

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleServiceError(w, internal.NewUnauthorizedError("authentication required", internal.ErrCodeUnauthorizedAccess))
		return nil, false
	}
	return user, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.User, int64, int64, bool) {
	user, ok := h.caller(w, r)
	if !ok {
		return nil, 0, 0, false
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, 0, false
	}
	version, err := h.ExpectedVersion(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, 0, false
	}
	return user, id, version, true
}

func (h *Handler) writeRequest(w http.ResponseWriter, status int, req *Request) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(req.Version, 10)))
	h.WriteJSON(w, status, NewRequestResponse(req))
}

// CreateRequest handles POST /advance-requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var dto CreateRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeRequest(w, http.StatusCreated, req)
}

// ListRequests handles GET /advance-requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	q, err := ParseListQuery(r.URL.Query().Get)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	reqs, err := h.Service.List(r.Context(), user, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := RequestListResponse{Requests: make([]RequestResponse, 0, len(reqs)), Count: len(reqs)}
	for _, req := range reqs {
		resp.Requests = append(resp.Requests, NewRequestResponse(req))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetRequest handles GET /advance-requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeRequest(w, http.StatusOK, req)
}

// Withdraw handles DELETE /advance-requests/{id}
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.Service.Withdraw(r.Context(), user, id, version); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Approve handles PUT /advance-requests/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	req, err := h.Service.Approve(r.Context(), user, id, version)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeRequest(w, http.StatusOK, req)
}

// Reject handles PUT /advance-requests/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	var dto RejectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Reject(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeRequest(w, http.StatusOK, req)
}

// Pay handles PUT /advance-requests/{id}/pay
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	var dto PaymentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.RecordPayment(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeRequest(w, http.StatusOK, req)
}

// CreateDirect handles POST /advance-requests/direct
func (h *Handler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var dto DirectAdvanceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.CreateDirect(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, payment.NewPayoutResponse(p))
}
