package expensesheet

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/frahmantamala/expense-reconciliation/pkg/logger"
	"github.com/go-chi/chi"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

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

// target reads the caller, the {id} parameter and the If-Match version.
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

func (h *Handler) writeSheet(w http.ResponseWriter, status int, sheet *Sheet) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(sheet.Version, 10)))
	h.WriteJSON(w, status, NewSheetResponse(sheet))
}

// CreateSheet handles POST /expense-sheets
func (h *Handler) CreateSheet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var dto CreateSheetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusCreated, sheet)
}

// ListSheets handles GET /expense-sheets
func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	q, err := ParseListQuery(r.URL.Query().Get)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheets, err := h.Service.List(r.Context(), user, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := SheetListResponse{Sheets: make([]SheetResponse, 0, len(sheets)), Count: len(sheets)}
	for _, s := range sheets {
		resp.Sheets = append(resp.Sheets, NewSheetResponse(s))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetSheet handles GET /expense-sheets/{id}
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// UpdateSheet handles PUT /expense-sheets/{id}
func (h *Handler) UpdateSheet(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	var dto UpdateSheetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, err := h.Service.UpdateSheet(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// AddItem handles POST /expense-sheets/{id}/add-item
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	var dto ItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, _, err := h.Service.AddItem(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusCreated, sheet)
}

// UpdateItem handles PUT /expense-sheets/{id}/items/{item_id}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	var dto ItemDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, _, err := h.Service.UpdateItem(r.Context(), user, id, version, chi.URLParam(r, "item_id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// DeleteItem handles DELETE /expense-sheets/{id}/items/{item_id}
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	sheet, err := h.Service.DeleteItem(r.Context(), user, id, version, chi.URLParam(r, "item_id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// Submit handles PUT /expense-sheets/{id}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	sheet, err := h.Service.Submit(r.Context(), user, id, version)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// Verify handles PUT /expense-sheets/{id}/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	sheet, err := h.Service.Verify(r.Context(), user, id, version)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// Approve handles PUT /expense-sheets/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	user, id, version, ok := h.target(w, r)
	if !ok {
		return
	}

	sheet, err := h.Service.Approve(r.Context(), user, id, version)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// Reject handles PUT /expense-sheets/{id}/reject
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

	sheet, err := h.Service.Reject(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// Pay handles PUT /expense-sheets/{id}/pay
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

	sheet, err := h.Service.RecordPayment(r.Context(), user, id, version, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSheet(w, http.StatusOK, sheet)
}

// History handles GET /expense-sheets/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.History(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// Export handles GET /expense-sheets/{id}/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sheet, data, err := h.Service.Export(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, sheet.SheetNo))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("failed to write export", "error", err, "sheet_id", id)
	}
}
