package expensesheet_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type errorBody struct {
	Error struct {
		Type    string          `json:"type"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

var _ = Describe("Handler", func() {
	var (
		router http.Handler
		users  map[string]*auth.User
	)

	BeforeEach(func() {
		users = map[string]*auth.User{"employee": employee, "other": other, "finance": finance}
		service := expensesheet.NewService(newMockSheetRepository(), nil,
			expensesheet.WithExporter(stubExporter{}),
			expensesheet.WithClock(func() time.Time { return today }),
		)
		h := expensesheet.NewHandler(service)

		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if u, ok := users[req.Header.Get("X-Test-User")]; ok {
					req = req.WithContext(auth.ContextWithUser(req.Context(), u))
				}
				next.ServeHTTP(w, req)
			})
		})
		r.Route("/expense-sheets", func(r chi.Router) {
			r.Post("/", h.CreateSheet)
			r.Get("/", h.ListSheets)
			r.Get("/{id}", h.GetSheet)
			r.Put("/{id}", h.UpdateSheet)
			r.Post("/{id}/add-item", h.AddItem)
			r.Put("/{id}/items/{item_id}", h.UpdateItem)
			r.Delete("/{id}/items/{item_id}", h.DeleteItem)
			r.Put("/{id}/submit", h.Submit)
			r.Put("/{id}/verify", h.Verify)
			r.Put("/{id}/approve", h.Approve)
			r.Put("/{id}/reject", h.Reject)
			r.Put("/{id}/pay", h.Pay)
			r.Get("/{id}/history", h.History)
			r.Get("/{id}/export", h.Export)
		})
		router = r
	})

	do := func(method, path, as, body string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if as != "" {
			req.Header.Set("X-Test-User", as)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decodeSheet := func(rec *httptest.ResponseRecorder) expensesheet.SheetResponse {
		var resp expensesheet.SheetResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	decodeError := func(rec *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	createSheet := func() expensesheet.SheetResponse {
		rec := do(http.MethodPost, "/expense-sheets", "employee",
			`{"month":3,"year":2025,"advance_received":"5000","previous_due":"1200"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		return decodeSheet(rec)
	}

	addItem := func(id int64, amount string) expensesheet.SheetResponse {
		rec := do(http.MethodPost, "/expense-sheets/"+strconv.FormatInt(id, 10)+"/add-item", "employee",
			`{"date":"2025-03-25","project_name":"Metro","bill_type":"Travel","description":"Cab","amount":"`+amount+`","mode":"UPI"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		return decodeSheet(rec)
	}

	It("creates a sheet and reports money as strings", func() {
		sheet := createSheet()

		Expect(sheet.Status).To(Equal("draft"))
		Expect(sheet.AdvanceReceived).To(Equal("5000.00"))
		Expect(sheet.NetClaimAmount).To(Equal("-3800.00"))
		Expect(sheet.AllowedActions).To(Equal([]string{"submit"}))
		Expect(sheet.Version).To(Equal(int64(1)))
	})

	It("adds items and recomputes totals", func() {
		sheet := createSheet()
		addItem(sheet.ID, "3000")
		sheet = addItem(sheet.ID, "1500")

		Expect(sheet.Items).To(HaveLen(2))
		Expect(sheet.TotalAmount).To(Equal("4500.00"))
		Expect(sheet.NetClaimAmount).To(Equal("700.00"))
	})

	It("edits and removes items by id", func() {
		sheet := createSheet()
		sheet = addItem(sheet.ID, "100")
		itemPath := "/expense-sheets/" + strconv.FormatInt(sheet.ID, 10) + "/items/" + sheet.Items[0].ID

		rec := do(http.MethodPut, itemPath, "employee",
			`{"date":"2025-03-25","project_name":"Metro","bill_type":"Food","description":"Lunch","amount":"80","mode":"Cash"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decodeSheet(rec).TotalAmount).To(Equal("80.00"))

		rec = do(http.MethodDelete, itemPath, "employee", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decodeSheet(rec).Items).To(BeEmpty())

		rec = do(http.MethodDelete, itemPath, "employee", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(decodeError(rec).Error.Code).To(Equal("ITEM_NOT_FOUND"))
	})

	It("rejects a duplicate period with 409", func() {
		createSheet()
		rec := do(http.MethodPost, "/expense-sheets", "employee", `{"month":3,"year":2025}`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(rec).Error.Code).To(Equal("DUPLICATE_SHEET"))
	})

	It("refuses to submit an empty sheet", func() {
		sheet := createSheet()
		rec := do(http.MethodPut, "/expense-sheets/"+strconv.FormatInt(sheet.ID, 10)+"/submit", "employee", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(rec).Error.Code).To(Equal("EMPTY_SHEET"))
	})

	It("names the current state on an invalid transition", func() {
		sheet := createSheet()
		rec := do(http.MethodPut, "/expense-sheets/"+strconv.FormatInt(sheet.ID, 10)+"/approve", "finance", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		body := decodeError(rec)
		Expect(body.Error.Type).To(Equal("STATE_VIOLATION"))
		Expect(body.Error.Code).To(Equal("INVALID_TRANSITION"))
		Expect(string(body.Error.Details)).To(ContainSubstring(`"current_state":"draft"`))
	})

	It("keeps review for finance", func() {
		sheet := createSheet()
		addItem(sheet.ID, "10")
		id := strconv.FormatInt(sheet.ID, 10)
		Expect(do(http.MethodPut, "/expense-sheets/"+id+"/submit", "employee", "").Code).To(Equal(http.StatusOK))

		rec := do(http.MethodPut, "/expense-sheets/"+id+"/verify", "employee", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))

		rec = do(http.MethodGet, "/expense-sheets/"+id, "other", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("requires authentication", func() {
		rec := do(http.MethodGet, "/expense-sheets", "", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("honours If-Match", func() {
		sheet := createSheet()
		id := strconv.FormatInt(sheet.ID, 10)
		body := `{"date":"2025-03-25","project_name":"Metro","bill_type":"Travel","description":"Cab","amount":"5","mode":"UPI"}`

		rec := do(http.MethodPost, "/expense-sheets/"+id+"/add-item", "employee", body, "If-Match", `"1"`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(rec.Header().Get("ETag")).To(Equal(`"2"`))

		rec = do(http.MethodPost, "/expense-sheets/"+id+"/add-item", "employee", body, "If-Match", `"1"`)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(rec).Error.Code).To(Equal("CONCURRENCY_CONFLICT"))
	})

	It("walks a sheet to paid and exports it", func() {
		sheet := createSheet()
		addItem(sheet.ID, "3000")
		addItem(sheet.ID, "1500")
		id := strconv.FormatInt(sheet.ID, 10)

		Expect(do(http.MethodPut, "/expense-sheets/"+id+"/submit", "employee", "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, "/expense-sheets/"+id+"/verify", "finance", "").Code).To(Equal(http.StatusOK))

		rec := do(http.MethodPut, "/expense-sheets/"+id+"/reject", "finance", `{"reason":""}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		Expect(do(http.MethodPut, "/expense-sheets/"+id+"/approve", "finance", "").Code).To(Equal(http.StatusOK))
		rec = do(http.MethodPut, "/expense-sheets/"+id+"/pay", "finance",
			`{"payment_mode":"Bank Transfer","payment_reference":"UTR1","paid_amount":"700"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		paid := decodeSheet(rec)
		Expect(paid.Status).To(Equal("paid"))
		Expect(paid.Payment.PaidAmount).To(Equal("700.00"))
		Expect(paid.AllowedActions).To(BeEmpty())

		rec = do(http.MethodGet, "/expense-sheets/"+id+"/export", "employee", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring(paid.SheetNo + ".xlsx"))
		Expect(rec.Body.String()).To(Equal("xlsx:" + paid.SheetNo))
	})

	It("lists with query filters", func() {
		createSheet()
		rec := do(http.MethodGet, "/expense-sheets?status=draft&limit=10", "employee", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list expensesheet.SheetListResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Count).To(Equal(1))

		rec = do(http.MethodGet, "/expense-sheets?status=lost", "employee", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
