package transport_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BaseHandler", func() {
	var h *transport.BaseHandler

	BeforeEach(func() {
		h = transport.NewBaseHandler(slog.Default())
	})

	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body["error"]
	}

	Describe("HandleServiceError", func() {
		It("writes the status and envelope of an AppError", func() {
			rec := httptest.NewRecorder()
			h.HandleServiceError(rec, internal.NewSheetLockedError("paid"))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			body := decode(rec)
			Expect(body["type"]).To(Equal("STATE_VIOLATION"))
			Expect(body["code"]).To(Equal("SHEET_LOCKED"))
			Expect(body["details"]).To(HaveKeyWithValue("status", "paid"))
		})

		It("unwraps wrapped AppErrors", func() {
			rec := httptest.NewRecorder()
			h.HandleServiceError(rec, errors.Join(errors.New("load"), internal.ErrSheetNotFound))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("masks unexpected errors", func() {
			rec := httptest.NewRecorder()
			h.HandleServiceError(rec, errors.New("pq: relation does not exist"))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("relation"))
		})
	})

	DescribeTable("ExpectedVersion",
		func(header string, expected int64, ok bool) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if header != "" {
				req.Header.Set("If-Match", header)
			}
			v, err := h.ExpectedVersion(req)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(expected))
		},
		Entry("absent", "", int64(0), true),
		Entry("wildcard", "*", int64(0), true),
		Entry("bare number", "3", int64(3), true),
		Entry("quoted", `"4"`, int64(4), true),
		Entry("weak tag", `W/"5"`, int64(5), true),
		Entry("garbage", "abc", int64(0), false),
		Entry("zero", "0", int64(0), false),
	)
})
