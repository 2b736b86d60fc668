package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/expense-reconciliation/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RBACAuthorization", func() {
	var (
		rbac *RBACAuthorization
		ok   http.Handler
	)

	BeforeEach(func() {
		rbac = NewRBACAuthorization(NewPermissionChecker(), slog.Default())
		ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	serve := func(h http.Handler, user *User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/payouts", nil)
		if user != nil {
			req = req.WithContext(ContextWithUser(context.Background(), user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	Context("RequireFinance", func() {
		It("lets finance through", func() {
			rec := serve(rbac.RequireFinance()(ok), &User{ID: 2, Role: RoleFinance})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("refuses employees with the error envelope", func() {
			rec := serve(rbac.RequireFinance()(ok), &User{ID: 1, Role: RoleEmployee})
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			var body map[string]map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["error"]["code"]).To(Equal(string(internal.ErrCodeFinanceRequired)))
		})

		It("refuses anonymous callers", func() {
			rec := serve(rbac.RequireFinance()(ok), nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Context("Middleware", func() {
		It("checks a single permission", func() {
			guarded := rbac.Middleware(PermissionPaySheets)(ok)

			Expect(serve(guarded, &User{ID: 2, Role: RoleFinance}).Code).To(Equal(http.StatusOK))
			Expect(serve(guarded, &User{ID: 1, Role: RoleEmployee}).Code).To(Equal(http.StatusForbidden))
			Expect(serve(guarded, &User{ID: 3, Role: RoleEmployee, Permissions: []string{PermissionPaySheets}}).Code).To(Equal(http.StatusOK))
		})
	})
})
