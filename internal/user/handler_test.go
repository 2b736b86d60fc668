package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRepository struct {
	users map[int64]*user.User
	perms map[int64][]string
	err   error
}

func (s *stubRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepository) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms[userID], nil
}

var _ = Describe("User", func() {
	var (
		repo    *stubRepository
		service *user.Service
		handler *user.Handler
	)

	BeforeEach(func() {
		repo = &stubRepository{
			users: map[int64]*user.User{
				7: {ID: 7, Email: "asha@example.com", Name: "Asha", EmpID: "EMP-007", Department: "Sales", Role: "employee", IsActive: true},
			},
			perms: map[int64][]string{7: {"view_own_sheets"}},
		}
		service = user.NewService(repo, nil)
		handler = user.NewHandler(service)
	})

	Describe("Service.GetByID", func() {
		It("attaches permissions", func() {
			u, err := service.GetByID(context.Background(), 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(ConsistOf("view_own_sheets"))
		})

		It("keeps the not-found error visible to callers", func() {
			_, err := service.GetByID(context.Background(), 99)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("GET /users/me", func() {
		It("returns the caller profile", func() {
			// Given an authenticated request
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 7}))
			rec := httptest.NewRecorder()

			// When the handler runs
			handler.GetCurrentUser(rec, req)

			// Then the profile comes back without secrets
			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body["emp_id"]).To(Equal("EMP-007"))
			Expect(body).NotTo(HaveKey("password_hash"))
		})

		It("requires authentication", func() {
			rec := httptest.NewRecorder()
			handler.GetCurrentUser(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("hides unexpected repository failures behind a 500", func() {
			repo.err = errors.New("connection reset")
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req = req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 7}))
			rec := httptest.NewRecorder()

			handler.GetCurrentUser(rec, req)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).NotTo(ContainSubstring("connection reset"))
		})
	})
})
