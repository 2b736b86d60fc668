package auth

import (
	"github.com/frahmantamala/expense-reconciliation/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Policy", func() {
	var (
		policy   *Policy
		employee *User
		finance  *User
		admin    *User
	)

	BeforeEach(func() {
		policy = NewPolicy()
		employee = &User{ID: 10, Role: RoleEmployee}
		finance = &User{ID: 20, Role: RoleFinance}
		admin = &User{ID: 30, Role: RoleAdmin}
	})

	It("requires an authenticated user", func() {
		err := policy.RequireUser(nil)
		Expect(err).To(HaveOccurred())
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(401))
	})

	It("treats admins as finance", func() {
		Expect(policy.RequireFinance(admin)).To(Succeed())
		Expect(policy.RequireFinance(finance)).To(Succeed())
		Expect(policy.RequireFinance(employee)).To(MatchError(internal.ErrFinanceRequired))
	})

	It("grants finance through an explicit permission", func() {
		employee.Permissions = []string{PermissionFinance}
		Expect(policy.RequireFinance(employee)).To(Succeed())
	})

	It("allows only the owner to act as owner", func() {
		Expect(policy.RequireOwner(employee, 10)).To(Succeed())
		Expect(policy.RequireOwner(finance, 10)).To(MatchError(internal.ErrOwnerRequired))
	})

	It("lets owners and finance read a record", func() {
		Expect(policy.CanRead(employee, 10)).To(Succeed())
		Expect(policy.CanRead(finance, 10)).To(Succeed())

		other := &User{ID: 11, Role: RoleEmployee}
		Expect(policy.CanRead(other, 10)).To(MatchError(internal.ErrUnauthorizedAccess))
	})
})
