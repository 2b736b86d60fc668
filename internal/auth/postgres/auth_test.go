package postgres_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAuthRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Repository Suite")
}

var _ = ginkgo.Describe("Auth Repository", func() {
	var (
		db   *gorm.DB
		repo *postgres.Repository
		ctx  context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(db.AutoMigrate(&userDatamodel.User{}, &userDatamodel.Permission{}, &userDatamodel.UserPermission{})).To(gomega.Succeed())

		users := []userDatamodel.User{
			{ID: 1, Email: "emp@example.com", Name: "Emp", PasswordHash: "hash-1", EmpID: "EMP-001", Department: "Ops", Role: "employee", IsActive: true},
			{ID: 2, Email: "fin@example.com", Name: "Fin", PasswordHash: "hash-2", EmpID: "EMP-002", Department: "Finance", Role: "finance", IsActive: true},
		}
		gomega.Expect(db.Create(&users).Error).To(gomega.Succeed())
		gomega.Expect(db.Model(&userDatamodel.User{}).Where("id = ?", 1).Update("is_active", false).Error).To(gomega.Succeed())
		gomega.Expect(db.Create(&userDatamodel.Permission{ID: 1, Name: auth.PermissionFinance}).Error).To(gomega.Succeed())
		gomega.Expect(db.Create(&userDatamodel.UserPermission{UserID: 2, PermissionID: 1}).Error).To(gomega.Succeed())

		repo = postgres.NewRepository(db)
		ctx = context.Background()
	})

	ginkgo.It("returns credentials including the active flag", func() {
		creds, err := repo.GetCredentials(ctx, "emp@example.com")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(creds.UserID).To(gomega.Equal(int64(1)))
		gomega.Expect(creds.PasswordHash).To(gomega.Equal("hash-1"))
		gomega.Expect(creds.IsActive).To(gomega.BeFalse())
	})

	ginkgo.It("reports unknown emails as not found", func() {
		_, err := repo.GetCredentials(ctx, "nobody@example.com")
		gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
	})

	ginkgo.It("loads an active user with role and permissions", func() {
		u, err := repo.GetUserWithPermissions(ctx, 2)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(u.Role).To(gomega.Equal(auth.RoleFinance))
		gomega.Expect(u.Permissions).To(gomega.ConsistOf(auth.PermissionFinance))
		gomega.Expect(u.IsFinance()).To(gomega.BeTrue())
	})

	ginkgo.It("does not load inactive users", func() {
		_, err := repo.GetUserWithPermissions(ctx, 1)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
	})
})
