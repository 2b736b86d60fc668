package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	paymentpkg "github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/payment/postgres"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPaymentRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Repository Suite")
}

var _ = ginkgo.Describe("PayoutRepository", func() {
	var (
		db   *gorm.DB
		repo *postgres.PayoutRepository
		ctx  context.Context
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(db.AutoMigrate(&payment.Payout{})).To(gomega.Succeed())

		repo = postgres.NewPayoutRepository(db)
		ctx = context.Background()
	})

	ginkgo.It("inserts a payout and assigns an id", func() {
		p := &paymentpkg.Payout{Kind: paymentpkg.KindDirectAdvance, UserID: 3, Amount: money.MustParse("1000.50"), Mode: paymentpkg.ModeCash, PaidBy: 1, PaidAt: time.Now().UTC()}

		gomega.Expect(repo.Create(ctx, p)).To(gomega.Succeed())
		gomega.Expect(p.ID).To(gomega.BeNumerically(">", 0))
	})

	ginkgo.It("filters by user and kind", func() {
		sheetID := int64(12)
		rows := []*paymentpkg.Payout{
			{Kind: paymentpkg.KindAdvance, UserID: 3, Amount: money.MustParse("500"), Mode: paymentpkg.ModeUPI, PaidBy: 1, PaidAt: time.Now().UTC()},
			{Kind: paymentpkg.KindExpenseSheet, SubjectID: &sheetID, UserID: 3, Amount: money.MustParse("700"), Mode: paymentpkg.ModeBankTransfer, PaidBy: 1, PaidAt: time.Now().UTC()},
			{Kind: paymentpkg.KindDirectAdvance, UserID: 4, Amount: money.MustParse("900"), Mode: paymentpkg.ModeCash, PaidBy: 1, PaidAt: time.Now().UTC()},
		}
		for _, p := range rows {
			gomega.Expect(repo.Create(ctx, p)).To(gomega.Succeed())
		}

		all, err := repo.ListByUser(ctx, 3)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(all).To(gomega.HaveLen(2))

		advances, err := repo.ListByUser(ctx, 3, paymentpkg.AdvanceKinds()...)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(advances).To(gomega.HaveLen(1))
		gomega.Expect(advances[0].Amount.Equal(money.MustParse("500"))).To(gomega.BeTrue())
	})

	ginkgo.It("writes inside a caller transaction", func() {
		err := db.Transaction(func(tx *gorm.DB) error {
			return postgres.Insert(tx, &paymentpkg.Payout{Kind: paymentpkg.KindAdvance, UserID: 8, Amount: money.MustParse("10"), Mode: paymentpkg.ModeCard, PaidBy: 2, PaidAt: time.Now().UTC()})
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		var count int64
		gomega.Expect(db.Model(&payment.Payout{}).Where("user_id = ?", 8).Count(&count).Error).To(gomega.Succeed())
		gomega.Expect(count).To(gomega.Equal(int64(1)))
	})
})
