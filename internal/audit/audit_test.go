package audit_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/audit"
	"github.com/frahmantamala/expense-reconciliation/internal/audit/postgres"
	auditDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/audit"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAudit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Suite")
}

var _ = Describe("Audit trail", func() {
	var (
		db      *gorm.DB
		service *audit.Service
		bus     *events.EventBus
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&auditDatamodel.AuditLog{})).To(Succeed())

		service = audit.NewService(postgres.NewAuditRepository(db), slog.Default())
		bus = events.NewEventBus(slog.Default())
		service.Register(bus)
		ctx = context.Background()
	})

	It("records every published transition", func() {
		// Given a sheet that was submitted then verified
		actor := events.Actor{ID: 2, Role: "finance"}
		submitted := events.NewTransitionEvent(events.EventTypeSheetSubmitted, events.SubjectExpenseSheet, 10, 1,
			events.Actor{ID: 1, Role: "employee"}, "draft", "pending", nil)
		verified := events.NewTransitionEvent(events.EventTypeSheetVerified, events.SubjectExpenseSheet, 10, 1,
			actor, "pending", "verified", map[string]interface{}{"sheet_no": "ES-2025-00001"})
		verified.Timestamp = submitted.Timestamp.Add(time.Second)

		// When both events go through the bus
		Expect(bus.Publish(ctx, submitted)).To(Succeed())
		Expect(bus.Publish(ctx, verified)).To(Succeed())
		Expect(bus.Wait(ctx)).To(Succeed())

		// Then the history lists them in order
		history, err := service.History(ctx, events.SubjectExpenseSheet, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(history[0].ToStatus).To(Equal("pending"))
		Expect(history[1].Action).To(Equal(events.EventTypeSheetVerified))
		Expect(history[1].ActorRole).To(Equal("finance"))
		Expect(history[1].Metadata).To(HaveKeyWithValue("sheet_no", "ES-2025-00001"))
	})

	It("ignores a replayed event", func() {
		evt := events.NewTransitionEvent(events.EventTypeAdvanceApproved, events.SubjectAdvanceRequest, 3, 1,
			events.Actor{ID: 2, Role: "finance"}, "pending", "approved", nil)

		Expect(service.Record(ctx, evt)).To(Succeed())
		Expect(service.Record(ctx, evt)).To(Succeed())

		history, err := service.History(ctx, events.SubjectAdvanceRequest, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(1))
	})

	It("keeps subjects apart", func() {
		Expect(service.Record(ctx, events.NewTransitionEvent(events.EventTypeSheetCreated, events.SubjectExpenseSheet, 5, 1,
			events.Actor{ID: 1}, "", "draft", nil))).To(Succeed())

		history, err := service.History(ctx, events.SubjectAdvanceRequest, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(BeEmpty())
	})

	It("refuses events that are not transitions", func() {
		err := service.Record(ctx, events.BaseEvent{ID: "x", Type: events.EventTypeSheetCreated})
		Expect(err).To(HaveOccurred())
	})
})
