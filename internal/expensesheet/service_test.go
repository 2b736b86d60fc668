package expensesheet_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/audit"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

type mockSheetRepository struct {
	mu     sync.Mutex
	sheets map[int64]*expensesheet.Sheet
	nextID int64
}

func newMockSheetRepository() *mockSheetRepository {
	return &mockSheetRepository{sheets: map[int64]*expensesheet.Sheet{}}
}

func clone(s *expensesheet.Sheet) *expensesheet.Sheet {
	c := *s
	c.Items = append([]expensesheet.Item{}, s.Items...)
	if s.Payment != nil {
		p := *s.Payment
		c.Payment = &p
	}
	return &c
}

func (m *mockSheetRepository) Create(ctx context.Context, s *expensesheet.Sheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.SheetNo = fmt.Sprintf("ES-%d-%05d", s.Year, m.nextID)
	s.Version = 1
	m.sheets[s.ID] = clone(s)
	return nil
}

func (m *mockSheetRepository) GetByID(ctx context.Context, id int64) (*expensesheet.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sheets[id]
	if !ok {
		return nil, internal.ErrSheetNotFound
	}
	return clone(s), nil
}

func (m *mockSheetRepository) ExistsForPeriod(ctx context.Context, userID int64, month, year int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sheets {
		if s.UserID == userID && s.Month == month && s.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSheetRepository) List(ctx context.Context, q expensesheet.ListQuery) ([]*expensesheet.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*expensesheet.Sheet
	for _, s := range m.sheets {
		if q.UserID != nil && s.UserID != *q.UserID {
			continue
		}
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		out = append(out, clone(s))
	}
	return out, nil
}

func (m *mockSheetRepository) Mutate(ctx context.Context, id, expectedVersion int64, fn func(*expensesheet.Sheet) error) (*expensesheet.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sheets[id]
	if !ok {
		return nil, internal.ErrSheetNotFound
	}
	if expectedVersion > 0 && stored.Version != expectedVersion {
		return nil, internal.ErrConcurrencyConflict
	}
	working := clone(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version++
	m.sheets[id] = clone(working)
	return working, nil
}

type stubBalances struct {
	outstanding decimal.Decimal
	err         error
}

func (s stubBalances) OutstandingAdvance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.outstanding, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.TransitionEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.(*events.TransitionEvent))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type stubExporter struct{}

func (stubExporter) Export(ctx context.Context, s *expensesheet.Sheet) ([]byte, error) {
	return []byte("xlsx:" + s.SheetNo), nil
}

type stubHistory struct{}

func (stubHistory) History(ctx context.Context, subjectType string, subjectID int64) ([]audit.Entry, error) {
	return []audit.Entry{{SubjectType: subjectType, SubjectID: subjectID, Action: events.EventTypeSheetSubmitted}}, nil
}

var (
	employee = &auth.User{ID: 1, Email: "asha@example.com", Role: auth.RoleEmployee}
	other    = &auth.User{ID: 2, Email: "ravi@example.com", Role: auth.RoleEmployee}
	finance  = &auth.User{ID: 99, Email: "finance@example.com", Role: auth.RoleFinance}
)

func itemDTO(amount string) expensesheet.ItemDTO {
	return expensesheet.ItemDTO{
		Date:        transport.NewDate(today.AddDate(0, 0, -3)),
		ProjectName: "Metro Line 2",
		BillType:    string(expensesheet.BillFood),
		Description: "Team lunch",
		Amount:      money.MustParse(amount),
		Mode:        "Cash",
	}
}

var _ = Describe("Service", func() {
	var (
		repo      *mockSheetRepository
		publisher *recordingPublisher
		service   *expensesheet.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = newMockSheetRepository()
		publisher = &recordingPublisher{}
		service = expensesheet.NewService(repo, nil,
			expensesheet.WithEventPublisher(publisher),
			expensesheet.WithBalanceProvider(stubBalances{outstanding: money.MustParse("800")}),
			expensesheet.WithExporter(stubExporter{}),
			expensesheet.WithHistoryReader(stubHistory{}),
			expensesheet.WithClock(func() time.Time { return today }),
		)
		ctx = context.Background()
	})

	create := func(prevDue *decimal.Decimal) *expensesheet.Sheet {
		sheet, err := service.Create(ctx, employee, expensesheet.CreateSheetDTO{
			Month: 3, Year: 2025, AdvanceReceived: money.MustParse("5000"), PreviousDue: prevDue,
		})
		Expect(err).NotTo(HaveOccurred())
		return sheet
	}

	Describe("Create", func() {
		It("opens a draft sheet and publishes it", func() {
			due := money.MustParse("1200")
			sheet := create(&due)

			Expect(sheet.Status).To(Equal(expensesheet.StatusDraft))
			Expect(sheet.SheetNo).To(Equal("ES-2025-00001"))
			Expect(money.Format(sheet.PreviousDue)).To(Equal("1200.00"))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeSheetCreated}))
		})

		DescribeTable("seeds previous due from the outstanding advance",
			func(advanceReceived, wantDue, wantNet string) {
				sheet, err := service.Create(ctx, employee, expensesheet.CreateSheetDTO{
					Month: 3, Year: 2025, AdvanceReceived: money.MustParse(advanceReceived),
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(money.Format(sheet.PreviousDue)).To(Equal(wantDue))

				_, err = sheet.AddItem(newItem("1000"), today)
				Expect(err).NotTo(HaveOccurred())
				Expect(money.Format(sheet.NetClaimAmount())).To(Equal(wantNet))
			},
			Entry("nothing entered as received", "0", "-800.00", "200.00"),
			Entry("part of it entered as received", "500", "-300.00", "200.00"),
			Entry("all of it entered as received", "800", "0.00", "200.00"),
			Entry("more received than outstanding", "5000", "0.00", "-4000.00"),
		)

		It("refuses a second sheet for the same period", func() {
			create(nil)
			_, err := service.Create(ctx, employee, expensesheet.CreateSheetDTO{Month: 3, Year: 2025})
			Expect(err).To(MatchError(internal.ErrDuplicateSheet))
		})

		It("validates the period", func() {
			_, err := service.Create(ctx, employee, expensesheet.CreateSheetDTO{Month: 13, Year: 2025})
			Expect(err).To(HaveOccurred())
			Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
		})

		It("needs an authenticated caller", func() {
			_, err := service.Create(ctx, nil, expensesheet.CreateSheetDTO{Month: 3, Year: 2025})
			Expect(internal.HasCode(err, internal.ErrCodeUnauthorizedAccess)).To(BeTrue())
		})

		It("surfaces balance lookup failures", func() {
			service = expensesheet.NewService(repo, nil, expensesheet.WithBalanceProvider(stubBalances{err: errors.New("db down")}))
			_, err := service.Create(ctx, employee, expensesheet.CreateSheetDTO{Month: 4, Year: 2025})
			Expect(err).To(MatchError("db down"))
		})
	})

	Describe("full lifecycle", func() {
		It("runs from draft to paid", func() {
			// Given a sheet with two items
			due := money.MustParse("1200")
			sheet := create(&due)
			sheet, _, err := service.AddItem(ctx, employee, sheet.ID, sheet.Version, itemDTO("3000"))
			Expect(err).NotTo(HaveOccurred())
			sheet, _, err = service.AddItem(ctx, employee, sheet.ID, sheet.Version, itemDTO("1500"))
			Expect(err).NotTo(HaveOccurred())
			Expect(money.Format(sheet.NetClaimAmount())).To(Equal("700.00"))

			// When it moves through review
			sheet, err = service.Submit(ctx, employee, sheet.ID, sheet.Version)
			Expect(err).NotTo(HaveOccurred())
			sheet, err = service.Verify(ctx, finance, sheet.ID, sheet.Version)
			Expect(err).NotTo(HaveOccurred())
			sheet, err = service.Approve(ctx, finance, sheet.ID, sheet.Version)
			Expect(err).NotTo(HaveOccurred())
			sheet, err = service.RecordPayment(ctx, finance, sheet.ID, sheet.Version, expensesheet.PaymentDTO{
				PaymentMode: "Bank Transfer", PaymentReference: "UTR123", PaidAmount: money.MustParse("700"),
			})
			Expect(err).NotTo(HaveOccurred())

			// Then it is paid and every step was published
			Expect(sheet.Status).To(Equal(expensesheet.StatusPaid))
			Expect(*sheet.VerifiedBy).To(Equal(finance.ID))
			Expect(sheet.Payment.PaidBy).To(Equal(finance.ID))
			Expect(publisher.types()).To(Equal([]string{
				events.EventTypeSheetCreated,
				events.EventTypeSheetSubmitted,
				events.EventTypeSheetVerified,
				events.EventTypeSheetApproved,
				events.EventTypeSheetPaid,
			}))

			paid := publisher.events[len(publisher.events)-1]
			Expect(paid.FromStatus).To(Equal("approved"))
			Expect(paid.ToStatus).To(Equal("paid"))
			Expect(paid.Data).To(HaveKeyWithValue("paid_amount", "700.00"))
			Expect(paid.Data).To(HaveKeyWithValue("sheet_no", sheet.SheetNo))

			// And it can no longer be edited
			_, _, err = service.AddItem(ctx, employee, sheet.ID, 0, itemDTO("1"))
			Expect(internal.HasCode(err, internal.ErrCodeSheetLocked)).To(BeTrue())
		})
	})

	Describe("authorization", func() {
		var sheet *expensesheet.Sheet

		BeforeEach(func() {
			sheet = create(nil)
			var err error
			sheet, _, err = service.AddItem(ctx, employee, sheet.ID, 0, itemDTO("10"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets only the owner edit", func() {
			_, _, err := service.AddItem(ctx, other, sheet.ID, 0, itemDTO("10"))
			Expect(err).To(MatchError(internal.ErrOwnerRequired))

			_, err = service.Submit(ctx, finance, sheet.ID, 0)
			Expect(err).To(MatchError(internal.ErrOwnerRequired))
		})

		It("keeps review transitions for finance", func() {
			_, err := service.Submit(ctx, employee, sheet.ID, 0)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Verify(ctx, employee, sheet.ID, 0)
			Expect(err).To(MatchError(internal.ErrFinanceRequired))
		})

		It("treats admin as finance", func() {
			admin := &auth.User{ID: 50, Role: auth.RoleAdmin}
			_, err := service.Submit(ctx, employee, sheet.ID, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Verify(ctx, admin, sheet.ID, 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides other employees' sheets", func() {
			_, err := service.Get(ctx, other, sheet.ID)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			got, err := service.Get(ctx, finance, sheet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(sheet.ID))
		})

		It("scopes employee listings to themselves", func() {
			someone := int64(1)
			list, err := service.List(ctx, other, expensesheet.ListQuery{UserID: &someone})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			list, err = service.List(ctx, finance, expensesheet.ListQuery{UserID: &someone})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("optimistic versions", func() {
		It("rejects a stale If-Match version", func() {
			sheet := create(nil)
			_, _, err := service.AddItem(ctx, employee, sheet.ID, sheet.Version, itemDTO("10"))
			Expect(err).NotTo(HaveOccurred())

			_, _, err = service.AddItem(ctx, employee, sheet.ID, sheet.Version, itemDTO("20"))
			Expect(err).To(MatchError(internal.ErrConcurrencyConflict))
		})
	})

	Describe("History and Export", func() {
		It("returns audit entries for readers", func() {
			sheet := create(nil)
			entries, err := service.History(ctx, employee, sheet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].SubjectID).To(Equal(sheet.ID))
		})

		It("exports only approved or paid sheets", func() {
			sheet := create(nil)
			_, _, err := service.Export(ctx, employee, sheet.ID)
			Expect(internal.HasCode(err, internal.ErrCodeExportUnavailable)).To(BeTrue())

			sheet, _, _ = service.AddItem(ctx, employee, sheet.ID, 0, itemDTO("10"))
			_, _ = service.Submit(ctx, employee, sheet.ID, 0)
			_, _ = service.Verify(ctx, finance, sheet.ID, 0)
			_, err = service.Approve(ctx, finance, sheet.ID, 0)
			Expect(err).NotTo(HaveOccurred())

			got, data, err := service.Export(ctx, employee, sheet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("xlsx:" + got.SheetNo))
		})
	})
})
