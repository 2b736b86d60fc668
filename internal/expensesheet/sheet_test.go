package expensesheet_test

import (
	"testing"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExpenseSheet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Sheet Suite")
}

var today = time.Date(2025, 3, 28, 10, 0, 0, 0, time.UTC)

func newItem(amount string) expensesheet.Item {
	return expensesheet.Item{
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ProjectName: "Metro Line 2",
		BillType:    expensesheet.BillTravel,
		Description: "Train fare to site",
		Amount:      money.MustParse(amount),
		Place:       "Pune",
		Mode:        payment.ModeUPI,
	}
}

func draftSheet(advance, previousDue string) *expensesheet.Sheet {
	s := expensesheet.NewSheet(1, 3, 2025, money.MustParse(advance), nil, money.MustParse(previousDue), "")
	s.ID = 10
	s.SheetNo = "ES-2025-00001"
	s.Version = 1
	return s
}

func hasCode(code internal.ErrorCode) OmegaMatcher {
	return WithTransform(func(err error) bool { return internal.HasCode(err, code) }, BeTrue())
}

var _ = Describe("Sheet", func() {
	Describe("totals", func() {
		It("derives total and net claim from the items", func() {
			// Given a March 2025 sheet with 5000 advance and 1200 carried over
			s := draftSheet("5000", "1200")

			// When two items are added
			_, err := s.AddItem(newItem("3000"), today)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.AddItem(newItem("1500"), today)
			Expect(err).NotTo(HaveOccurred())

			// Then totals follow the items
			Expect(money.Format(s.TotalAmount())).To(Equal("4500.00"))
			Expect(money.Format(s.NetClaimAmount())).To(Equal("700.00"))
		})

		It("keeps totals in step with updates and deletes", func() {
			s := draftSheet("0", "0")
			first, err := s.AddItem(newItem("100.10"), today)
			Expect(err).NotTo(HaveOccurred())
			second, err := s.AddItem(newItem("200.20"), today)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.UpdateItem(first.ID, newItem("50"), today)
			Expect(err).NotTo(HaveOccurred())
			Expect(money.Format(s.TotalAmount())).To(Equal("250.20"))

			Expect(s.DeleteItem(first.ID)).To(Succeed())
			Expect(money.Format(s.TotalAmount())).To(Equal("200.20"))
			Expect(s.Items).To(HaveLen(1))
			Expect(s.Items[0].ID).To(Equal(second.ID))
			Expect(s.Items[0].Position).To(Equal(1))
		})

		It("truncates amounts to two places", func() {
			s := draftSheet("0", "0")
			it, err := s.AddItem(newItem("10.999"), today)
			Expect(err).NotTo(HaveOccurred())
			Expect(money.Format(it.Amount)).To(Equal("10.99"))
		})

		It("allows a negative previous due", func() {
			s := draftSheet("0", "-300")
			_, err := s.AddItem(newItem("1000"), today)
			Expect(err).NotTo(HaveOccurred())
			Expect(money.Format(s.NetClaimAmount())).To(Equal("700.00"))
		})
	})

	Describe("item validation", func() {
		DescribeTable("rejects bad items",
			func(mutate func(*expensesheet.Item)) {
				s := draftSheet("0", "0")
				it := newItem("10")
				mutate(&it)

				_, err := s.AddItem(it, today)

				Expect(err).To(hasCode(internal.ErrCodeValidationFailed))
				Expect(s.Items).To(BeEmpty())
			},
			Entry("zero amount", func(it *expensesheet.Item) { it.Amount = money.Zero }),
			Entry("negative amount", func(it *expensesheet.Item) { it.Amount = money.MustParse("-5") }),
			Entry("amount beyond storage precision", func(it *expensesheet.Item) { it.Amount = money.MustParse("100000000000000") }),
			Entry("blank project", func(it *expensesheet.Item) { it.ProjectName = "  " }),
			Entry("blank description", func(it *expensesheet.Item) { it.Description = "" }),
			Entry("unknown bill type", func(it *expensesheet.Item) { it.BillType = "Gadgets" }),
			Entry("unknown mode", func(it *expensesheet.Item) { it.Mode = "Crypto" }),
			Entry("missing date", func(it *expensesheet.Item) { it.Date = time.Time{} }),
			Entry("future date", func(it *expensesheet.Item) { it.Date = today.AddDate(0, 0, 1) }),
		)

		It("accepts the largest storable amount", func() {
			s := draftSheet("0", "0")
			_, err := s.AddItem(newItem("999999999999.99"), today)
			Expect(err).NotTo(HaveOccurred())
			Expect(money.Format(s.TotalAmount())).To(Equal("999999999999.99"))
		})

		It("accepts an item dated today", func() {
			s := draftSheet("0", "0")
			it := newItem("10")
			it.Date = time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)
			_, err := s.AddItem(it, today)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports an unknown item id", func() {
			s := draftSheet("0", "0")
			_, err := s.UpdateItem("missing", newItem("10"), today)
			Expect(err).To(MatchError(internal.ErrItemNotFound))
			Expect(s.DeleteItem("missing")).To(MatchError(internal.ErrItemNotFound))
		})
	})

	Describe("submit", func() {
		It("refuses an empty sheet and leaves it in draft", func() {
			s := draftSheet("0", "0")

			err := s.Submit(today)

			Expect(err).To(MatchError(internal.ErrEmptySheet))
			Expect(s.Status).To(Equal(expensesheet.StatusDraft))
			Expect(s.SubmittedAt).To(BeNil())
		})

		It("moves a draft with items to pending", func() {
			s := draftSheet("0", "0")
			_, _ = s.AddItem(newItem("10"), today)

			Expect(s.Submit(today)).To(Succeed())
			Expect(s.Status).To(Equal(expensesheet.StatusPending))
			Expect(s.SubmissionCount).To(Equal(1))
			Expect(*s.SubmittedAt).To(Equal(today))
		})

		It("treats a second submit as an invalid transition", func() {
			s := draftSheet("0", "0")
			_, _ = s.AddItem(newItem("10"), today)
			Expect(s.Submit(today)).To(Succeed())

			err := s.Submit(today)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))
			Expect(appErr.Details).To(Equal(map[string]string{"current_state": "pending", "attempted": "submit"}))
			Expect(s.SubmissionCount).To(Equal(1))
		})
	})

	Describe("rejection and resubmission", func() {
		It("returns a verified sheet to pending under the same number", func() {
			// Given a verified sheet
			s := draftSheet("0", "0")
			it, _ := s.AddItem(newItem("400"), today)
			Expect(s.Submit(today)).To(Succeed())
			Expect(s.Verify(99, today)).To(Succeed())

			// When finance rejects it
			Expect(s.Reject(99, "Missing receipts", today)).To(Succeed())
			Expect(s.Status).To(Equal(expensesheet.StatusRejected))
			Expect(s.RejectionReason).To(Equal("Missing receipts"))

			// And the employee fixes an item and resubmits
			_, err := s.UpdateItem(it.ID, newItem("350"), today)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Submit(today)).To(Succeed())

			// Then it is pending again with the same sheet number
			Expect(s.Status).To(Equal(expensesheet.StatusPending))
			Expect(s.SheetNo).To(Equal("ES-2025-00001"))
			Expect(s.SubmissionCount).To(Equal(2))
			Expect(money.Format(s.TotalAmount())).To(Equal("350.00"))
		})

		It("requires a reason", func() {
			s := draftSheet("0", "0")
			_, _ = s.AddItem(newItem("10"), today)
			Expect(s.Submit(today)).To(Succeed())

			err := s.Reject(99, "   ", today)

			Expect(err).To(hasCode(internal.ErrCodeValidationFailed))
			Expect(s.Status).To(Equal(expensesheet.StatusPending))
		})
	})

	Describe("payment", func() {
		var s *expensesheet.Sheet

		BeforeEach(func() {
			s = draftSheet("5000", "1200")
			_, _ = s.AddItem(newItem("3000"), today)
			_, _ = s.AddItem(newItem("1500"), today)
			Expect(s.Submit(today)).To(Succeed())
			Expect(s.Verify(99, today)).To(Succeed())
			Expect(s.Approve(99, today)).To(Succeed())
		})

		It("pays an approved sheet and locks it", func() {
			err := s.RecordPayment(expensesheet.Payment{Mode: payment.ModeBankTransfer, PaidAmount: money.MustParse("700"), PaidBy: 99, PaidAt: today})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Status).To(Equal(expensesheet.StatusPaid))
			Expect(money.Format(s.PaidAmount())).To(Equal("700.00"))

			Expect(s.Submit(today)).To(hasCode(internal.ErrCodeSheetLocked))
			_, err = s.AddItem(newItem("1"), today)
			Expect(err).To(hasCode(internal.ErrCodeSheetLocked))
			Expect(s.UpdateHeader(expensesheet.HeaderPatch{}, today)).To(hasCode(internal.ErrCodeSheetLocked))
		})

		It("validates the payment before moving", func() {
			err := s.RecordPayment(expensesheet.Payment{Mode: "Barter", PaidAmount: money.MustParse("700")})
			Expect(err).To(hasCode(internal.ErrCodeValidationFailed))

			err = s.RecordPayment(expensesheet.Payment{Mode: payment.ModeCash, PaidAmount: money.MustParse("-1")})
			Expect(err).To(hasCode(internal.ErrCodeValidationFailed))
			Expect(s.Status).To(Equal(expensesheet.StatusApproved))
		})

		It("cannot be paid twice", func() {
			p := expensesheet.Payment{Mode: payment.ModeCash, PaidAmount: money.MustParse("700"), PaidBy: 99, PaidAt: today}
			Expect(s.RecordPayment(p)).To(Succeed())
			Expect(s.RecordPayment(p)).To(hasCode(internal.ErrCodeInvalidTransition))
		})
	})

	Describe("header", func() {
		It("applies only the fields that are set", func() {
			s := draftSheet("100", "0")
			remarks := "  site visits  "
			Expect(s.UpdateHeader(expensesheet.HeaderPatch{Remarks: &remarks}, today)).To(Succeed())
			Expect(s.Remarks).To(Equal("site visits"))
			Expect(money.Format(s.AdvanceReceived)).To(Equal("100.00"))
		})

		It("rejects a negative advance", func() {
			s := draftSheet("100", "0")
			neg := money.MustParse("-1")
			Expect(s.UpdateHeader(expensesheet.HeaderPatch{AdvanceReceived: &neg}, today)).To(hasCode(internal.ErrCodeValidationFailed))
			Expect(money.Format(s.AdvanceReceived)).To(Equal("100.00"))
		})

		It("rejects header amounts beyond storage precision", func() {
			s := draftSheet("100", "0")
			huge := money.MustParse("1000000000000")
			negHuge := huge.Neg()
			Expect(s.UpdateHeader(expensesheet.HeaderPatch{AdvanceReceived: &huge}, today)).To(hasCode(internal.ErrCodeValidationFailed))
			Expect(s.UpdateHeader(expensesheet.HeaderPatch{PreviousDue: &negHuge}, today)).To(hasCode(internal.ErrCodeValidationFailed))
			Expect(money.Format(s.AdvanceReceived)).To(Equal("100.00"))
			Expect(money.Format(s.PreviousDue)).To(Equal("0.00"))
		})
	})

	Describe("transitions", func() {
		type step func(*expensesheet.Sheet) error

		submit := func(s *expensesheet.Sheet) error { return s.Submit(today) }
		verify := func(s *expensesheet.Sheet) error { return s.Verify(99, today) }
		approve := func(s *expensesheet.Sheet) error { return s.Approve(99, today) }
		reject := func(s *expensesheet.Sheet) error { return s.Reject(99, "no", today) }
		pay := func(s *expensesheet.Sheet) error {
			return s.RecordPayment(expensesheet.Payment{Mode: payment.ModeCash, PaidAmount: money.MustParse("1"), PaidBy: 99, PaidAt: today})
		}

		reach := func(status expensesheet.Status) *expensesheet.Sheet {
			s := draftSheet("0", "0")
			_, _ = s.AddItem(newItem("1"), today)
			path := map[expensesheet.Status][]step{
				expensesheet.StatusDraft:    {},
				expensesheet.StatusPending:  {submit},
				expensesheet.StatusVerified: {submit, verify},
				expensesheet.StatusApproved: {submit, verify, approve},
				expensesheet.StatusRejected: {submit, reject},
				expensesheet.StatusPaid:     {submit, verify, approve, pay},
			}[status]
			for _, fn := range path {
				Expect(fn(s)).To(Succeed())
			}
			Expect(s.Status).To(Equal(status))
			return s
		}

		DescribeTable("follows the lifecycle graph",
			func(from expensesheet.Status, fn step, want expensesheet.Status, code internal.ErrorCode) {
				s := reach(from)
				err := fn(s)
				if code == "" {
					Expect(err).NotTo(HaveOccurred())
				} else {
					Expect(err).To(hasCode(code))
				}
				Expect(s.Status).To(Equal(want))
			},
			Entry("draft submit", expensesheet.StatusDraft, submit, expensesheet.StatusPending, internal.ErrorCode("")),
			Entry("draft verify", expensesheet.StatusDraft, verify, expensesheet.StatusDraft, internal.ErrCodeInvalidTransition),
			Entry("draft approve", expensesheet.StatusDraft, approve, expensesheet.StatusDraft, internal.ErrCodeInvalidTransition),
			Entry("draft reject", expensesheet.StatusDraft, reject, expensesheet.StatusDraft, internal.ErrCodeInvalidTransition),
			Entry("draft pay", expensesheet.StatusDraft, pay, expensesheet.StatusDraft, internal.ErrCodeInvalidTransition),
			Entry("pending submit", expensesheet.StatusPending, submit, expensesheet.StatusPending, internal.ErrCodeInvalidTransition),
			Entry("pending verify", expensesheet.StatusPending, verify, expensesheet.StatusVerified, internal.ErrorCode("")),
			Entry("pending approve", expensesheet.StatusPending, approve, expensesheet.StatusPending, internal.ErrCodeInvalidTransition),
			Entry("pending reject", expensesheet.StatusPending, reject, expensesheet.StatusRejected, internal.ErrorCode("")),
			Entry("pending pay", expensesheet.StatusPending, pay, expensesheet.StatusPending, internal.ErrCodeInvalidTransition),
			Entry("verified submit", expensesheet.StatusVerified, submit, expensesheet.StatusVerified, internal.ErrCodeInvalidTransition),
			Entry("verified verify", expensesheet.StatusVerified, verify, expensesheet.StatusVerified, internal.ErrCodeInvalidTransition),
			Entry("verified approve", expensesheet.StatusVerified, approve, expensesheet.StatusApproved, internal.ErrorCode("")),
			Entry("verified reject", expensesheet.StatusVerified, reject, expensesheet.StatusRejected, internal.ErrorCode("")),
			Entry("verified pay", expensesheet.StatusVerified, pay, expensesheet.StatusVerified, internal.ErrCodeInvalidTransition),
			Entry("approved submit", expensesheet.StatusApproved, submit, expensesheet.StatusApproved, internal.ErrCodeInvalidTransition),
			Entry("approved reject", expensesheet.StatusApproved, reject, expensesheet.StatusApproved, internal.ErrCodeInvalidTransition),
			Entry("approved pay", expensesheet.StatusApproved, pay, expensesheet.StatusPaid, internal.ErrorCode("")),
			Entry("rejected submit", expensesheet.StatusRejected, submit, expensesheet.StatusPending, internal.ErrorCode("")),
			Entry("rejected verify", expensesheet.StatusRejected, verify, expensesheet.StatusRejected, internal.ErrCodeInvalidTransition),
			Entry("paid submit", expensesheet.StatusPaid, submit, expensesheet.StatusPaid, internal.ErrCodeSheetLocked),
			Entry("paid reject", expensesheet.StatusPaid, reject, expensesheet.StatusPaid, internal.ErrCodeInvalidTransition),
			Entry("paid pay", expensesheet.StatusPaid, pay, expensesheet.StatusPaid, internal.ErrCodeInvalidTransition),
		)

		It("names the current state and trigger on a bad edge", func() {
			s := reach(expensesheet.StatusDraft)
			err := s.Approve(99, today)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details).To(Equal(map[string]string{"current_state": "draft", "attempted": "approve"}))
		})

		It("lists permitted actions per status", func() {
			Expect(expensesheet.Transitions().PermittedTriggers(expensesheet.StatusVerified)).
				To(ConsistOf(expensesheet.TriggerApprove, expensesheet.TriggerReject))
			Expect(expensesheet.Transitions().IsTerminal(expensesheet.StatusPaid)).To(BeTrue())
		})
	})
})
