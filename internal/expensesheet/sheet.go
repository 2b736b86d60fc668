package expensesheet

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/common/validation"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/core/workflow"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

func Statuses() []Status {
	return []Status{StatusDraft, StatusPending, StatusVerified, StatusApproved, StatusRejected, StatusPaid}
}

func (s Status) IsValid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

type Trigger string

const (
	TriggerSubmit  Trigger = "submit"
	TriggerVerify  Trigger = "verify"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerPay     Trigger = "pay"
)

var transitions = buildTransitions()

func buildTransitions() *workflow.Table[Status, Trigger] {
	t := workflow.NewTable[Status, Trigger]()
	t.Configure(StatusDraft).Permit(TriggerSubmit, StatusPending)
	t.Configure(StatusPending).
		Permit(TriggerVerify, StatusVerified).
		Permit(TriggerReject, StatusRejected)
	t.Configure(StatusVerified).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected)
	t.Configure(StatusApproved).Permit(TriggerPay, StatusPaid)
	t.Configure(StatusRejected).Permit(TriggerSubmit, StatusPending)
	t.Configure(StatusPaid).Terminal()
	return t
}

// Transitions exposes the sheet state machine for catalog and tests.
func Transitions() *workflow.Table[Status, Trigger] {
	return transitions
}

type BillType string

const (
	BillTravel              BillType = "Travel"
	BillLocalConveyance     BillType = "Local Conveyance"
	BillFood                BillType = "Food"
	BillLodging             BillType = "Lodging"
	BillFuel                BillType = "Fuel"
	BillTollParking         BillType = "Toll & Parking"
	BillCourier             BillType = "Courier"
	BillPrintingStationery  BillType = "Printing & Stationery"
	BillTelephoneInternet   BillType = "Telephone & Internet"
	BillClientEntertainment BillType = "Client Entertainment"
	BillOfficeSupplies      BillType = "Office Supplies"
	BillRepairsMaintenance  BillType = "Repairs & Maintenance"
	BillMedical             BillType = "Medical"
	BillMiscellaneous       BillType = "Miscellaneous"
)

var billTypes = []BillType{
	BillTravel, BillLocalConveyance, BillFood, BillLodging, BillFuel, BillTollParking, BillCourier,
	BillPrintingStationery, BillTelephoneInternet, BillClientEntertainment, BillOfficeSupplies,
	BillRepairsMaintenance, BillMedical, BillMiscellaneous,
}

func BillTypes() []BillType {
	out := make([]BillType, len(billTypes))
	copy(out, billTypes)
	return out
}

func BillTypeNames() []string {
	out := make([]string, len(billTypes))
	for i, b := range billTypes {
		out[i] = string(b)
	}
	return out
}

// Item is one expense line. ID is stable for the life of the item; Position only orders display.
type Item struct {
	ID          string
	Position    int
	Date        time.Time
	ProjectName string
	BillType    BillType
	Description string
	Amount      decimal.Decimal
	Place       string
	Mode        payment.Mode
	ReceiptURL  *string
}

// Validate checks the item invariants against the current clock.
func (it Item) Validate(now time.Time) error {
	v := validation.NewValidator()
	v.Field("date", it.Date).Required().Custom(notAfterToday("date", now))
	v.Field("project_name", it.ProjectName).Required().MaxLength(200)
	v.Field("bill_type", string(it.BillType)).Required().OneOf(BillTypeNames())
	v.Field("description", it.Description).Required().MaxLength(500)
	v.Field("amount", it.Amount).Positive().MaxAmount()
	v.Field("place", it.Place).MaxLength(200)
	v.Field("mode", string(it.Mode)).Required().OneOf(payment.ModeNames())
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// notAfterToday compares calendar days in UTC.
func notAfterToday(field string, now time.Time) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		t, ok := value.(time.Time)
		if !ok || t.IsZero() {
			return nil
		}
		y, m, d := t.Date()
		ty, tm, td := now.UTC().Date()
		if time.Date(y, m, d, 0, 0, 0, 0, time.UTC).After(time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)) {
			return internal.NewValidationFieldError(field, field+" cannot be in the future", internal.ErrCodeInvalidDate)
		}
		return nil
	}
}

// Payment is recorded when finance pays an approved sheet.
type Payment struct {
	Mode       payment.Mode
	Reference  string
	PaidAmount decimal.Decimal
	PaidBy     int64
	PaidAt     time.Time
}

// HeaderPatch edits sheet-level fields. Nil fields are left unchanged.
type HeaderPatch struct {
	AdvanceReceived     *decimal.Decimal
	AdvanceReceivedDate *time.Time
	PreviousDue         *decimal.Decimal
	Remarks             *string
}

type Sheet struct {
	ID                  int64
	SheetNo             string
	UserID              int64
	Month               int
	Year                int
	Status              Status
	Items               []Item
	AdvanceReceived     decimal.Decimal
	AdvanceReceivedDate *time.Time
	PreviousDue         decimal.Decimal
	Remarks             string

	SubmittedAt     *time.Time
	SubmissionCount int
	VerifiedBy      *int64
	VerifiedAt      *time.Time
	ApprovedBy      *int64
	ApprovedAt      *time.Time
	RejectedBy      *int64
	RejectedAt      *time.Time
	RejectionReason string
	Payment         *Payment

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSheet returns a draft sheet. Amounts are truncated to two places.
func NewSheet(userID int64, month, year int, advanceReceived decimal.Decimal, advanceReceivedDate *time.Time, previousDue decimal.Decimal, remarks string) *Sheet {
	return &Sheet{
		UserID:              userID,
		Month:               month,
		Year:                year,
		Status:              StatusDraft,
		Items:               []Item{},
		AdvanceReceived:     money.Normalize(advanceReceived),
		AdvanceReceivedDate: advanceReceivedDate,
		PreviousDue:         money.Normalize(previousDue),
		Remarks:             strings.TrimSpace(remarks),
	}
}

// TotalAmount is the sum of the current item amounts.
func (s *Sheet) TotalAmount() decimal.Decimal {
	total := money.Zero
	for _, it := range s.Items {
		total = total.Add(it.Amount)
	}
	return money.Normalize(total)
}

// NetClaimAmount is total - advance received + previous due.
func (s *Sheet) NetClaimAmount() decimal.Decimal {
	return money.Normalize(s.TotalAmount().Sub(s.AdvanceReceived).Add(s.PreviousDue))
}

// PaidAmount is zero until the sheet is paid.
func (s *Sheet) PaidAmount() decimal.Decimal {
	if s.Payment == nil {
		return money.Zero
	}
	return s.Payment.PaidAmount
}

func (s *Sheet) IsEditable() bool {
	return s.Status == StatusDraft || s.Status == StatusRejected
}

func (s *Sheet) IsExportable() bool {
	return s.Status == StatusApproved || s.Status == StatusPaid
}

func (s *Sheet) ensureEditable() error {
	if !s.IsEditable() {
		return internal.NewSheetLockedError(string(s.Status))
	}
	return nil
}

func (s *Sheet) findItem(itemID string) int {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Item returns a copy of the item with the given id.
func (s *Sheet) Item(itemID string) (Item, bool) {
	i := s.findItem(itemID)
	if i < 0 {
		return Item{}, false
	}
	return s.Items[i], true
}

// AddItem appends item with a fresh id and returns the stored copy.
func (s *Sheet) AddItem(item Item, now time.Time) (Item, error) {
	if err := s.ensureEditable(); err != nil {
		return Item{}, err
	}
	item.Amount = money.Normalize(item.Amount)
	if err := item.Validate(now); err != nil {
		return Item{}, err
	}

	item.ID = uuid.NewString()
	item.Position = len(s.Items) + 1
	s.Items = append(s.Items, item)
	return item, nil
}

// UpdateItem replaces the fields of an existing item, keeping its id and position.
func (s *Sheet) UpdateItem(itemID string, item Item, now time.Time) (Item, error) {
	if err := s.ensureEditable(); err != nil {
		return Item{}, err
	}
	i := s.findItem(itemID)
	if i < 0 {
		return Item{}, internal.ErrItemNotFound
	}
	item.Amount = money.Normalize(item.Amount)
	if err := item.Validate(now); err != nil {
		return Item{}, err
	}

	item.ID = s.Items[i].ID
	item.Position = s.Items[i].Position
	s.Items[i] = item
	return item, nil
}

func (s *Sheet) DeleteItem(itemID string) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	i := s.findItem(itemID)
	if i < 0 {
		return internal.ErrItemNotFound
	}

	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	for j := range s.Items {
		s.Items[j].Position = j + 1
	}
	return nil
}

func (s *Sheet) UpdateHeader(patch HeaderPatch, now time.Time) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}

	v := validation.NewValidator()
	if patch.AdvanceReceived != nil {
		v.Field("advance_received", money.Normalize(*patch.AdvanceReceived)).NonNegative().MaxAmount()
	}
	if patch.PreviousDue != nil {
		v.Field("previous_due", money.Normalize(*patch.PreviousDue)).MaxAmount()
	}
	if patch.AdvanceReceivedDate != nil {
		v.Field("advance_received_date", *patch.AdvanceReceivedDate).Custom(notAfterToday("advance_received_date", now))
	}
	if patch.Remarks != nil {
		v.Field("remarks", *patch.Remarks).MaxLength(1000)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	if patch.AdvanceReceived != nil {
		s.AdvanceReceived = money.Normalize(*patch.AdvanceReceived)
	}
	if patch.AdvanceReceivedDate != nil {
		d := *patch.AdvanceReceivedDate
		s.AdvanceReceivedDate = &d
	}
	if patch.PreviousDue != nil {
		s.PreviousDue = money.Normalize(*patch.PreviousDue)
	}
	if patch.Remarks != nil {
		s.Remarks = strings.TrimSpace(*patch.Remarks)
	}
	return nil
}

func (s *Sheet) fire(trigger Trigger) (Status, error) {
	next, err := transitions.Next(s.Status, trigger)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			return s.Status, internal.NewInvalidTransitionError(string(s.Status), string(trigger))
		}
		return s.Status, err
	}
	return next, nil
}

// Submit moves a draft or rejected sheet to pending. A rejected sheet keeps its sheet number.
// A paid sheet is locked; other states without a submit edge fail as invalid transitions.
func (s *Sheet) Submit(now time.Time) error {
	if s.Status == StatusPaid {
		return internal.NewSheetLockedError(string(s.Status))
	}
	next, err := s.fire(TriggerSubmit)
	if err != nil {
		return err
	}
	if len(s.Items) == 0 {
		return internal.NewEmptySheetError()
	}

	s.Status = next
	s.SubmittedAt = &now
	s.SubmissionCount++
	return nil
}

func (s *Sheet) Verify(verifiedBy int64, now time.Time) error {
	next, err := s.fire(TriggerVerify)
	if err != nil {
		return err
	}
	s.Status = next
	s.VerifiedBy = &verifiedBy
	s.VerifiedAt = &now
	return nil
}

func (s *Sheet) Approve(approvedBy int64, now time.Time) error {
	next, err := s.fire(TriggerApprove)
	if err != nil {
		return err
	}
	s.Status = next
	s.ApprovedBy = &approvedBy
	s.ApprovedAt = &now
	return nil
}

func (s *Sheet) Reject(rejectedBy int64, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required", internal.ErrCodeValidationFailed)
	}
	next, err := s.fire(TriggerReject)
	if err != nil {
		return err
	}
	s.Status = next
	s.RejectedBy = &rejectedBy
	s.RejectedAt = &now
	s.RejectionReason = reason
	return nil
}

func (s *Sheet) RecordPayment(p Payment) error {
	p.PaidAmount = money.Normalize(p.PaidAmount)

	v := validation.NewValidator()
	v.Field("payment_mode", string(p.Mode)).Required().OneOf(payment.ModeNames())
	v.Field("paid_amount", p.PaidAmount).NonNegative().MaxAmount()
	v.Field("payment_reference", p.Reference).MaxLength(100)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	next, err := s.fire(TriggerPay)
	if err != nil {
		return err
	}
	s.Status = next
	s.Payment = &p
	return nil
}

func paymentMode(raw string) payment.Mode {
	return payment.Mode(strings.TrimSpace(raw))
}
