package advance

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/common/validation"
	advanceDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/advance"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/core/workflow"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
	// StatusWithdrawn is never stored. A withdrawn request is deleted.
	StatusWithdrawn Status = "withdrawn"
)

func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusPaid}
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
	TriggerApprove  Trigger = "approve"
	TriggerReject   Trigger = "reject"
	TriggerPay      Trigger = "pay"
	TriggerWithdraw Trigger = "withdraw"
)

var transitions = buildTransitions()

func buildTransitions() *workflow.Table[Status, Trigger] {
	t := workflow.NewTable[Status, Trigger]()
	t.Configure(StatusPending).
		Permit(TriggerApprove, StatusApproved).
		Permit(TriggerReject, StatusRejected).
		Permit(TriggerWithdraw, StatusWithdrawn)
	t.Configure(StatusApproved).Permit(TriggerPay, StatusPaid)
	t.Configure(StatusRejected).Terminal()
	t.Configure(StatusPaid).Terminal()
	t.Configure(StatusWithdrawn).Terminal()
	return t
}

func Transitions() *workflow.Table[Status, Trigger] {
	return transitions
}

type Payment struct {
	Mode       payment.Mode
	Reference  string
	PaidAmount decimal.Decimal
	PaidBy     int64
	PaidAt     time.Time
}

// Request is an employee's ask for money ahead of spending it.
type Request struct {
	ID              int64
	UserID          int64
	EmpID           string
	Department      string
	Amount          decimal.Decimal
	Purpose         string
	ProjectName     string
	Remarks         string
	Status          Status
	ApprovedBy      *int64
	ApprovedAt      *time.Time
	RejectedBy      *int64
	RejectedAt      *time.Time
	RejectionReason string
	Payment         *Payment
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewRequest(userID int64, empID, department string, amount decimal.Decimal, purpose, projectName, remarks string) *Request {
	return &Request{
		UserID:      userID,
		EmpID:       empID,
		Department:  department,
		Amount:      money.Normalize(amount),
		Purpose:     strings.TrimSpace(purpose),
		ProjectName: strings.TrimSpace(projectName),
		Remarks:     strings.TrimSpace(remarks),
		Status:      StatusPending,
	}
}

func (r *Request) Validate() error {
	v := validation.NewValidator()
	v.Field("amount", r.Amount).Positive().MaxAmount()
	v.Field("purpose", r.Purpose).Required().MaxLength(500)
	v.Field("project_name", r.ProjectName).MaxLength(200)
	v.Field("remarks", r.Remarks).MaxLength(1000)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (r *Request) fire(trigger Trigger) (Status, error) {
	next, err := transitions.Next(r.Status, trigger)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			return r.Status, internal.NewInvalidTransitionError(string(r.Status), string(trigger))
		}
		return r.Status, err
	}
	return next, nil
}

// Withdraw only checks the guard. The repository deletes the row.
func (r *Request) Withdraw() error {
	_, err := r.fire(TriggerWithdraw)
	return err
}

func (r *Request) Approve(approvedBy int64, now time.Time) error {
	next, err := r.fire(TriggerApprove)
	if err != nil {
		return err
	}
	r.Status = next
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	return nil
}

func (r *Request) Reject(rejectedBy int64, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required", internal.ErrCodeValidationFailed)
	}
	next, err := r.fire(TriggerReject)
	if err != nil {
		return err
	}
	r.Status = next
	r.RejectedBy = &rejectedBy
	r.RejectedAt = &now
	r.RejectionReason = reason
	return nil
}

// RecordPayment pays an approved request. A zero paid amount means the requested amount;
// more than the requested amount is refused.
func (r *Request) RecordPayment(p Payment) error {
	p.PaidAmount = money.Normalize(p.PaidAmount)
	if p.PaidAmount.IsZero() {
		p.PaidAmount = r.Amount
	}

	v := validation.NewValidator()
	v.Field("payment_mode", string(p.Mode)).Required().OneOf(payment.ModeNames())
	v.Field("paid_amount", p.PaidAmount).Positive().AtMost(r.Amount)
	v.Field("payment_reference", p.Reference).MaxLength(100)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	next, err := r.fire(TriggerPay)
	if err != nil {
		return err
	}
	r.Status = next
	r.Payment = &p
	return nil
}

func ToDataModel(r *Request) *advanceDatamodel.AdvanceRequest {
	row := &advanceDatamodel.AdvanceRequest{
		ID:              r.ID,
		UserID:          r.UserID,
		EmpID:           r.EmpID,
		Department:      r.Department,
		Amount:          r.Amount,
		Purpose:         r.Purpose,
		ProjectName:     r.ProjectName,
		Remarks:         r.Remarks,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if p := r.Payment; p != nil {
		paidBy, paidAt := p.PaidBy, p.PaidAt
		row.PaymentMode = string(p.Mode)
		row.PaymentReference = p.Reference
		row.PaidAmount = decimal.NewNullDecimal(p.PaidAmount)
		row.PaidBy = &paidBy
		row.PaidAt = &paidAt
	}
	return row
}

func FromDataModel(row *advanceDatamodel.AdvanceRequest) *Request {
	r := &Request{
		ID:              row.ID,
		UserID:          row.UserID,
		EmpID:           row.EmpID,
		Department:      row.Department,
		Amount:          row.Amount,
		Purpose:         row.Purpose,
		ProjectName:     row.ProjectName,
		Remarks:         row.Remarks,
		Status:          Status(row.Status),
		ApprovedBy:      row.ApprovedBy,
		ApprovedAt:      row.ApprovedAt,
		RejectedBy:      row.RejectedBy,
		RejectedAt:      row.RejectedAt,
		RejectionReason: row.RejectionReason,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if row.PaidAmount.Valid && row.PaidBy != nil && row.PaidAt != nil {
		r.Payment = &Payment{
			Mode:       payment.Mode(row.PaymentMode),
			Reference:  row.PaymentReference,
			PaidAmount: row.PaidAmount.Decimal,
			PaidBy:     *row.PaidBy,
			PaidAt:     *row.PaidAt,
		}
	}
	return r
}
