package payment

import (
	"time"

	errors "github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/common/validation"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/shopspring/decimal"
)

// DirectPayoutInput records an ad-hoc advance handed to an employee.
type DirectPayoutInput struct {
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"payment_mode"`
	Reference string          `json:"payment_reference"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Remarks   string          `json:"remarks"`
}

func (in *DirectPayoutInput) Validate() error {
	in.Amount = money.Normalize(in.Amount)

	v := validation.NewValidator()
	v.Field("user_id", in.UserID).Required().MinInt(1, errors.ErrCodeValidationFailed)
	v.Field("amount", in.Amount).Positive().MaxAmount()
	v.Field("payment_mode", in.Mode).Required().OneOf(ModeNames())
	v.Field("payment_reference", in.Reference).MaxLength(100)
	v.Field("paid_at", in.PaidAt).NotFuture()
	v.Field("remarks", in.Remarks).MaxLength(500)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type PayoutResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	SubjectID *int64    `json:"subject_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Amount    string    `json:"amount"`
	Mode      string    `json:"payment_mode"`
	Reference string    `json:"payment_reference,omitempty"`
	PaidBy    int64     `json:"paid_by"`
	PaidAt    time.Time `json:"paid_at"`
	Remarks   string    `json:"remarks,omitempty"`
}

func NewPayoutResponse(p *Payout) PayoutResponse {
	return PayoutResponse{
		ID:        p.ID,
		Kind:      string(p.Kind),
		SubjectID: p.SubjectID,
		UserID:    p.UserID,
		Amount:    money.Format(p.Amount),
		Mode:      string(p.Mode),
		Reference: p.Reference,
		PaidBy:    p.PaidBy,
		PaidAt:    p.PaidAt,
		Remarks:   p.Remarks,
	}
}

type PayoutListResponse struct {
	Payouts []PayoutResponse `json:"payouts"`
	Total   string           `json:"total"`
}
