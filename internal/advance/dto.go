package advance

import (
	"strconv"
	"time"

	errors "github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/common/validation"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/transport"
	"github.com/shopspring/decimal"
)

type CreateRequestDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Purpose     string          `json:"purpose"`
	ProjectName string          `json:"project_name"`
	Remarks     string          `json:"remarks"`
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

type PaymentDTO struct {
	PaymentMode      string          `json:"payment_mode"`
	PaymentReference string          `json:"payment_reference"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
}

// DirectAdvanceDTO is cash handed out without a request.
type DirectAdvanceDTO struct {
	UserID           int64           `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMode      string          `json:"payment_mode"`
	PaymentReference string          `json:"payment_reference"`
	PaidAt           *transport.Date `json:"paid_at,omitempty"`
	Remarks          string          `json:"remarks"`
}

func (dto DirectAdvanceDTO) Input() payment.DirectPayoutInput {
	return payment.DirectPayoutInput{
		UserID:    dto.UserID,
		Amount:    dto.Amount,
		Mode:      dto.PaymentMode,
		Reference: dto.PaymentReference,
		PaidAt:    dto.PaidAt.Ptr(),
		Remarks:   dto.Remarks,
	}
}

type ListQuery struct {
	UserID *int64
	Status Status
	Limit  int
	Offset int
}

func ParseListQuery(get func(string) string) (ListQuery, error) {
	q := ListQuery{Limit: 50}

	if raw := get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return q, errors.NewValidationFieldError("user_id", "user_id must be a positive integer", errors.ErrCodeValidationFailed)
		}
		q.UserID = &id
	}
	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.NewValidationFieldError("limit", "limit must be an integer", errors.ErrCodeValidationFailed)
		}
		q.Limit = n
	}
	if raw := get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.NewValidationFieldError("offset", "offset must be an integer", errors.ErrCodeValidationFailed)
		}
		q.Offset = n
	}

	names := make([]string, 0, len(Statuses()))
	for _, s := range Statuses() {
		names = append(names, string(s))
	}
	v := validation.NewValidator()
	q.Status = Status(get("status"))
	v.Field("status", string(q.Status)).OneOf(names)
	v.Field("limit", q.Limit).MinInt(1, errors.ErrCodeValidationFailed).MaxInt(200, errors.ErrCodeValidationFailed)
	v.Field("offset", q.Offset).MinInt(0, errors.ErrCodeValidationFailed)
	if appErr := v.Validate(); appErr != nil {
		return q, appErr
	}
	return q, nil
}

type PaymentResponse struct {
	Mode       string    `json:"payment_mode"`
	Reference  string    `json:"payment_reference,omitempty"`
	PaidAmount string    `json:"paid_amount"`
	PaidBy     int64     `json:"paid_by"`
	PaidAt     time.Time `json:"paid_at"`
}

type RequestResponse struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	EmpID           string           `json:"emp_id,omitempty"`
	Department      string           `json:"department,omitempty"`
	Amount          string           `json:"amount"`
	Purpose         string           `json:"purpose"`
	ProjectName     string           `json:"project_name,omitempty"`
	Remarks         string           `json:"remarks,omitempty"`
	Status          string           `json:"status"`
	ApprovedBy      *int64           `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectedBy      *int64           `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Payment         *PaymentResponse `json:"payment_details,omitempty"`
	AllowedActions  []string         `json:"allowed_actions"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func NewRequestResponse(r *Request) RequestResponse {
	resp := RequestResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		EmpID:           r.EmpID,
		Department:      r.Department,
		Amount:          money.Format(r.Amount),
		Purpose:         r.Purpose,
		ProjectName:     r.ProjectName,
		Remarks:         r.Remarks,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		AllowedActions:  []string{},
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if p := r.Payment; p != nil {
		resp.Payment = &PaymentResponse{
			Mode:       string(p.Mode),
			Reference:  p.Reference,
			PaidAmount: money.Format(p.PaidAmount),
			PaidBy:     p.PaidBy,
			PaidAt:     p.PaidAt,
		}
	}
	for _, t := range transitions.PermittedTriggers(r.Status) {
		resp.AllowedActions = append(resp.AllowedActions, string(t))
	}
	return resp
}

type RequestListResponse struct {
	Requests []RequestResponse `json:"advance_requests"`
	Count    int               `json:"count"`
}
