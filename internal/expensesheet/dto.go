package expensesheet

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

// CreateSheetDTO opens a sheet for the caller. A nil PreviousDue is seeded
// from the caller's outstanding advance balance.
type CreateSheetDTO struct {
	Month               int              `json:"month"`
	Year                int              `json:"year"`
	AdvanceReceived     decimal.Decimal  `json:"advance_received"`
	AdvanceReceivedDate *transport.Date  `json:"advance_received_date,omitempty"`
	PreviousDue         *decimal.Decimal `json:"previous_due,omitempty"`
	Remarks             string           `json:"remarks"`
}

func (dto *CreateSheetDTO) Validate() error {
	if appErr := validation.ValidatePeriod(dto.Month, dto.Year); appErr != nil {
		return appErr
	}

	v := validation.NewValidator()
	v.Field("advance_received", money.Normalize(dto.AdvanceReceived)).NonNegative().MaxAmount()
	if dto.PreviousDue != nil {
		v.Field("previous_due", money.Normalize(*dto.PreviousDue)).MaxAmount()
	}
	v.Field("advance_received_date", dto.AdvanceReceivedDate.Ptr()).NotFuture()
	v.Field("remarks", dto.Remarks).MaxLength(1000)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type UpdateSheetDTO struct {
	AdvanceReceived     *decimal.Decimal `json:"advance_received,omitempty"`
	AdvanceReceivedDate *transport.Date  `json:"advance_received_date,omitempty"`
	PreviousDue         *decimal.Decimal `json:"previous_due,omitempty"`
	Remarks             *string          `json:"remarks,omitempty"`
}

func (dto UpdateSheetDTO) Patch() HeaderPatch {
	return HeaderPatch{
		AdvanceReceived:     dto.AdvanceReceived,
		AdvanceReceivedDate: dto.AdvanceReceivedDate.Ptr(),
		PreviousDue:         dto.PreviousDue,
		Remarks:             dto.Remarks,
	}
}

type ItemDTO struct {
	Date        transport.Date  `json:"date"`
	ProjectName string          `json:"project_name"`
	BillType    string          `json:"bill_type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Place       string          `json:"place"`
	Mode        string          `json:"mode"`
	ReceiptURL  *string         `json:"receipt_url,omitempty"`
}

func (dto ItemDTO) Item() Item {
	return Item{
		Date:        dto.Date.Time,
		ProjectName: dto.ProjectName,
		BillType:    BillType(dto.BillType),
		Description: dto.Description,
		Amount:      money.Normalize(dto.Amount),
		Place:       dto.Place,
		Mode:        payment.Mode(dto.Mode),
		ReceiptURL:  dto.ReceiptURL,
	}
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

type PaymentDTO struct {
	PaymentMode      string          `json:"payment_mode"`
	PaymentReference string          `json:"payment_reference"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
}

// ListQuery narrows GET /expense-sheets. Employees only ever see their own sheets.
type ListQuery struct {
	UserID *int64
	Status Status
	Year   int
	Month  int
	Limit  int
	Offset int
}

func ParseListQuery(get func(string) string) (ListQuery, error) {
	q := ListQuery{Limit: 50}
	v := validation.NewValidator()

	if raw := get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return q, errors.NewValidationFieldError("user_id", "user_id must be a positive integer", errors.ErrCodeValidationFailed)
		}
		q.UserID = &id
	}
	if raw := get("status"); raw != "" {
		q.Status = Status(raw)
		statuses := make([]string, 0, len(Statuses()))
		for _, s := range Statuses() {
			statuses = append(statuses, string(s))
		}
		v.Field("status", raw).OneOf(statuses)
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"year", &q.Year}, {"month", &q.Month}, {"limit", &q.Limit}, {"offset", &q.Offset}} {
		raw := get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.NewValidationFieldError(p.name, p.name+" must be an integer", errors.ErrCodeValidationFailed)
		}
		*p.dst = n
	}
	if q.Month != 0 {
		v.Field("month", q.Month).MinInt(1, errors.ErrCodeInvalidPeriod).MaxInt(12, errors.ErrCodeInvalidPeriod)
	}
	if q.Year != 0 {
		v.Field("year", q.Year).MinInt(2000, errors.ErrCodeInvalidPeriod).MaxInt(2100, errors.ErrCodeInvalidPeriod)
	}
	v.Field("limit", q.Limit).MinInt(1, errors.ErrCodeValidationFailed).MaxInt(200, errors.ErrCodeValidationFailed)
	v.Field("offset", q.Offset).MinInt(0, errors.ErrCodeValidationFailed)

	if appErr := v.Validate(); appErr != nil {
		return q, appErr
	}
	return q, nil
}

type ItemResponse struct {
	ID          string         `json:"id"`
	Position    int            `json:"position"`
	Date        transport.Date `json:"date"`
	ProjectName string         `json:"project_name"`
	BillType    string         `json:"bill_type"`
	Description string         `json:"description"`
	Amount      string         `json:"amount"`
	Place       string         `json:"place,omitempty"`
	Mode        string         `json:"mode"`
	ReceiptURL  *string        `json:"receipt_url,omitempty"`
}

type PaymentResponse struct {
	Mode       string    `json:"payment_mode"`
	Reference  string    `json:"payment_reference,omitempty"`
	PaidAmount string    `json:"paid_amount"`
	PaidBy     int64     `json:"paid_by"`
	PaidAt     time.Time `json:"paid_at"`
}

type SheetResponse struct {
	ID                  int64            `json:"id"`
	SheetNo             string           `json:"sheet_no"`
	UserID              int64            `json:"user_id"`
	Month               int              `json:"month"`
	Year                int              `json:"year"`
	Status              string           `json:"status"`
	Items               []ItemResponse   `json:"items"`
	AdvanceReceived     string           `json:"advance_received"`
	AdvanceReceivedDate *transport.Date  `json:"advance_received_date,omitempty"`
	PreviousDue         string           `json:"previous_due"`
	Remarks             string           `json:"remarks,omitempty"`
	TotalAmount         string           `json:"total_amount"`
	NetClaimAmount      string           `json:"net_claim_amount"`
	SubmittedAt         *time.Time       `json:"submitted_at,omitempty"`
	SubmissionCount     int              `json:"submission_count"`
	VerifiedBy          *int64           `json:"verified_by,omitempty"`
	VerifiedAt          *time.Time       `json:"verified_at,omitempty"`
	ApprovedBy          *int64           `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time       `json:"approved_at,omitempty"`
	RejectedBy          *int64           `json:"rejected_by,omitempty"`
	RejectedAt          *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason     string           `json:"rejection_reason,omitempty"`
	Payment             *PaymentResponse `json:"payment,omitempty"`
	AllowedActions      []string         `json:"allowed_actions"`
	Version             int64            `json:"version"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func NewSheetResponse(s *Sheet) SheetResponse {
	resp := SheetResponse{
		ID:              s.ID,
		SheetNo:         s.SheetNo,
		UserID:          s.UserID,
		Month:           s.Month,
		Year:            s.Year,
		Status:          string(s.Status),
		Items:           make([]ItemResponse, 0, len(s.Items)),
		AdvanceReceived: money.Format(s.AdvanceReceived),
		PreviousDue:     money.Format(s.PreviousDue),
		Remarks:         s.Remarks,
		TotalAmount:     money.Format(s.TotalAmount()),
		NetClaimAmount:  money.Format(s.NetClaimAmount()),
		SubmittedAt:     s.SubmittedAt,
		SubmissionCount: s.SubmissionCount,
		VerifiedBy:      s.VerifiedBy,
		VerifiedAt:      s.VerifiedAt,
		ApprovedBy:      s.ApprovedBy,
		ApprovedAt:      s.ApprovedAt,
		RejectedBy:      s.RejectedBy,
		RejectedAt:      s.RejectedAt,
		RejectionReason: s.RejectionReason,
		AllowedActions:  []string{},
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.AdvanceReceivedDate != nil {
		d := transport.NewDate(*s.AdvanceReceivedDate)
		resp.AdvanceReceivedDate = &d
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, NewItemResponse(it))
	}
	if p := s.Payment; p != nil {
		resp.Payment = &PaymentResponse{
			Mode:       string(p.Mode),
			Reference:  p.Reference,
			PaidAmount: money.Format(p.PaidAmount),
			PaidBy:     p.PaidBy,
			PaidAt:     p.PaidAt,
		}
	}
	for _, t := range transitions.PermittedTriggers(s.Status) {
		resp.AllowedActions = append(resp.AllowedActions, string(t))
	}
	return resp
}

func NewItemResponse(it Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Position:    it.Position,
		Date:        transport.NewDate(it.Date),
		ProjectName: it.ProjectName,
		BillType:    string(it.BillType),
		Description: it.Description,
		Amount:      money.Format(it.Amount),
		Place:       it.Place,
		Mode:        string(it.Mode),
		ReceiptURL:  it.ReceiptURL,
	}
}

type SheetListResponse struct {
	Sheets []SheetResponse `json:"sheets"`
	Count  int             `json:"count"`
}
