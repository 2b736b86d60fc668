package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdvanceRequest struct {
	ID               int64               `gorm:"primaryKey"`
	UserID           int64               `gorm:"column:user_id;not null;index"`
	EmpID            string              `gorm:"column:emp_id"`
	Department       string              `gorm:"column:department"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Purpose          string              `gorm:"column:purpose;not null"`
	ProjectName      string              `gorm:"column:project_name"`
	Remarks          string              `gorm:"column:remarks"`
	Status           string              `gorm:"column:status;not null;index"`
	ApprovedBy       *int64              `gorm:"column:approved_by"`
	ApprovedAt       *time.Time          `gorm:"column:approved_at"`
	RejectedBy       *int64              `gorm:"column:rejected_by"`
	RejectedAt       *time.Time          `gorm:"column:rejected_at"`
	RejectionReason  string              `gorm:"column:rejection_reason"`
	PaymentMode      string              `gorm:"column:payment_mode"`
	PaymentReference string              `gorm:"column:payment_reference"`
	PaidAmount       decimal.NullDecimal `gorm:"column:paid_amount;type:numeric(14,2)"`
	PaidBy           *int64              `gorm:"column:paid_by"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	Version          int64               `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdvanceRequest) TableName() string {
	return "advance_requests"
}
