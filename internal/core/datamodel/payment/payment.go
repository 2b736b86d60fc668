package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout is an immutable record of money paid out to an employee.
type Payout struct {
	ID        int64           `gorm:"primaryKey"`
	Kind      string          `gorm:"column:kind;not null;index:ix_payouts_user_kind"`
	SubjectID *int64          `gorm:"column:subject_id"`
	UserID    int64           `gorm:"column:user_id;not null;index:ix_payouts_user_kind"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Mode      string          `gorm:"column:mode;not null"`
	Reference string          `gorm:"column:reference"`
	PaidBy    int64           `gorm:"column:paid_by;not null"`
	PaidAt    time.Time       `gorm:"column:paid_at;not null"`
	Remarks   string          `gorm:"column:remarks"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Payout) TableName() string {
	return "payouts"
}
