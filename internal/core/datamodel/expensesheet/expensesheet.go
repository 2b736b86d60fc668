package expensesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseSheet struct {
	ID                  int64               `gorm:"primaryKey"`
	SheetNo             string              `gorm:"column:sheet_no;uniqueIndex;not null"`
	UserID              int64               `gorm:"column:user_id;not null;uniqueIndex:ux_expense_sheets_period"`
	Month               int                 `gorm:"column:month;not null;uniqueIndex:ux_expense_sheets_period"`
	Year                int                 `gorm:"column:year;not null;uniqueIndex:ux_expense_sheets_period"`
	Status              string              `gorm:"column:status;not null;index"`
	AdvanceReceived     decimal.Decimal     `gorm:"column:advance_received;type:numeric(14,2);not null"`
	AdvanceReceivedDate *time.Time          `gorm:"column:advance_received_date;type:date"`
	PreviousDue         decimal.Decimal     `gorm:"column:previous_due;type:numeric(14,2);not null"`
	Remarks             string              `gorm:"column:remarks"`
	SubmittedAt         *time.Time          `gorm:"column:submitted_at"`
	SubmissionCount     int                 `gorm:"column:submission_count;not null;default:0"`
	VerifiedBy          *int64              `gorm:"column:verified_by"`
	VerifiedAt          *time.Time          `gorm:"column:verified_at"`
	ApprovedBy          *int64              `gorm:"column:approved_by"`
	ApprovedAt          *time.Time          `gorm:"column:approved_at"`
	RejectedBy          *int64              `gorm:"column:rejected_by"`
	RejectedAt          *time.Time          `gorm:"column:rejected_at"`
	RejectionReason     string              `gorm:"column:rejection_reason"`
	PaymentMode         string              `gorm:"column:payment_mode"`
	PaymentReference    string              `gorm:"column:payment_reference"`
	PaidAmount          decimal.NullDecimal `gorm:"column:paid_amount;type:numeric(14,2)"`
	PaidBy              *int64              `gorm:"column:paid_by"`
	PaidAt              *time.Time          `gorm:"column:paid_at"`
	Version             int64               `gorm:"column:version;not null;default:1"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items []ExpenseItem `gorm:"foreignKey:SheetID"`
}

func (ExpenseSheet) TableName() string {
	return "expense_sheets"
}

type ExpenseItem struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	SheetID     int64           `gorm:"column:sheet_id;not null;index"`
	Position    int             `gorm:"column:position;not null"`
	Date        time.Time       `gorm:"column:date;type:date;not null"`
	ProjectName string          `gorm:"column:project_name;not null"`
	BillType    string          `gorm:"column:bill_type;not null"`
	Description string          `gorm:"column:description;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Place       string          `gorm:"column:place"`
	Mode        string          `gorm:"column:mode;not null"`
	ReceiptURL  *string         `gorm:"column:receipt_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ExpenseItem) TableName() string {
	return "expense_items"
}

// SheetCounter holds the last sheet number issued for a year.
type SheetCounter struct {
	Year      int   `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastValue int64 `gorm:"column:last_value;not null"`
}

func (SheetCounter) TableName() string {
	return "sheet_counters"
}
