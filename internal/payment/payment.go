package payment

import (
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/payment"
	"github.com/shopspring/decimal"
)

// Mode is how money changed hands. Item modes and payout modes share the same list.
type Mode string

const (
	ModeCash           Mode = "Cash"
	ModeUPI            Mode = "UPI"
	ModeCard           Mode = "Card"
	ModeBankTransfer   Mode = "Bank Transfer"
	ModeCheque         Mode = "Cheque"
	ModeCompanyAccount Mode = "Company Account"
)

var modes = []Mode{ModeCash, ModeUPI, ModeCard, ModeBankTransfer, ModeCheque, ModeCompanyAccount}

func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// ModeNames returns the modes as plain strings for validators and clients.
func ModeNames() []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}

func (m Mode) IsValid() bool {
	for _, known := range modes {
		if m == known {
			return true
		}
	}
	return false
}

type Kind string

const (
	KindExpenseSheet  Kind = "expense_sheet"
	KindAdvance       Kind = "advance"
	KindDirectAdvance Kind = "direct_advance"
)

// AdvanceKinds are the payouts that put advance money in an employee's hands.
func AdvanceKinds() []Kind {
	return []Kind{KindAdvance, KindDirectAdvance}
}

func (k Kind) IsValid() bool {
	switch k {
	case KindExpenseSheet, KindAdvance, KindDirectAdvance:
		return true
	}
	return false
}

// Payout is one immutable ledger entry.
type Payout struct {
	ID        int64
	Kind      Kind
	SubjectID *int64
	UserID    int64
	Amount    decimal.Decimal
	Mode      Mode
	Reference string
	PaidBy    int64
	PaidAt    time.Time
	Remarks   string
	CreatedAt time.Time
}

func ToDataModel(p *Payout) *payment.Payout {
	return &payment.Payout{
		ID:        p.ID,
		Kind:      string(p.Kind),
		SubjectID: p.SubjectID,
		UserID:    p.UserID,
		Amount:    p.Amount,
		Mode:      string(p.Mode),
		Reference: p.Reference,
		PaidBy:    p.PaidBy,
		PaidAt:    p.PaidAt,
		Remarks:   p.Remarks,
		CreatedAt: p.CreatedAt,
	}
}

func FromDataModel(row *payment.Payout) *Payout {
	return &Payout{
		ID:        row.ID,
		Kind:      Kind(row.Kind),
		SubjectID: row.SubjectID,
		UserID:    row.UserID,
		Amount:    row.Amount,
		Mode:      Mode(row.Mode),
		Reference: row.Reference,
		PaidBy:    row.PaidBy,
		PaidAt:    row.PaidAt,
		Remarks:   row.Remarks,
		CreatedAt: row.CreatedAt,
	}
}
