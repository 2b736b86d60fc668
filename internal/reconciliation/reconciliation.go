// Package reconciliation derives advance balances and annual summaries from
// payouts and expense sheets. Nothing here is stored; every figure can be
// recomputed from the ledger and the sheets at any time.
package reconciliation

import (
	"sort"

	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/shopspring/decimal"
)

// SheetFigures is the slice of a sheet the projections need.
type SheetFigures struct {
	SheetID         int64
	SheetNo         string
	Month           int
	Year            int
	Status          expensesheet.Status
	TotalAmount     decimal.Decimal
	AdvanceReceived decimal.Decimal
	PreviousDue     decimal.Decimal
	PaidAmount      decimal.Decimal
}

func (f SheetFigures) NetClaimAmount() decimal.Decimal {
	return money.Normalize(f.TotalAmount.Sub(f.AdvanceReceived).Add(f.PreviousDue))
}

// FiguresOf reduces a loaded sheet to its figures.
func FiguresOf(s *expensesheet.Sheet) SheetFigures {
	return SheetFigures{
		SheetID:         s.ID,
		SheetNo:         s.SheetNo,
		Month:           s.Month,
		Year:            s.Year,
		Status:          s.Status,
		TotalAmount:     s.TotalAmount(),
		AdvanceReceived: s.AdvanceReceived,
		PreviousDue:     s.PreviousDue,
		PaidAmount:      s.PaidAmount(),
	}
}

type PayoutFigures struct {
	Kind   payment.Kind
	Amount decimal.Decimal
}

type Balance struct {
	UserID                          int64
	TotalAdvancePaid                decimal.Decimal
	TotalReconciledViaExpenseSheets decimal.Decimal
	Outstanding                     decimal.Decimal
}

type MonthSummary struct {
	Month          int
	SheetNo        string
	Status         expensesheet.Status
	TotalAmount    decimal.Decimal
	NetClaimAmount decimal.Decimal
	PaidAmount     decimal.Decimal
}

type Summary struct {
	UserID                    int64
	Year                      int
	TotalClaimed              decimal.Decimal
	TotalPaid                 decimal.Decimal
	TotalPending              decimal.Decimal
	BalanceDue                decimal.Decimal
	OutstandingAdvanceBalance decimal.Decimal
	Months                    []MonthSummary
}

// ComputeBalance sums advance payouts and subtracts what paid sheets absorbed.
// A paid sheet absorbs total_amount - paid_amount.
func ComputeBalance(userID int64, payouts []PayoutFigures, sheets []SheetFigures) Balance {
	paid := money.Zero
	for _, p := range payouts {
		if p.Kind == payment.KindAdvance || p.Kind == payment.KindDirectAdvance {
			paid = paid.Add(p.Amount)
		}
	}

	reconciled := money.Zero
	for _, s := range sheets {
		if s.Status != expensesheet.StatusPaid {
			continue
		}
		reconciled = reconciled.Add(s.TotalAmount.Sub(s.PaidAmount))
	}

	return Balance{
		UserID:                          userID,
		TotalAdvancePaid:                money.Normalize(paid),
		TotalReconciledViaExpenseSheets: money.Normalize(reconciled),
		Outstanding:                     money.Normalize(paid.Sub(reconciled)),
	}
}

func counts(s expensesheet.Status) bool {
	switch s {
	case expensesheet.StatusPending, expensesheet.StatusVerified, expensesheet.StatusApproved, expensesheet.StatusPaid:
		return true
	}
	return false
}

// ComputeSummary projects one year of sheets. Draft and rejected sheets are left out.
func ComputeSummary(userID int64, year int, sheets []SheetFigures, balance Balance) Summary {
	sum := Summary{
		UserID:                    userID,
		Year:                      year,
		TotalClaimed:              money.Zero,
		TotalPaid:                 money.Zero,
		TotalPending:              money.Zero,
		BalanceDue:                money.Zero,
		OutstandingAdvanceBalance: balance.Outstanding,
		Months:                    []MonthSummary{},
	}

	due := money.Zero
	for _, s := range sheets {
		if s.Year != year || !counts(s.Status) {
			continue
		}
		net := s.NetClaimAmount()
		sum.TotalClaimed = sum.TotalClaimed.Add(s.TotalAmount)

		switch s.Status {
		case expensesheet.StatusPaid:
			sum.TotalPaid = sum.TotalPaid.Add(s.PaidAmount)
			due = due.Add(net)
		case expensesheet.StatusApproved:
			sum.TotalPending = sum.TotalPending.Add(net)
			due = due.Add(net)
		default:
			sum.TotalPending = sum.TotalPending.Add(net)
		}

		sum.Months = append(sum.Months, MonthSummary{
			Month:          s.Month,
			SheetNo:        s.SheetNo,
			Status:         s.Status,
			TotalAmount:    money.Normalize(s.TotalAmount),
			NetClaimAmount: net,
			PaidAmount:     money.Normalize(s.PaidAmount),
		})
	}

	sum.TotalClaimed = money.Normalize(sum.TotalClaimed)
	sum.TotalPaid = money.Normalize(sum.TotalPaid)
	sum.TotalPending = money.Normalize(sum.TotalPending)
	sum.BalanceDue = money.Normalize(due.Sub(sum.TotalPaid))
	sort.Slice(sum.Months, func(i, j int) bool { return sum.Months[i].Month < sum.Months[j].Month })
	return sum
}
