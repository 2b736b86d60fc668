package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/reconciliation"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ReadRepository is the sqlx read side behind balances and summaries.
type ReadRepository struct {
	db *sqlx.DB
}

func NewReadRepository(db *sqlx.DB) *ReadRepository {
	return &ReadRepository{db: db}
}

type sheetRow struct {
	ID              int64               `db:"id"`
	SheetNo         string              `db:"sheet_no"`
	Month           int                 `db:"month"`
	Year            int                 `db:"year"`
	Status          string              `db:"status"`
	AdvanceReceived decimal.Decimal     `db:"advance_received"`
	PreviousDue     decimal.Decimal     `db:"previous_due"`
	PaidAmount      decimal.NullDecimal `db:"paid_amount"`
	TotalAmount     decimal.Decimal     `db:"total_amount"`
}

const sheetFiguresQuery = `
SELECT s.id, s.sheet_no, s.month, s.year, s.status,
       s.advance_received, s.previous_due, s.paid_amount,
       COALESCE(SUM(i.amount), 0) AS total_amount
FROM expense_sheets s
LEFT JOIN expense_items i ON i.sheet_id = s.id
WHERE s.user_id = ?
GROUP BY s.id, s.sheet_no, s.month, s.year, s.status, s.advance_received, s.previous_due, s.paid_amount
ORDER BY s.year, s.month`

func (r *ReadRepository) SheetFigures(ctx context.Context, userID int64) ([]reconciliation.SheetFigures, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var rows []sheetRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(sheetFiguresQuery), userID); err != nil {
		return nil, fmt.Errorf("sheet figures query: %w", err)
	}

	out := make([]reconciliation.SheetFigures, 0, len(rows))
	for _, row := range rows {
		paid := decimal.Zero
		if row.PaidAmount.Valid {
			paid = row.PaidAmount.Decimal
		}
		out = append(out, reconciliation.SheetFigures{
			SheetID:         row.ID,
			SheetNo:         row.SheetNo,
			Month:           row.Month,
			Year:            row.Year,
			Status:          expensesheet.Status(row.Status),
			TotalAmount:     row.TotalAmount,
			AdvanceReceived: row.AdvanceReceived,
			PreviousDue:     row.PreviousDue,
			PaidAmount:      paid,
		})
	}
	return out, nil
}

type payoutRow struct {
	Kind   string          `db:"kind"`
	Amount decimal.Decimal `db:"amount"`
}

func (r *ReadRepository) AdvancePayouts(ctx context.Context, userID int64) ([]reconciliation.PayoutFigures, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	kinds := make([]string, 0, 2)
	for _, k := range payment.AdvanceKinds() {
		kinds = append(kinds, string(k))
	}
	query, args, err := sqlx.In(`SELECT kind, amount FROM payouts WHERE user_id = ? AND kind IN (?)`, userID, kinds)
	if err != nil {
		return nil, err
	}

	var rows []payoutRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("advance payouts query: %w", err)
	}

	out := make([]reconciliation.PayoutFigures, 0, len(rows))
	for _, row := range rows {
		out = append(out, reconciliation.PayoutFigures{Kind: payment.Kind(row.Kind), Amount: row.Amount})
	}
	return out, nil
}
