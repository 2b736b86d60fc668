package reconciliation

import "github.com/frahmantamala/expense-reconciliation/internal/core/money"

type BalanceResponse struct {
	UserID                          int64  `json:"user_id"`
	TotalAdvancePaid                string `json:"total_advance_paid"`
	TotalReconciledViaExpenseSheets string `json:"total_reconciled_via_expense_sheets"`
	Outstanding                     string `json:"outstanding"`
}

func NewBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		UserID:                          b.UserID,
		TotalAdvancePaid:                money.Format(b.TotalAdvancePaid),
		TotalReconciledViaExpenseSheets: money.Format(b.TotalReconciledViaExpenseSheets),
		Outstanding:                     money.Format(b.Outstanding),
	}
}

type MonthResponse struct {
	Month          int    `json:"month"`
	SheetNo        string `json:"sheet_no"`
	Status         string `json:"status"`
	TotalAmount    string `json:"total_amount"`
	NetClaimAmount string `json:"net_claim_amount"`
	PaidAmount     string `json:"paid_amount"`
}

type SummaryResponse struct {
	UserID                    int64           `json:"user_id"`
	Year                      int             `json:"year"`
	TotalClaimed              string          `json:"total_claimed"`
	TotalPaid                 string          `json:"total_paid"`
	TotalPending              string          `json:"total_pending"`
	BalanceDue                string          `json:"balance_due"`
	OutstandingAdvanceBalance string          `json:"outstanding_advance_balance"`
	Months                    []MonthResponse `json:"months"`
}

func NewSummaryResponse(s Summary) SummaryResponse {
	resp := SummaryResponse{
		UserID:                    s.UserID,
		Year:                      s.Year,
		TotalClaimed:              money.Format(s.TotalClaimed),
		TotalPaid:                 money.Format(s.TotalPaid),
		TotalPending:              money.Format(s.TotalPending),
		BalanceDue:                money.Format(s.BalanceDue),
		OutstandingAdvanceBalance: money.Format(s.OutstandingAdvanceBalance),
		Months:                    make([]MonthResponse, 0, len(s.Months)),
	}
	for _, m := range s.Months {
		resp.Months = append(resp.Months, MonthResponse{
			Month:          m.Month,
			SheetNo:        m.SheetNo,
			Status:         string(m.Status),
			TotalAmount:    money.Format(m.TotalAmount),
			NetClaimAmount: money.Format(m.NetClaimAmount),
			PaidAmount:     money.Format(m.PaidAmount),
		})
	}
	return resp
}
