package expensesheet

import (
	sheetDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"github.com/shopspring/decimal"
)

func ToDataModel(s *Sheet) *sheetDatamodel.ExpenseSheet {
	row := &sheetDatamodel.ExpenseSheet{
		ID:                  s.ID,
		SheetNo:             s.SheetNo,
		UserID:              s.UserID,
		Month:               s.Month,
		Year:                s.Year,
		Status:              string(s.Status),
		AdvanceReceived:     s.AdvanceReceived,
		AdvanceReceivedDate: s.AdvanceReceivedDate,
		PreviousDue:         s.PreviousDue,
		Remarks:             s.Remarks,
		SubmittedAt:         s.SubmittedAt,
		SubmissionCount:     s.SubmissionCount,
		VerifiedBy:          s.VerifiedBy,
		VerifiedAt:          s.VerifiedAt,
		ApprovedBy:          s.ApprovedBy,
		ApprovedAt:          s.ApprovedAt,
		RejectedBy:          s.RejectedBy,
		RejectedAt:          s.RejectedAt,
		RejectionReason:     s.RejectionReason,
		Version:             s.Version,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if p := s.Payment; p != nil {
		paidBy, paidAt := p.PaidBy, p.PaidAt
		row.PaymentMode = string(p.Mode)
		row.PaymentReference = p.Reference
		row.PaidAmount = decimal.NewNullDecimal(p.PaidAmount)
		row.PaidBy = &paidBy
		row.PaidAt = &paidAt
	}
	row.Items = ItemsToDataModel(s.ID, s.Items)
	return row
}

func ItemsToDataModel(sheetID int64, items []Item) []sheetDatamodel.ExpenseItem {
	rows := make([]sheetDatamodel.ExpenseItem, len(items))
	for i, it := range items {
		rows[i] = sheetDatamodel.ExpenseItem{
			ID:          it.ID,
			SheetID:     sheetID,
			Position:    it.Position,
			Date:        it.Date,
			ProjectName: it.ProjectName,
			BillType:    string(it.BillType),
			Description: it.Description,
			Amount:      it.Amount,
			Place:       it.Place,
			Mode:        string(it.Mode),
			ReceiptURL:  it.ReceiptURL,
		}
	}
	return rows
}

func FromDataModel(row *sheetDatamodel.ExpenseSheet) *Sheet {
	s := &Sheet{
		ID:                  row.ID,
		SheetNo:             row.SheetNo,
		UserID:              row.UserID,
		Month:               row.Month,
		Year:                row.Year,
		Status:              Status(row.Status),
		AdvanceReceived:     row.AdvanceReceived,
		AdvanceReceivedDate: row.AdvanceReceivedDate,
		PreviousDue:         row.PreviousDue,
		Remarks:             row.Remarks,
		SubmittedAt:         row.SubmittedAt,
		SubmissionCount:     row.SubmissionCount,
		VerifiedBy:          row.VerifiedBy,
		VerifiedAt:          row.VerifiedAt,
		ApprovedBy:          row.ApprovedBy,
		ApprovedAt:          row.ApprovedAt,
		RejectedBy:          row.RejectedBy,
		RejectedAt:          row.RejectedAt,
		RejectionReason:     row.RejectionReason,
		Version:             row.Version,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
		Items:               make([]Item, 0, len(row.Items)),
	}
	if row.PaidAmount.Valid && row.PaidAt != nil && row.PaidBy != nil {
		s.Payment = &Payment{
			Mode:       payment.Mode(row.PaymentMode),
			Reference:  row.PaymentReference,
			PaidAmount: row.PaidAmount.Decimal,
			PaidBy:     *row.PaidBy,
			PaidAt:     *row.PaidAt,
		}
	}
	for _, it := range row.Items {
		s.Items = append(s.Items, Item{
			ID:          it.ID,
			Position:    it.Position,
			Date:        it.Date,
			ProjectName: it.ProjectName,
			BillType:    BillType(it.BillType),
			Description: it.Description,
			Amount:      it.Amount,
			Place:       it.Place,
			Mode:        payment.Mode(it.Mode),
			ReceiptURL:  it.ReceiptURL,
		})
	}
	return s
}
