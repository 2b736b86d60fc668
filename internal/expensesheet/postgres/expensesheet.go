package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	sheetDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	paymentpostgres "github.com/frahmantamala/expense-reconciliation/internal/payment/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseSheetRepository implements expensesheet.Repository using GORM.
type ExpenseSheetRepository struct {
	db *gorm.DB
}

func NewExpenseSheetRepository(db *gorm.DB) *ExpenseSheetRepository {
	return &ExpenseSheetRepository{db: db}
}

// Create inserts a draft sheet and allocates its ES-<year>-<seq> number in the same transaction.
func (r *ExpenseSheetRepository) Create(ctx context.Context, s *expensesheet.Sheet) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSheetNumber(tx, s.Year)
		if err != nil {
			return err
		}
		s.SheetNo = fmt.Sprintf("ES-%d-%05d", s.Year, seq)
		s.Version = 1

		row := expensesheet.ToDataModel(s)
		row.Items = nil
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		s.ID = row.ID
		s.CreatedAt = row.CreatedAt
		s.UpdatedAt = row.UpdatedAt
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrDuplicateSheet
	}
	return err
}

func nextSheetNumber(tx *gorm.DB, year int) (int64, error) {
	counter := sheetDatamodel.SheetCounter{Year: year, LastValue: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_value": gorm.Expr("sheet_counters.last_value + 1")}),
	}).Create(&counter).Error
	if err != nil {
		return 0, err
	}

	if err := tx.Where("year = ?", year).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastValue, nil
}

func (r *ExpenseSheetRepository) GetByID(ctx context.Context, id int64) (*expensesheet.Sheet, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var row sheetDatamodel.ExpenseSheet
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrSheetNotFound
		}
		return nil, err
	}
	return expensesheet.FromDataModel(&row), nil
}

func (r *ExpenseSheetRepository) ExistsForPeriod(ctx context.Context, userID int64, month, year int) (bool, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&sheetDatamodel.ExpenseSheet{}).
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Count(&count).Error
	return count > 0, err
}

func (r *ExpenseSheetRepository) List(ctx context.Context, q expensesheet.ListQuery) ([]*expensesheet.Sheet, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	db := r.db.WithContext(ctx).Model(&sheetDatamodel.ExpenseSheet{})
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", string(q.Status))
	}
	if q.Year != 0 {
		db = db.Where("year = ?", q.Year)
	}
	if q.Month != 0 {
		db = db.Where("month = ?", q.Month)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var rows []sheetDatamodel.ExpenseSheet
	err := db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("year DESC, month DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*expensesheet.Sheet, 0, len(rows))
	for i := range rows {
		out = append(out, expensesheet.FromDataModel(&rows[i]))
	}
	return out, nil
}

// Mutate serializes writers on one sheet: the row is locked FOR UPDATE, fn runs on the
// loaded aggregate, and the write only lands if the version is still the one that was read.
// A sheet that becomes paid gets its payout row in the same transaction.
func (r *ExpenseSheetRepository) Mutate(ctx context.Context, id, expectedVersion int64, fn func(*expensesheet.Sheet) error) (*expensesheet.Sheet, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var result *expensesheet.Sheet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sheetDatamodel.ExpenseSheet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrSheetNotFound
			}
			return err
		}
		if expectedVersion > 0 && row.Version != expectedVersion {
			return internal.ErrConcurrencyConflict
		}
		if err := tx.Where("sheet_id = ?", id).Order("position ASC").Find(&row.Items).Error; err != nil {
			return err
		}

		sheet := expensesheet.FromDataModel(&row)
		previous := sheet.Status
		if err := fn(sheet); err != nil {
			return err
		}

		now := time.Now().UTC()
		updated := expensesheet.ToDataModel(sheet)
		res := tx.Model(&sheetDatamodel.ExpenseSheet{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(headerColumns(updated, row.Version+1, now))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrConcurrencyConflict
		}

		if err := syncItems(tx, row.ID, updated.Items); err != nil {
			return err
		}

		if previous != expensesheet.StatusPaid && sheet.Status == expensesheet.StatusPaid && sheet.Payment != nil {
			sheetID := sheet.ID
			err := paymentpostgres.Insert(tx, &payment.Payout{
				Kind:      payment.KindExpenseSheet,
				SubjectID: &sheetID,
				UserID:    sheet.UserID,
				Amount:    sheet.Payment.PaidAmount,
				Mode:      sheet.Payment.Mode,
				Reference: sheet.Payment.Reference,
				PaidBy:    sheet.Payment.PaidBy,
				PaidAt:    sheet.Payment.PaidAt,
				Remarks:   sheet.SheetNo,
			})
			if err != nil {
				return err
			}
		}

		sheet.Version = row.Version + 1
		sheet.UpdatedAt = now
		result = sheet
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func headerColumns(row *sheetDatamodel.ExpenseSheet, version int64, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":                row.Status,
		"advance_received":      row.AdvanceReceived,
		"advance_received_date": row.AdvanceReceivedDate,
		"previous_due":          row.PreviousDue,
		"remarks":               row.Remarks,
		"submitted_at":          row.SubmittedAt,
		"submission_count":      row.SubmissionCount,
		"verified_by":           row.VerifiedBy,
		"verified_at":           row.VerifiedAt,
		"approved_by":           row.ApprovedBy,
		"approved_at":           row.ApprovedAt,
		"rejected_by":           row.RejectedBy,
		"rejected_at":           row.RejectedAt,
		"rejection_reason":      row.RejectionReason,
		"payment_mode":          row.PaymentMode,
		"payment_reference":     row.PaymentReference,
		"paid_amount":           row.PaidAmount,
		"paid_by":               row.PaidBy,
		"paid_at":               row.PaidAt,
		"version":               version,
		"updated_at":            now,
	}
}

// syncItems makes the stored items match the aggregate: rows that disappeared are
// deleted and the rest are upserted by id.
func syncItems(tx *gorm.DB, sheetID int64, items []sheetDatamodel.ExpenseItem) error {
	keep := make([]string, 0, len(items))
	for _, it := range items {
		keep = append(keep, it.ID)
	}

	del := tx.Where("sheet_id = ?", sheetID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	if err := del.Delete(&sheetDatamodel.ExpenseItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"position", "date", "project_name", "bill_type", "description",
			"amount", "place", "mode", "receipt_url", "updated_at",
		}),
	}).Create(&items).Error
}
