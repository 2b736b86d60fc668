package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/advance"
	advanceDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/advance"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	paymentpostgres "github.com/frahmantamala/expense-reconciliation/internal/payment/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdvanceRepository struct {
	db *gorm.DB
}

func NewAdvanceRepository(db *gorm.DB) *AdvanceRepository {
	return &AdvanceRepository{db: db}
}

func (r *AdvanceRepository) Create(ctx context.Context, req *advance.Request) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	req.Version = 1
	row := advance.ToDataModel(req)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	req.ID = row.ID
	req.CreatedAt = row.CreatedAt
	req.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *AdvanceRepository) GetByID(ctx context.Context, id int64) (*advance.Request, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var row advanceDatamodel.AdvanceRequest
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		return nil, err
	}
	return advance.FromDataModel(&row), nil
}

func (r *AdvanceRepository) List(ctx context.Context, q advance.ListQuery) ([]*advance.Request, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	db := r.db.WithContext(ctx).Model(&advanceDatamodel.AdvanceRequest{})
	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", string(q.Status))
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	var rows []advanceDatamodel.AdvanceRequest
	if err := db.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*advance.Request, 0, len(rows))
	for i := range rows {
		out = append(out, advance.FromDataModel(&rows[i]))
	}
	return out, nil
}

// lock loads the request FOR UPDATE inside tx and checks the expected version.
func lock(tx *gorm.DB, id, expectedVersion int64) (*advanceDatamodel.AdvanceRequest, error) {
	var row advanceDatamodel.AdvanceRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrAdvanceNotFound
		}
		return nil, err
	}
	if expectedVersion > 0 && row.Version != expectedVersion {
		return nil, internal.ErrConcurrencyConflict
	}
	return &row, nil
}

// Mutate applies fn under a row lock. Paying a request writes its advance payout in the same transaction.
func (r *AdvanceRepository) Mutate(ctx context.Context, id, expectedVersion int64, fn func(*advance.Request) error) (*advance.Request, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var result *advance.Request
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lock(tx, id, expectedVersion)
		if err != nil {
			return err
		}

		req := advance.FromDataModel(row)
		previous := req.Status
		if err := fn(req); err != nil {
			return err
		}

		now := time.Now().UTC()
		updated := advance.ToDataModel(req)
		res := tx.Model(&advanceDatamodel.AdvanceRequest{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(map[string]interface{}{
				"status":            updated.Status,
				"approved_by":       updated.ApprovedBy,
				"approved_at":       updated.ApprovedAt,
				"rejected_by":       updated.RejectedBy,
				"rejected_at":       updated.RejectedAt,
				"rejection_reason":  updated.RejectionReason,
				"payment_mode":      updated.PaymentMode,
				"payment_reference": updated.PaymentReference,
				"paid_amount":       updated.PaidAmount,
				"paid_by":           updated.PaidBy,
				"paid_at":           updated.PaidAt,
				"version":           row.Version + 1,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrConcurrencyConflict
		}

		if previous != advance.StatusPaid && req.Status == advance.StatusPaid && req.Payment != nil {
			subject := req.ID
			err := paymentpostgres.Insert(tx, &payment.Payout{
				Kind:      payment.KindAdvance,
				SubjectID: &subject,
				UserID:    req.UserID,
				Amount:    req.Payment.PaidAmount,
				Mode:      req.Payment.Mode,
				Reference: req.Payment.Reference,
				PaidBy:    req.Payment.PaidBy,
				PaidAt:    req.Payment.PaidAt,
				Remarks:   req.Purpose,
			})
			if err != nil {
				return err
			}
		}

		req.Version = row.Version + 1
		req.UpdatedAt = now
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the request when fn allows it. The returned request is the state before deletion.
func (r *AdvanceRepository) Delete(ctx context.Context, id, expectedVersion int64, fn func(*advance.Request) error) (*advance.Request, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var result *advance.Request
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lock(tx, id, expectedVersion)
		if err != nil {
			return err
		}
		req := advance.FromDataModel(row)
		if err := fn(req); err != nil {
			return err
		}

		res := tx.Where("id = ? AND version = ?", row.ID, row.Version).Delete(&advanceDatamodel.AdvanceRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrConcurrencyConflict
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
