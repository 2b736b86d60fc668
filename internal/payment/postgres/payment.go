package postgres

import (
	"context"

	"github.com/frahmantamala/expense-reconciliation/internal"
	paymentDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/payment"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{
		db: db,
	}
}

func (r *PayoutRepository) Create(ctx context.Context, p *payment.Payout) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	return Insert(r.db.WithContext(ctx), p)
}

// Insert writes a payout on the given handle. Lifecycle repositories call it
// with their open transaction so the payout commits with the paid transition.
func Insert(tx *gorm.DB, p *payment.Payout) error {
	row := payment.ToDataModel(p)
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

func (r *PayoutRepository) ListByUser(ctx context.Context, userID int64, kinds ...payment.Kind) ([]*payment.Payout, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		q = q.Where("kind IN ?", names)
	}

	var rows []paymentDatamodel.Payout
	if err := q.Order("paid_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*payment.Payout, 0, len(rows))
	for i := range rows {
		out = append(out, payment.FromDataModel(&rows[i]))
	}
	return out, nil
}
