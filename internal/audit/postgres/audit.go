package postgres

import (
	"context"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/audit"
	auditDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	row := audit.ToDataModel(e)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]audit.Entry, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var rows []auditDatamodel.AuditLog
	err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("occurred_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]audit.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, audit.FromDataModel(&rows[i]))
	}
	return out, nil
}
