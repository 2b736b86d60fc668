package audit

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID          int64             `gorm:"primaryKey"`
	EventID     string            `gorm:"column:event_id;uniqueIndex;not null"`
	Action      string            `gorm:"column:action;not null"`
	SubjectType string            `gorm:"column:subject_type;not null;index:ix_audit_logs_subject"`
	SubjectID   int64             `gorm:"column:subject_id;not null;index:ix_audit_logs_subject"`
	OwnerID     int64             `gorm:"column:owner_id;not null"`
	ActorID     int64             `gorm:"column:actor_id;not null"`
	ActorRole   string            `gorm:"column:actor_role"`
	FromStatus  string            `gorm:"column:from_status"`
	ToStatus    string            `gorm:"column:to_status"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata"`
	OccurredAt  time.Time         `gorm:"column:occurred_at;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
