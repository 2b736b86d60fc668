package audit

import (
	"time"

	auditDatamodel "github.com/frahmantamala/expense-reconciliation/internal/core/datamodel/audit"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
)

// Entry is one recorded state change.
type Entry struct {
	ID          int64                  `json:"id"`
	EventID     string                 `json:"event_id"`
	Action      string                 `json:"action"`
	SubjectType string                 `json:"subject_type"`
	SubjectID   int64                  `json:"subject_id"`
	OwnerID     int64                  `json:"owner_id"`
	ActorID     int64                  `json:"actor_id"`
	ActorRole   string                 `json:"actor_role,omitempty"`
	FromStatus  string                 `json:"from_status,omitempty"`
	ToStatus    string                 `json:"to_status"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

func FromEvent(evt *events.TransitionEvent) *Entry {
	metadata, _ := evt.Payload().(map[string]interface{})
	return &Entry{
		EventID:     evt.EventID(),
		Action:      evt.EventType(),
		SubjectType: evt.SubjectType,
		SubjectID:   evt.SubjectID,
		OwnerID:     evt.OwnerID,
		ActorID:     evt.Actor.ID,
		ActorRole:   evt.Actor.Role,
		FromStatus:  evt.FromStatus,
		ToStatus:    evt.ToStatus,
		Metadata:    metadata,
		OccurredAt:  evt.OccurredAt(),
	}
}

func ToDataModel(e *Entry) *auditDatamodel.AuditLog {
	return &auditDatamodel.AuditLog{
		ID:          e.ID,
		EventID:     e.EventID,
		Action:      e.Action,
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		OwnerID:     e.OwnerID,
		ActorID:     e.ActorID,
		ActorRole:   e.ActorRole,
		FromStatus:  e.FromStatus,
		ToStatus:    e.ToStatus,
		Metadata:    e.Metadata,
		OccurredAt:  e.OccurredAt,
	}
}

func FromDataModel(row *auditDatamodel.AuditLog) Entry {
	return Entry{
		ID:          row.ID,
		EventID:     row.EventID,
		Action:      row.Action,
		SubjectType: row.SubjectType,
		SubjectID:   row.SubjectID,
		OwnerID:     row.OwnerID,
		ActorID:     row.ActorID,
		ActorRole:   row.ActorRole,
		FromStatus:  row.FromStatus,
		ToStatus:    row.ToStatus,
		Metadata:    row.Metadata,
		OccurredAt:  row.OccurredAt,
	}
}
