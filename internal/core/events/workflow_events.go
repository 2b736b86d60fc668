package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeSheetCreated   = "expense_sheet.created"
	EventTypeSheetSubmitted = "expense_sheet.submitted"
	EventTypeSheetVerified  = "expense_sheet.verified"
	EventTypeSheetApproved  = "expense_sheet.approved"
	EventTypeSheetRejected  = "expense_sheet.rejected"
	EventTypeSheetPaid      = "expense_sheet.paid"

	EventTypeAdvanceRequested = "advance.requested"
	EventTypeAdvanceApproved  = "advance.approved"
	EventTypeAdvanceRejected  = "advance.rejected"
	EventTypeAdvancePaid      = "advance.paid"
	EventTypeAdvanceWithdrawn = "advance.withdrawn"
	EventTypeDirectAdvance    = "advance.direct_recorded"
)

const (
	SubjectExpenseSheet   = "expense_sheet"
	SubjectAdvanceRequest = "advance_request"
	SubjectPayout         = "payout"
)

// TransitionEventTypes lists every event a status change can publish.
func TransitionEventTypes() []string {
	return []string{
		EventTypeSheetCreated,
		EventTypeSheetSubmitted,
		EventTypeSheetVerified,
		EventTypeSheetApproved,
		EventTypeSheetRejected,
		EventTypeSheetPaid,
		EventTypeAdvanceRequested,
		EventTypeAdvanceApproved,
		EventTypeAdvanceRejected,
		EventTypeAdvancePaid,
		EventTypeAdvanceWithdrawn,
		EventTypeDirectAdvance,
	}
}

// Actor is who caused a transition.
type Actor struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// TransitionEvent is published after a status change has been committed.
type TransitionEvent struct {
	BaseEvent
	SubjectType string `json:"subject_type"`
	SubjectID   int64  `json:"subject_id"`
	OwnerID     int64  `json:"owner_id"`
	Actor       Actor  `json:"actor"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
}

func NewTransitionEvent(eventType, subjectType string, subjectID, ownerID int64, actor Actor, from, to string, metadata map[string]interface{}) *TransitionEvent {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &TransitionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      metadata,
		},
		SubjectType: subjectType,
		SubjectID:   subjectID,
		OwnerID:     ownerID,
		Actor:       actor,
		FromStatus:  from,
		ToStatus:    to,
	}
}
