package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]Entry, error)
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Register subscribes the recorder to every transition event.
func (s *Service) Register(bus Subscriber) {
	for _, eventType := range events.TransitionEventTypes() {
		bus.Subscribe(eventType, s.Record)
	}
}

// Record stores one transition event. Duplicate event ids are ignored by the repository.
func (s *Service) Record(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.TransitionEvent)
	if !ok {
		return fmt.Errorf("audit: unexpected event type %T", event)
	}

	entry := FromEvent(evt)
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			"error", err,
			"event_id", entry.EventID,
			"action", entry.Action,
			"subject_id", entry.SubjectID)
		return err
	}

	s.logger.Debug("audit entry recorded", "action", entry.Action, "subject_type", entry.SubjectType, "subject_id", entry.SubjectID)
	return nil
}

func (s *Service) History(ctx context.Context, subjectType string, subjectID int64) ([]Entry, error) {
	return s.repo.ListBySubject(ctx, subjectType, subjectID)
}
