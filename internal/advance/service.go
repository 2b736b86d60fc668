package advance

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/payment"
)

// Repository persists advance requests. Mutate and Delete lock the row and
// run fn before writing. Mutate also checks the expected version when it is non-zero.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, q ListQuery) ([]*Request, error)
	Mutate(ctx context.Context, id, expectedVersion int64, fn func(*Request) error) (*Request, error)
	Delete(ctx context.Context, id, expectedVersion int64, fn func(*Request) error) (*Request, error)
}

// DirectPayer writes payouts that have no request behind them.
type DirectPayer interface {
	RecordDirect(ctx context.Context, in payment.DirectPayoutInput, paidBy int64) (*payment.Payout, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.User, dto CreateRequestDTO) (*Request, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Request, error)
	List(ctx context.Context, actor *auth.User, q ListQuery) ([]*Request, error)
	Withdraw(ctx context.Context, actor *auth.User, id, version int64) error
	Approve(ctx context.Context, actor *auth.User, id, version int64) (*Request, error)
	Reject(ctx context.Context, actor *auth.User, id, version int64, dto RejectDTO) (*Request, error)
	RecordPayment(ctx context.Context, actor *auth.User, id, version int64, dto PaymentDTO) (*Request, error)
	CreateDirect(ctx context.Context, actor *auth.User, dto DirectAdvanceDTO) (*payment.Payout, error)
}

type Service struct {
	repo      Repository
	payer     DirectPayer
	publisher EventPublisher
	policy    *auth.Policy
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, payer DirectPayer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		payer:  payer,
		policy: auth.NewPolicy(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateRequestDTO) (*Request, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}

	req := NewRequest(actor.ID, actor.EmpID, actor.Department, dto.Amount, dto.Purpose, dto.ProjectName, dto.Remarks)
	if err := req.Validate(); err != nil {
		s.logger.Warn("advance request validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create advance request", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("advance requested", "advance_id", req.ID, "user_id", actor.ID, "amount", money.Format(req.Amount))
	s.publish(ctx, events.EventTypeAdvanceRequested, req, actor, "", req.Status, map[string]interface{}{
		"amount": money.Format(req.Amount),
	})
	return req, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Request, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanRead(actor, req.UserID); err != nil {
		s.logger.Warn("unauthorized access to advance request", "advance_id", id, "user_id", actor.ID)
		return nil, err
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, actor *auth.User, q ListQuery) ([]*Request, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	if !actor.IsFinance() {
		own := actor.ID
		q.UserID = &own
	}
	return s.repo.List(ctx, q)
}

// Withdraw deletes a pending request on behalf of its owner.
func (s *Service) Withdraw(ctx context.Context, actor *auth.User, id, version int64) error {
	if err := s.policy.RequireUser(actor); err != nil {
		return err
	}
	req, err := s.repo.Delete(ctx, id, version, func(r *Request) error {
		if err := s.policy.RequireOwner(actor, r.UserID); err != nil {
			return err
		}
		return r.Withdraw()
	})
	if err != nil {
		s.logger.Warn("advance withdraw refused", "advance_id", id, "user_id", actor.ID, "error", err)
		return err
	}

	s.logger.Info("advance withdrawn", "advance_id", id, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeAdvanceWithdrawn, req, actor, req.Status, StatusWithdrawn, nil)
	return nil
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id, version int64) (*Request, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeAdvanceApproved, func(r *Request) (map[string]interface{}, error) {
		return map[string]interface{}{"amount": money.Format(r.Amount)}, r.Approve(actor.ID, s.now())
	})
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id, version int64, dto RejectDTO) (*Request, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeAdvanceRejected, func(r *Request) (map[string]interface{}, error) {
		if err := r.Reject(actor.ID, dto.Reason, s.now()); err != nil {
			return nil, err
		}
		return map[string]interface{}{"reason": r.RejectionReason}, nil
	})
}

func (s *Service) RecordPayment(ctx context.Context, actor *auth.User, id, version int64, dto PaymentDTO) (*Request, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeAdvancePaid, func(r *Request) (map[string]interface{}, error) {
		err := r.RecordPayment(Payment{
			Mode:       payment.Mode(dto.PaymentMode),
			Reference:  dto.PaymentReference,
			PaidAmount: dto.PaidAmount,
			PaidBy:     actor.ID,
			PaidAt:     s.now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"payment_mode":      string(r.Payment.Mode),
			"payment_reference": r.Payment.Reference,
			"paid_amount":       money.Format(r.Payment.PaidAmount),
		}, nil
	})
}

// CreateDirect records a direct_advance payout. No request row is written.
func (s *Service) CreateDirect(ctx context.Context, actor *auth.User, dto DirectAdvanceDTO) (*payment.Payout, error) {
	if err := s.policy.RequireFinance(actor); err != nil {
		return nil, err
	}
	p, err := s.payer.RecordDirect(ctx, dto.Input(), actor.ID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		evt := events.NewTransitionEvent(events.EventTypeDirectAdvance, events.SubjectPayout, p.ID, p.UserID,
			events.Actor{ID: actor.ID, Role: string(actor.Role)}, "", string(payment.KindDirectAdvance), map[string]interface{}{
				"amount":            money.Format(p.Amount),
				"payment_mode":      string(p.Mode),
				"payment_reference": p.Reference,
			})
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Error("failed to publish direct advance event", "error", err, "payout_id", p.ID)
		}
	}
	return p, nil
}

func (s *Service) financeTransition(ctx context.Context, actor *auth.User, id, version int64, eventType string, fn func(*Request) (map[string]interface{}, error)) (*Request, error) {
	if err := s.policy.RequireFinance(actor); err != nil {
		return nil, err
	}

	var (
		from     Status
		metadata map[string]interface{}
	)
	req, err := s.repo.Mutate(ctx, id, version, func(r *Request) error {
		from = r.Status
		md, err := fn(r)
		metadata = md
		return err
	})
	if err != nil {
		s.logger.Warn("advance transition refused", "advance_id", id, "event", eventType, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("advance transitioned", "advance_id", id, "from", from, "to", req.Status, "actor_id", actor.ID)
	s.publish(ctx, eventType, req, actor, from, req.Status, metadata)
	return req, nil
}

func (s *Service) publish(ctx context.Context, eventType string, req *Request, actor *auth.User, from, to Status, metadata map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.NewTransitionEvent(eventType, events.SubjectAdvanceRequest, req.ID, req.UserID,
		events.Actor{ID: actor.ID, Role: string(actor.Role)}, string(from), string(to), metadata)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish advance event", "error", err, "event", eventType, "advance_id", req.ID)
	}
}
