package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
)

type RepositoryAPI interface {
	Create(ctx context.Context, p *Payout) error
	ListByUser(ctx context.Context, userID int64, kinds ...Kind) ([]*Payout, error)
}

type ServiceAPI interface {
	ListByUser(ctx context.Context, userID int64) ([]*Payout, error)
	RecordDirect(ctx context.Context, in DirectPayoutInput, paidBy int64) (*Payout, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Payout, error) {
	return s.repo.ListByUser(ctx, userID)
}

// RecordDirect writes a direct_advance payout. There is no request behind it.
func (s *Service) RecordDirect(ctx context.Context, in DirectPayoutInput, paidBy int64) (*Payout, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	paidAt := s.now().UTC()
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}

	p := &Payout{
		Kind:      KindDirectAdvance,
		UserID:    in.UserID,
		Amount:    money.Normalize(in.Amount),
		Mode:      Mode(in.Mode),
		Reference: in.Reference,
		PaidBy:    paidBy,
		PaidAt:    paidAt,
		Remarks:   in.Remarks,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to record direct advance", "error", err, "user_id", in.UserID)
		return nil, err
	}

	s.logger.Info("direct advance recorded",
		"payout_id", p.ID,
		"user_id", p.UserID,
		"amount", money.Format(p.Amount),
		"paid_by", paidBy)
	return p, nil
}
