package reconciliation

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/shopspring/decimal"
)

type Repository interface {
	SheetFigures(ctx context.Context, userID int64) ([]SheetFigures, error)
	AdvancePayouts(ctx context.Context, userID int64) ([]PayoutFigures, error)
}

type ServiceAPI interface {
	Balance(ctx context.Context, actor *auth.User, userID int64) (Balance, error)
	Summary(ctx context.Context, actor *auth.User, userID int64, year int) (Summary, error)
}

type Service struct {
	repo   Repository
	policy *auth.Policy
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, policy: auth.NewPolicy(), logger: logger}
}

func (s *Service) compute(ctx context.Context, userID int64) (Balance, []SheetFigures, error) {
	payouts, err := s.repo.AdvancePayouts(ctx, userID)
	if err != nil {
		return Balance{}, nil, err
	}
	sheets, err := s.repo.SheetFigures(ctx, userID)
	if err != nil {
		return Balance{}, nil, err
	}
	return ComputeBalance(userID, payouts, sheets), sheets, nil
}

// OutstandingAdvance seeds previous_due on new sheets. It skips the read policy
// because callers only ever ask about themselves.
func (s *Service) OutstandingAdvance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	b, _, err := s.compute(ctx, userID)
	if err != nil {
		return money.Zero, err
	}
	return b.Outstanding, nil
}

func (s *Service) Balance(ctx context.Context, actor *auth.User, userID int64) (Balance, error) {
	if err := s.policy.CanRead(actor, userID); err != nil {
		return Balance{}, err
	}
	b, _, err := s.compute(ctx, userID)
	if err != nil {
		s.logger.Error("failed to compute advance balance", "error", err, "user_id", userID)
		return Balance{}, err
	}
	return b, nil
}

func (s *Service) Summary(ctx context.Context, actor *auth.User, userID int64, year int) (Summary, error) {
	if err := s.policy.CanRead(actor, userID); err != nil {
		return Summary{}, err
	}
	b, sheets, err := s.compute(ctx, userID)
	if err != nil {
		s.logger.Error("failed to compute annual summary", "error", err, "user_id", userID, "year", year)
		return Summary{}, err
	}
	sum := ComputeSummary(userID, year, sheets, b)
	s.logger.Debug("annual summary computed", "user_id", userID, "year", year, "sheets", len(sum.Months))
	return sum, nil
}
