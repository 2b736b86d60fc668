package expensesheet

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/audit"
	"github.com/frahmantamala/expense-reconciliation/internal/auth"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/shopspring/decimal"
)

// Repository persists sheets. Mutate loads the sheet under a row lock, applies fn
// and writes it back only if the version is unchanged.
type Repository interface {
	Create(ctx context.Context, s *Sheet) error
	GetByID(ctx context.Context, id int64) (*Sheet, error)
	ExistsForPeriod(ctx context.Context, userID int64, month, year int) (bool, error)
	List(ctx context.Context, q ListQuery) ([]*Sheet, error)
	Mutate(ctx context.Context, id, expectedVersion int64, fn func(*Sheet) error) (*Sheet, error)
}

// BalanceProvider reports how much advance money an employee still holds.
type BalanceProvider interface {
	OutstandingAdvance(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// Exporter renders an approved or paid sheet.
type Exporter interface {
	Export(ctx context.Context, s *Sheet) ([]byte, error)
}

type HistoryReader interface {
	History(ctx context.Context, subjectType string, subjectID int64) ([]audit.Entry, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.User, dto CreateSheetDTO) (*Sheet, error)
	Get(ctx context.Context, actor *auth.User, id int64) (*Sheet, error)
	List(ctx context.Context, actor *auth.User, q ListQuery) ([]*Sheet, error)
	UpdateSheet(ctx context.Context, actor *auth.User, id, version int64, dto UpdateSheetDTO) (*Sheet, error)
	AddItem(ctx context.Context, actor *auth.User, id, version int64, dto ItemDTO) (*Sheet, Item, error)
	UpdateItem(ctx context.Context, actor *auth.User, id, version int64, itemID string, dto ItemDTO) (*Sheet, Item, error)
	DeleteItem(ctx context.Context, actor *auth.User, id, version int64, itemID string) (*Sheet, error)
	Submit(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error)
	Verify(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error)
	Approve(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error)
	Reject(ctx context.Context, actor *auth.User, id, version int64, dto RejectDTO) (*Sheet, error)
	RecordPayment(ctx context.Context, actor *auth.User, id, version int64, dto PaymentDTO) (*Sheet, error)
	History(ctx context.Context, actor *auth.User, id int64) ([]audit.Entry, error)
	Export(ctx context.Context, actor *auth.User, id int64) (*Sheet, []byte, error)
}

type Service struct {
	repo      Repository
	balances  BalanceProvider
	publisher EventPublisher
	exporter  Exporter
	history   HistoryReader
	policy    *auth.Policy
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithBalanceProvider(b BalanceProvider) Option {
	return func(s *Service) { s.balances = b }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

func WithHistoryReader(h HistoryReader) Option {
	return func(s *Service) { s.history = h }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		policy: auth.NewPolicy(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateSheetDTO) (*Sheet, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense sheet validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}

	exists, err := s.repo.ExistsForPeriod(ctx, actor.ID, dto.Month, dto.Year)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warn("duplicate expense sheet", "user_id", actor.ID, "month", dto.Month, "year", dto.Year)
		return nil, internal.ErrDuplicateSheet
	}

	previousDue := money.Zero
	switch {
	case dto.PreviousDue != nil:
		previousDue = *dto.PreviousDue
	case s.balances != nil:
		outstanding, err := s.balances.OutstandingAdvance(ctx, actor.ID)
		if err != nil {
			s.logger.Error("failed to load outstanding advance", "error", err, "user_id", actor.ID)
			return nil, err
		}
		previousDue = seedPreviousDue(outstanding, money.Normalize(dto.AdvanceReceived))
	}

	sheet := NewSheet(actor.ID, dto.Month, dto.Year, dto.AdvanceReceived, dto.AdvanceReceivedDate.Ptr(), previousDue, dto.Remarks)
	if err := s.repo.Create(ctx, sheet); err != nil {
		s.logger.Error("failed to create expense sheet", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("expense sheet created",
		"sheet_id", sheet.ID,
		"sheet_no", sheet.SheetNo,
		"user_id", actor.ID,
		"previous_due", money.Format(sheet.PreviousDue))

	s.publish(ctx, events.EventTypeSheetCreated, sheet, actor, "", sheet.Status, nil)
	return sheet, nil
}

// seedPreviousDue carries the outstanding advance into a new sheet. Advance money the
// employee already lists as advance_received is taken out so it is deducted once.
func seedPreviousDue(outstanding, advanceReceived decimal.Decimal) decimal.Decimal {
	carried := outstanding
	if carried.IsPositive() {
		carried = decimal.Max(carried.Sub(advanceReceived), money.Zero)
	}
	return carried.Neg()
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Sheet, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	sheet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanRead(actor, sheet.UserID); err != nil {
		s.logger.Warn("unauthorized access to expense sheet", "sheet_id", id, "user_id", actor.ID)
		return nil, err
	}
	return sheet, nil
}

func (s *Service) List(ctx context.Context, actor *auth.User, q ListQuery) ([]*Sheet, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	if !actor.IsFinance() {
		own := actor.ID
		q.UserID = &own
	}
	return s.repo.List(ctx, q)
}

func (s *Service) UpdateSheet(ctx context.Context, actor *auth.User, id, version int64, dto UpdateSheetDTO) (*Sheet, error) {
	sheet, err := s.ownerMutate(ctx, actor, id, version, func(sh *Sheet) error {
		return sh.UpdateHeader(dto.Patch(), s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense sheet header updated", "sheet_id", id, "user_id", actor.ID)
	return sheet, nil
}

func (s *Service) AddItem(ctx context.Context, actor *auth.User, id, version int64, dto ItemDTO) (*Sheet, Item, error) {
	var added Item
	sheet, err := s.ownerMutate(ctx, actor, id, version, func(sh *Sheet) error {
		it, err := sh.AddItem(dto.Item(), s.now())
		added = it
		return err
	})
	if err != nil {
		return nil, Item{}, err
	}
	s.logger.Info("expense item added",
		"sheet_id", id,
		"item_id", added.ID,
		"amount", money.Format(added.Amount),
		"total_amount", money.Format(sheet.TotalAmount()))
	return sheet, added, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor *auth.User, id, version int64, itemID string, dto ItemDTO) (*Sheet, Item, error) {
	var updated Item
	sheet, err := s.ownerMutate(ctx, actor, id, version, func(sh *Sheet) error {
		it, err := sh.UpdateItem(itemID, dto.Item(), s.now())
		updated = it
		return err
	})
	if err != nil {
		return nil, Item{}, err
	}
	s.logger.Info("expense item updated", "sheet_id", id, "item_id", itemID, "total_amount", money.Format(sheet.TotalAmount()))
	return sheet, updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, actor *auth.User, id, version int64, itemID string) (*Sheet, error) {
	sheet, err := s.ownerMutate(ctx, actor, id, version, func(sh *Sheet) error {
		return sh.DeleteItem(itemID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense item deleted", "sheet_id", id, "item_id", itemID, "total_amount", money.Format(sheet.TotalAmount()))
	return sheet, nil
}

func (s *Service) Submit(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error) {
	var from Status
	sheet, err := s.ownerMutate(ctx, actor, id, version, func(sh *Sheet) error {
		from = sh.Status
		return sh.Submit(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense sheet submitted",
		"sheet_id", id,
		"submission_count", sheet.SubmissionCount,
		"net_claim_amount", money.Format(sheet.NetClaimAmount()))
	s.publish(ctx, events.EventTypeSheetSubmitted, sheet, actor, from, sheet.Status, map[string]interface{}{
		"submission_count": sheet.SubmissionCount,
		"total_amount":     money.Format(sheet.TotalAmount()),
	})
	return sheet, nil
}

func (s *Service) Verify(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeSheetVerified, func(sh *Sheet) (map[string]interface{}, error) {
		return nil, sh.Verify(actor.ID, s.now())
	})
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id, version int64) (*Sheet, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeSheetApproved, func(sh *Sheet) (map[string]interface{}, error) {
		if err := sh.Approve(actor.ID, s.now()); err != nil {
			return nil, err
		}
		return map[string]interface{}{"net_claim_amount": money.Format(sh.NetClaimAmount())}, nil
	})
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id, version int64, dto RejectDTO) (*Sheet, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeSheetRejected, func(sh *Sheet) (map[string]interface{}, error) {
		if err := sh.Reject(actor.ID, dto.Reason, s.now()); err != nil {
			return nil, err
		}
		return map[string]interface{}{"reason": sh.RejectionReason}, nil
	})
}

func (s *Service) RecordPayment(ctx context.Context, actor *auth.User, id, version int64, dto PaymentDTO) (*Sheet, error) {
	return s.financeTransition(ctx, actor, id, version, events.EventTypeSheetPaid, func(sh *Sheet) (map[string]interface{}, error) {
		err := sh.RecordPayment(Payment{
			Mode:       paymentMode(dto.PaymentMode),
			Reference:  dto.PaymentReference,
			PaidAmount: dto.PaidAmount,
			PaidBy:     actor.ID,
			PaidAt:     s.now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"payment_mode":      string(sh.Payment.Mode),
			"payment_reference": sh.Payment.Reference,
			"paid_amount":       money.Format(sh.Payment.PaidAmount),
			"net_claim_amount":  money.Format(sh.NetClaimAmount()),
		}, nil
	})
}

func (s *Service) History(ctx context.Context, actor *auth.User, id int64) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []audit.Entry{}, nil
	}
	return s.history.History(ctx, events.SubjectExpenseSheet, id)
}

func (s *Service) Export(ctx context.Context, actor *auth.User, id int64) (*Sheet, []byte, error) {
	sheet, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if !sheet.IsExportable() {
		return nil, nil, internal.NewExportUnavailableError(string(sheet.Status))
	}
	if s.exporter == nil {
		return nil, nil, internal.NewInternalError("export is not configured", nil)
	}

	data, err := s.exporter.Export(ctx, sheet)
	if err != nil {
		s.logger.Error("failed to export expense sheet", "error", err, "sheet_id", id)
		return nil, nil, internal.NewInternalError("failed to export expense sheet", err)
	}
	return sheet, data, nil
}

// ownerMutate runs fn under the repository lock after checking that actor owns the sheet.
func (s *Service) ownerMutate(ctx context.Context, actor *auth.User, id, version int64, fn func(*Sheet) error) (*Sheet, error) {
	if err := s.policy.RequireUser(actor); err != nil {
		return nil, err
	}
	sheet, err := s.repo.Mutate(ctx, id, version, func(sh *Sheet) error {
		if err := s.policy.RequireOwner(actor, sh.UserID); err != nil {
			return err
		}
		return fn(sh)
	})
	if err != nil {
		s.logger.Warn("expense sheet mutation refused", "sheet_id", id, "user_id", actor.ID, "error", err)
		return nil, err
	}
	return sheet, nil
}

func (s *Service) financeTransition(ctx context.Context, actor *auth.User, id, version int64, eventType string, fn func(*Sheet) (map[string]interface{}, error)) (*Sheet, error) {
	if err := s.policy.RequireFinance(actor); err != nil {
		return nil, err
	}

	var (
		from     Status
		metadata map[string]interface{}
	)
	sheet, err := s.repo.Mutate(ctx, id, version, func(sh *Sheet) error {
		from = sh.Status
		md, err := fn(sh)
		metadata = md
		return err
	})
	if err != nil {
		s.logger.Warn("expense sheet transition refused", "sheet_id", id, "event", eventType, "actor_id", actor.ID, "error", err)
		return nil, err
	}

	s.logger.Info("expense sheet transitioned",
		"sheet_id", id,
		"from", from,
		"to", sheet.Status,
		"actor_id", actor.ID)
	s.publish(ctx, eventType, sheet, actor, from, sheet.Status, metadata)
	return sheet, nil
}

// publish never fails the caller. The transition is already committed.
func (s *Service) publish(ctx context.Context, eventType string, sheet *Sheet, actor *auth.User, from, to Status, metadata map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["sheet_no"] = sheet.SheetNo

	evt := events.NewTransitionEvent(eventType, events.SubjectExpenseSheet, sheet.ID, sheet.UserID,
		events.Actor{ID: actor.ID, Role: string(actor.Role)}, string(from), string(to), metadata)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("failed to publish expense sheet event", "error", err, "event", eventType, "sheet_id", sheet.ID)
	}
}
