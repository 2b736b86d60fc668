package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/frahmantamala/expense-reconciliation/internal"
	"github.com/frahmantamala/expense-reconciliation/internal/core/events"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
)

const jobTimeout = 30 * time.Second

// SheetSource is the read side of the expense sheet repository.
type SheetSource interface {
	GetByID(ctx context.Context, id int64) (*expensesheet.Sheet, error)
	List(ctx context.Context, q expensesheet.ListQuery) ([]*expensesheet.Sheet, error)
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

type Config struct {
	Dir       string
	Workers   int
	QueueSize int
}

// Service writes workbooks of paid sheets into Dir, either from the worker pool
// or synchronously for a whole period.
type Service struct {
	sheets   SheetSource
	exporter expensesheet.Exporter
	dir      string
	pool     *Pool
	logger   *slog.Logger
}

func NewService(sheets SheetSource, exporter expensesheet.Exporter, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "exports"
	}
	return &Service{
		sheets:   sheets,
		exporter: exporter,
		dir:      dir,
		pool:     NewPool(PoolConfig{Workers: cfg.Workers, QueueSize: cfg.QueueSize}, logger),
		logger:   logger,
	}
}

// Register starts the pool and subscribes it to paid sheets.
func (s *Service) Register(bus Subscriber) {
	s.pool.Start(s.process)
	bus.Subscribe(events.EventTypeSheetPaid, s.HandleSheetPaid)
}

func (s *Service) Shutdown() {
	s.pool.Shutdown()
}

// HandleSheetPaid queues the export. A full queue is logged and reported to the bus.
func (s *Service) HandleSheetPaid(ctx context.Context, event events.Event) error {
	evt, ok := event.(*events.TransitionEvent)
	if !ok {
		return fmt.Errorf("report: unexpected event type %T", event)
	}
	if evt.SubjectType != events.SubjectExpenseSheet {
		return nil
	}

	if err := s.pool.Submit(Job{SheetID: evt.SubjectID, EventID: evt.EventID()}); err != nil {
		s.logger.Error("failed to queue sheet export", "sheet_id", evt.SubjectID, "event_id", evt.EventID(), "error", err)
		return err
	}
	return nil
}

func (s *Service) process(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobTimeout)
	defer cancel()

	sheet, err := s.sheets.GetByID(ctx, job.SheetID)
	if err != nil {
		s.logger.Error("failed to load sheet for export", "sheet_id", job.SheetID, "event_id", job.EventID, "error", err)
		return
	}

	path, err := s.WriteSheet(ctx, sheet)
	if err != nil {
		s.logger.Error("failed to write sheet export", "sheet_id", job.SheetID, "event_id", job.EventID, "error", err)
		return
	}
	s.logger.Info("sheet exported", "sheet_id", sheet.ID, "sheet_no", sheet.SheetNo, "path", path)
}

// WriteSheet renders sheet and stores it as <dir>/<sheet_no>.xlsx, replacing any earlier copy.
func (s *Service) WriteSheet(ctx context.Context, sheet *expensesheet.Sheet) (string, error) {
	if !sheet.IsExportable() {
		return "", internal.NewExportUnavailableError(string(sheet.Status))
	}

	data, err := s.exporter.Export(ctx, sheet)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create export dir: %w", err)
	}

	path := filepath.Join(s.dir, sheet.SheetNo+".xlsx")
	tmp, err := os.CreateTemp(s.dir, sheet.SheetNo+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("report: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("report: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("report: move export into place: %w", err)
	}
	return path, nil
}

// ExportPeriod writes every paid sheet of the given month. Failures are collected
// and do not stop the remaining sheets.
func (s *Service) ExportPeriod(ctx context.Context, year, month int) ([]string, error) {
	sheets, err := s.sheets.List(ctx, expensesheet.ListQuery{
		Status: expensesheet.StatusPaid,
		Year:   year,
		Month:  month,
	})
	if err != nil {
		return nil, fmt.Errorf("report: list paid sheets: %w", err)
	}

	var (
		paths []string
		errs  []error
	)
	for _, sheet := range sheets {
		path, err := s.WriteSheet(ctx, sheet)
		if err != nil {
			s.logger.Error("failed to export sheet", "sheet_id", sheet.ID, "sheet_no", sheet.SheetNo, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sheet.SheetNo, err))
			continue
		}
		paths = append(paths, path)
	}

	s.logger.Info("period export finished", "year", year, "month", month, "written", len(paths), "failed", len(errs))
	return paths, errors.Join(errs...)
}
