package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/expense-reconciliation/internal/core/money"
	"github.com/frahmantamala/expense-reconciliation/internal/expensesheet"
	"github.com/frahmantamala/expense-reconciliation/internal/user"
)

const (
	worksheetName = "Expense Sheet"
	itemHeaderRow = 8
)

var itemColumns = []string{"No", "Date", "Project", "Bill Type", "Description", "Place", "Mode", "Amount"}

// EmployeeDirectory resolves the sheet owner for the header block. It is optional.
type EmployeeDirectory interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
}

// ExcelExporter renders a sheet as a single-worksheet xlsx workbook.
type ExcelExporter struct {
	directory EmployeeDirectory
	logger    *slog.Logger
}

func NewExcelExporter(directory EmployeeDirectory, logger *slog.Logger) *ExcelExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelExporter{directory: directory, logger: logger}
}

func (e *ExcelExporter) Export(ctx context.Context, s *expensesheet.Sheet) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("report: nil sheet")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", worksheetName); err != nil {
		return nil, fmt.Errorf("report: rename worksheet: %w", err)
	}

	w := &sheetWriter{f: f}
	e.writeHeader(ctx, w, s)
	last := w.writeItems(s.Items)
	w.writeTotals(last+2, s)
	w.styleRanges()

	if w.err != nil {
		return nil, fmt.Errorf("report: write workbook for %s: %w", s.SheetNo, w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *ExcelExporter) writeHeader(ctx context.Context, w *sheetWriter, s *expensesheet.Sheet) {
	name, empID, department := "", fmt.Sprintf("%d", s.UserID), ""
	if e.directory != nil {
		u, err := e.directory.GetByID(ctx, s.UserID)
		if err != nil {
			e.logger.Warn("employee lookup failed, exporting without profile", "user_id", s.UserID, "error", err)
		} else if u != nil {
			name, department = u.Name, u.Department
			if u.EmpID != "" {
				empID = u.EmpID
			}
		}
	}

	w.row(1, "Expense Sheet", s.SheetNo)
	w.row(2, "Employee", name)
	w.row(3, "Employee ID", empID)
	w.row(4, "Department", department)
	w.row(5, "Period", fmt.Sprintf("%04d-%02d", s.Year, s.Month))
	w.row(6, "Status", string(s.Status))
}

// sheetWriter keeps the first excelize error so callers can write cells without checking each one.
type sheetWriter struct {
	f   *excelize.File
	err error

	totalsStart, totalsEnd int
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(worksheetName, cell, value)
}

func (w *sheetWriter) row(row int, values ...interface{}) {
	for i, v := range values {
		w.set(i+1, row, v)
	}
}

func (w *sheetWriter) writeItems(items []expensesheet.Item) int {
	header := make([]interface{}, len(itemColumns))
	for i, c := range itemColumns {
		header[i] = c
	}
	w.row(itemHeaderRow, header...)

	row := itemHeaderRow
	for i, it := range items {
		row = itemHeaderRow + 1 + i
		w.row(row,
			i+1,
			it.Date.Format("2006-01-02"),
			it.ProjectName,
			string(it.BillType),
			it.Description,
			it.Place,
			string(it.Mode),
			money.Format(it.Amount),
		)
	}
	return row
}

func (w *sheetWriter) writeTotals(start int, s *expensesheet.Sheet) {
	lines := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Total", s.TotalAmount()},
		{"Advance Received", s.AdvanceReceived},
		{"Previous Due", s.PreviousDue},
		{"Net Claim", s.NetClaimAmount()},
		{"Paid Amount", s.PaidAmount()},
	}
	labelCol := len(itemColumns) - 1
	for i, l := range lines {
		w.set(labelCol, start+i, l.label)
		w.set(labelCol+1, start+i, money.Format(l.amount))
	}
	if s.Payment != nil {
		w.set(labelCol, start+len(lines), "Payment Reference")
		w.set(labelCol+1, start+len(lines), s.Payment.Reference)
	}
	w.totalsStart, w.totalsEnd = start, start+len(lines)-1
}

func (w *sheetWriter) styleRanges() {
	if w.err != nil {
		return
	}
	bold, err := w.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		w.err = err
		return
	}
	lastCol, _ := excelize.ColumnNumberToName(len(itemColumns))
	labelCol, _ := excelize.ColumnNumberToName(len(itemColumns) - 1)

	ranges := [][2]string{
		{"A1", "A6"},
		{"A" + itoa(itemHeaderRow), lastCol + itoa(itemHeaderRow)},
		{labelCol + itoa(w.totalsStart), labelCol + itoa(w.totalsEnd)},
	}
	for _, r := range ranges {
		if err := w.f.SetCellStyle(worksheetName, r[0], r[1], bold); err != nil {
			w.err = err
			return
		}
	}
	if err := w.f.SetColWidth(worksheetName, "B", lastCol, 18); err != nil {
		w.err = err
	}
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
