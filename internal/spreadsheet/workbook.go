// Package spreadsheet maintains the running .xlsx log of generated reports
// and builds the aggregate export workbook.
package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain/report"
)

const logSheet = "Report Log"

var logHeader = []string{
	"Timestamp",
	"File Name",
	"File Size (bytes)",
	"Output Format",
	"Detail Level",
	"ICD-10 Codes",
	"Medications",
	"Status",
	"Error",
	"Processing (ms)",
}

// Workbook appends one row per generated report to an .xlsx file on disk.
// Appends are serialized; excelize files are not safe for concurrent writes.
type Workbook struct {
	path string
	log  *zap.Logger

	mu sync.Mutex
}

func NewWorkbook(path string, log *zap.Logger) *Workbook {
	return &Workbook{path: path, log: log}
}

// Append adds one row for the entry, creating the workbook with a header
// row if it does not exist yet.
func (w *Workbook) Append(e *report.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			w.log.Warn("closing workbook", zap.Error(err))
		}
	}()

	rows, err := f.GetRows(logSheet)
	if err != nil {
		return fmt.Errorf("reading workbook rows: %w", err)
	}

	rowNum := len(rows) + 1
	if err := writeRow(f, logSheet, rowNum, entryRow(e)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating workbook directory: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func (w *Workbook) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		f := excelize.NewFile()
		idx, err := f.NewSheet(logSheet)
		if err != nil {
			return nil, fmt.Errorf("creating log sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("removing default sheet: %w", err)
		}
		if err := writeRow(f, logSheet, 1, headerCells()); err != nil {
			return nil, err
		}
		return f, nil
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	return f, nil
}

// BuildAggregate produces the downloadable aggregate workbook: a summary
// sheet with totals by format and status, plus the full log sheet.
func BuildAggregate(entries []*report.Entry) (*excelize.File, error) {
	f := excelize.NewFile()

	const summarySheet = "Summary"
	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("creating summary sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(logSheet); err != nil {
		return nil, fmt.Errorf("creating log sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	var ok, failed int
	byFormat := map[string]int{}
	var totalMS int64
	for _, e := range entries {
		if e.Status == report.StatusOK {
			ok++
		} else {
			failed++
		}
		byFormat[e.OutputFormat]++
		totalMS += e.ProcessingMS
	}

	summary := [][]any{
		{"Generated", time.Now().UTC().Format(time.RFC3339)},
		{"Total Reports", len(entries)},
		{"Succeeded", ok},
		{"Failed", failed},
	}
	for _, format := range []string{"soap", "narrative", "structured"} {
		summary = append(summary, []any{"Format: " + format, byFormat[format]})
	}
	if len(entries) > 0 {
		summary = append(summary, []any{"Avg Processing (ms)", totalMS / int64(len(entries))})
	}
	for i, row := range summary {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, logSheet, 1, headerCells()); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if err := writeRow(f, logSheet, i+2, entryRow(e)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func headerCells() []any {
	cells := make([]any, len(logHeader))
	for i, h := range logHeader {
		cells[i] = h
	}
	return cells
}

func entryRow(e *report.Entry) []any {
	return []any{
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.FileName,
		e.FileSize,
		e.OutputFormat,
		e.DetailLevel,
		strconv.FormatBool(e.IncludeICD10),
		strconv.FormatBool(e.IncludeMedications),
		string(e.Status),
		e.ErrorMessage,
		e.ProcessingMS,
	}
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("computing cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
