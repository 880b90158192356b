package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/clinical"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/config"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/document"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain/report"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/spreadsheet"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/metrics"
)

// UploadedFile is one document received in an upload batch, already read
// into memory by the handler.
type UploadedFile struct {
	Name string
	Size int64
	Data []byte
}

// BatchItem is the per-file outcome of a batch. A failed file carries an
// Error and no Report; the rest of the batch is unaffected.
type BatchItem struct {
	FileName string        `json:"file_name"`
	EntryID  uuid.UUID     `json:"entry_id"`
	Status   report.Status `json:"status"`
	Report   string        `json:"report,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type ReportService struct {
	repo      report.Repository
	generator *clinical.Generator
	workbook  *spreadsheet.Workbook
	auditSvc  *AuditService
	metrics   *metrics.Collector
	log       *zap.Logger
	cfg       config.UploadConfig
}

func NewReportService(
	repo report.Repository,
	generator *clinical.Generator,
	workbook *spreadsheet.Workbook,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
	cfg config.UploadConfig,
) *ReportService {
	return &ReportService{
		repo:      repo,
		generator: generator,
		workbook:  workbook,
		auditSvc:  auditSvc,
		metrics:   m,
		log:       log,
		cfg:       cfg,
	}
}

// ValidateBatch checks batch-level limits before any file is processed.
func (s *ReportService) ValidateBatch(files []UploadedFile) error {
	var fields []string
	if len(files) == 0 {
		fields = append(fields, "at least one file is required")
	}
	if len(files) > s.cfg.MaxFilesPerBatch {
		fields = append(fields, fmt.Sprintf("batch exceeds limit of %d files", s.cfg.MaxFilesPerBatch))
	}
	for _, f := range files {
		if f.Size > s.cfg.MaxFileBytes {
			fields = append(fields, fmt.Sprintf("%s exceeds limit of %d bytes", f.Name, s.cfg.MaxFileBytes))
		}
		if !s.extensionAllowed(f.Name) {
			fields = append(fields, fmt.Sprintf("%s has an unsupported extension", f.Name))
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *ReportService) extensionAllowed(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range s.cfg.AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ProcessBatch runs every file through the pipeline and persists one log
// entry per file. Files are processed concurrently on a bounded pool; one
// file failing never aborts the batch. Results come back in input order.
func (s *ReportService) ProcessBatch(ctx context.Context, files []UploadedFile, opts clinical.Options, createdBy uuid.UUID, ip string) ([]BatchItem, error) {
	if err := s.ValidateBatch(files); err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := s.cfg.Workers
	if workers > len(files) {
		workers = len(files)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items[i] = s.processFile(ctx, files[i], opts, createdBy)
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       createdBy,
		Action:       "upload",
		ResourceType: "report_batch",
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"files":%d}`, len(files)),
	})

	return items, nil
}

func (s *ReportService) processFile(ctx context.Context, f UploadedFile, opts clinical.Options, createdBy uuid.UUID) BatchItem {
	fileCtx, cancel := context.WithTimeout(ctx, s.cfg.PerFileTimeout)
	defer cancel()

	start := time.Now()
	reportText, textBytes, err := s.generate(fileCtx, f, opts)
	elapsed := time.Since(start)

	cmd := &report.CreateEntryCommand{
		FileName:           f.Name,
		FileSize:           f.Size,
		TextBytes:          textBytes,
		OutputFormat:       opts.OutputFormat,
		DetailLevel:        opts.DetailLevel,
		IncludeICD10:       opts.IncludeICD10,
		IncludeMedications: opts.IncludeMedications,
		Status:             report.StatusOK,
		ProcessingMS:       elapsed.Milliseconds(),
		ReportText:         reportText,
		CreatedBy:          createdBy,
	}
	if err != nil {
		cmd.Status = report.StatusError
		cmd.ErrorMessage = err.Error()
	}
	entry := report.NewEntry(cmd)

	s.metrics.DocumentsProcessedTotal.WithLabelValues(opts.OutputFormat, string(entry.Status)).Inc()
	s.metrics.ReportDuration.WithLabelValues(opts.OutputFormat).Observe(elapsed.Seconds())

	if dbErr := s.repo.Create(ctx, entry); dbErr != nil {
		s.log.Error("failed to persist report entry",
			zap.String("file", f.Name),
			zap.Error(dbErr),
		)
		if err == nil {
			err = fmt.Errorf("persisting report entry: %w", dbErr)
		}
	}

	// The workbook is a secondary sink; a write failure there must not
	// fail a report that is already persisted.
	if wbErr := s.workbook.Append(entry); wbErr != nil {
		s.log.Warn("failed to append workbook row",
			zap.String("file", f.Name),
			zap.Error(wbErr),
		)
	} else {
		s.metrics.SpreadsheetRowsTotal.Inc()
	}

	item := BatchItem{
		FileName: f.Name,
		EntryID:  entry.ID,
		Status:   entry.Status,
	}
	if err != nil {
		item.Error = err.Error()
	} else {
		item.Report = reportText
	}
	return item
}

func (s *ReportService) generate(ctx context.Context, f UploadedFile, opts clinical.Options) (string, int, error) {
	text, err := document.ExtractText(f.Name, f.Data)
	if err != nil {
		return "", 0, err
	}
	s.metrics.DocumentTextBytes.Observe(float64(len(text)))

	reportText, info, err := s.generator.GenerateWithInfo(ctx, text, f.Name, opts)
	if err != nil {
		return "", len(text), err
	}
	s.countTerms(info)
	return reportText, len(text), nil
}

func (s *ReportService) countTerms(info *clinical.MedicalInfo) {
	for category, n := range map[string]int{
		"symptoms":    len(info.Symptoms),
		"conditions":  len(info.Conditions),
		"medications": len(info.Medications),
		"procedures":  len(info.Procedures),
	} {
		if n > 0 {
			s.metrics.TermsExtractedTotal.WithLabelValues(category).Add(float64(n))
		}
	}
}

// GetEntry returns one report log entry.
func (s *ReportService) GetEntry(ctx context.Context, id uuid.UUID, userID uuid.UUID, ip string) (*report.Entry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "read",
		ResourceType: "report_entry",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return entry, nil
}

// ListEntries returns a filtered, paginated page of the report log.
func (s *ReportService) ListEntries(ctx context.Context, q *report.ListEntriesQuery) (*report.PagedEntries, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return s.repo.List(ctx, q)
}

// DownloadReport returns the rendered report text for one entry. Failed
// entries have no report to download.
func (s *ReportService) DownloadReport(ctx context.Context, id uuid.UUID, userID uuid.UUID, ip string) (*report.Entry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != report.StatusOK || entry.ReportText == "" {
		return nil, fmt.Errorf("%w: entry %s has no report", report.ErrEntryNotFound, id)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "download",
		ResourceType: "report_entry",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})
	return entry, nil
}

// ExportWorkbook builds the aggregate spreadsheet over the full report log.
func (s *ReportService) ExportWorkbook(ctx context.Context, userID uuid.UUID, ip string) (*excelize.File, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading report log: %w", err)
	}
	if len(entries) == 0 {
		return nil, report.ErrEntryNotFound
	}

	f, err := spreadsheet.BuildAggregate(entries)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       "export",
		ResourceType: "report_log",
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"entries":%d}`, len(entries)),
	})
	return f, nil
}
