package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain/report"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/metrics"
)

type ReportRepository struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewReportRepository(db *gorm.DB, m *metrics.Collector) *ReportRepository {
	return &ReportRepository{db: db, metrics: m}
}

func (r *ReportRepository) timed(operation string) func() {
	start := time.Now()
	return func() {
		r.metrics.DBQueryDuration.
			WithLabelValues(operation, "report_entries").
			Observe(time.Since(start).Seconds())
	}
}

func (r *ReportRepository) Create(ctx context.Context, e *report.Entry) error {
	defer r.timed("insert")()
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("inserting report entry: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Entry, error) {
	defer r.timed("select")()

	var e report.Entry
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, report.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying report entry: %w", err)
	}
	return &e, nil
}

func (r *ReportRepository) List(ctx context.Context, q *report.ListEntriesQuery) (*report.PagedEntries, error) {
	defer r.timed("list")()

	db := r.db.WithContext(ctx).Model(&report.Entry{})

	if q.FileName != "" {
		db = db.Where("file_name ILIKE ?", "%"+q.FileName+"%")
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Format != nil {
		db = db.Where("output_format = ?", *q.Format)
	}
	if q.DateFrom != nil {
		db = db.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("created_at <= ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting report entries: %w", err)
	}

	var entries []*report.Entry
	offset := (q.Page - 1) * q.PageSize
	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(q.PageSize).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing report entries: %w", err)
	}

	totalPages := int(total) / q.PageSize
	if int(total)%q.PageSize != 0 {
		totalPages++
	}

	return &report.PagedEntries{
		Entries:    entries,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (r *ReportRepository) ListAll(ctx context.Context) ([]*report.Entry, error) {
	defer r.timed("list_all")()

	var entries []*report.Entry
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing all report entries: %w", err)
	}
	return entries, nil
}
