package report

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome recorded for one processed document.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one row of the report log: a single document run through the
// generation pipeline. Entries are append-only; once written they are never
// edited or deleted.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	FileName  string `gorm:"column:file_name;type:varchar(255);not null;index" json:"file_name"`
	FileSize  int64  `gorm:"column:file_size;not null" json:"file_size"`
	TextBytes int    `gorm:"column:text_bytes" json:"text_bytes"`

	OutputFormat       string `gorm:"column:output_format;type:varchar(20);not null;index" json:"output_format"`
	DetailLevel        string `gorm:"column:detail_level;type:varchar(50)" json:"detail_level"`
	IncludeICD10       bool   `gorm:"column:include_icd10" json:"include_icd10"`
	IncludeMedications bool   `gorm:"column:include_medications" json:"include_medications"`

	Status       Status `gorm:"column:status;type:varchar(10);not null;index" json:"status"`
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	ProcessingMS int64  `gorm:"column:processing_ms" json:"processing_ms"`
	ReportText   string `gorm:"column:report_text;type:text" json:"-"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null;index" json:"created_by"`
}

func (Entry) TableName() string {
	return "clinical.report_entries"
}

// CreateEntryCommand carries everything needed to append one entry to the
// report log. NewEntry is the only way a command becomes a row.
type CreateEntryCommand struct {
	FileName           string
	FileSize           int64
	TextBytes          int
	OutputFormat       string
	DetailLevel        string
	IncludeICD10       bool
	IncludeMedications bool
	Status             Status
	ErrorMessage       string
	ProcessingMS       int64
	ReportText         string
	CreatedBy          uuid.UUID
}

// NewEntry builds the log row for a command. Failed runs never carry report
// text, whatever the command says.
func NewEntry(cmd *CreateEntryCommand) *Entry {
	e := &Entry{
		FileName:           cmd.FileName,
		FileSize:           cmd.FileSize,
		TextBytes:          cmd.TextBytes,
		OutputFormat:       cmd.OutputFormat,
		DetailLevel:        cmd.DetailLevel,
		IncludeICD10:       cmd.IncludeICD10,
		IncludeMedications: cmd.IncludeMedications,
		Status:             cmd.Status,
		ErrorMessage:       cmd.ErrorMessage,
		ProcessingMS:       cmd.ProcessingMS,
		ReportText:         cmd.ReportText,
		CreatedBy:          cmd.CreatedBy,
	}
	if e.Status != StatusOK {
		e.ReportText = ""
	}
	return e
}

// ListEntriesQuery defines filtering and pagination for report log queries.
type ListEntriesQuery struct {
	FileName string
	Status   *Status
	Format   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

type PagedEntries struct {
	Entries    []*Entry
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
