package v1

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/clinical"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain/report"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/service"
)

type ReportHandler struct {
	reportSvc *service.ReportService
}

func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Upload accepts a multipart batch of clinical documents, runs each one
// through the pipeline, and returns the per-file results.
//
//	POST /api/v1/documents
//	  files               one or more document parts
//	  output_format       soap | narrative | structured (default soap)
//	  detail_level        free text, echoed in the report footer
//	  include_icd10       bool
//	  include_medications bool
func (h *ReportHandler) Upload(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	fileHeaders := form.File["files"]
	files := make([]service.UploadedFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("opening %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		files = append(files, service.UploadedFile{
			Name: fh.Filename,
			Size: fh.Size,
			Data: data,
		})
	}

	opts := clinical.Options{
		OutputFormat:       string(clinical.ParseFormat(c.PostForm("output_format"))),
		DetailLevel:        c.PostForm("detail_level"),
		IncludeICD10:       parseFormBool(c, "include_icd10"),
		IncludeMedications: parseFormBool(c, "include_medications"),
	}

	items, err := h.reportSvc.ProcessBatch(c.Request.Context(), files, opts, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, gin.H{"results": items})
}

// List returns a filtered, paginated page of the report log.
func (h *ReportHandler) List(c *gin.Context) {
	q := &report.ListEntriesQuery{
		FileName: c.Query("file_name"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	if raw := c.Query("status"); raw != "" {
		s := report.Status(raw)
		if s != report.StatusOK && s != report.StatusError {
			respondError(c, http.StatusBadRequest, "status must be ok or error")
			return
		}
		q.Status = &s
	}
	if raw := c.Query("format"); raw != "" {
		q.Format = &raw
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		q.DateFrom = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		q.DateTo = &t
	}

	page, err := h.reportSvc.ListEntries(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

// Get returns one report log entry with its rendered report text.
func (h *ReportHandler) Get(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.reportSvc.GetEntry(c.Request.Context(), id, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"entry": entry, "report": entry.ReportText})
}

// Download streams the rendered report as a plain-text attachment.
func (h *ReportHandler) Download(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.reportSvc.DownloadReport(c.Request.Context(), id, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	name := fmt.Sprintf("report-%s.txt", entry.ID)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Length", strconv.Itoa(len(entry.ReportText)))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(entry.ReportText))
}

// Export streams the aggregate .xlsx workbook over the full report log.
func (h *ReportHandler) Export(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	f, err := h.reportSvc.ExportWorkbook(c.Request.Context(), claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("report-log-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		// Headers are already sent; all we can do is log via gin's error list.
		_ = c.Error(err)
	}
}

func parseFormBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.PostForm(key))
	return err == nil && v
}
