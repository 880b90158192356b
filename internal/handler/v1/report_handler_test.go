package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/clinical"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/config"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain/report"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/service"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/spreadsheet"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/auth"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/metrics"
)

// Collector shared across the handler test package; promauto panics on
// duplicate registration in the default registry.
var handlerMetrics = metrics.NewCollector("handler_test")

type memReportRepo struct {
	mu      sync.Mutex
	entries []*report.Entry
}

func (m *memReportRepo) Create(_ context.Context, e *report.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memReportRepo) GetByID(_ context.Context, id uuid.UUID) (*report.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, report.ErrEntryNotFound
}

func (m *memReportRepo) List(_ context.Context, q *report.ListEntriesQuery) (*report.PagedEntries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &report.PagedEntries{
		Entries:    m.entries,
		TotalCount: int64(len(m.entries)),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: 1,
	}, nil
}

func (m *memReportRepo) ListAll(_ context.Context) ([]*report.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, nil
}

type memAuditRepo struct{}

func (memAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

type apiFixture struct {
	router     http.Handler
	jwtManager *auth.JWTManager
	repo       *memReportRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Name: "clinical-history-agent", Environment: "test"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         time.Hour,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000, AuthRequestsPerMinute: 1000},
		Upload: config.UploadConfig{
			MaxFileBytes:      1 << 20,
			MaxFilesPerBatch:  5,
			MaxTextBytes:      1 << 20,
			PerFileTimeout:    10 * time.Second,
			AllowedExtensions: []string{".txt", ".pdf", ".docx"},
			Workers:           2,
		},
	}

	repo := &memReportRepo{}
	jwtManager := newJWTManager()

	auditSvc := service.NewAuditService(memAuditRepo{}, handlerMetrics, zap.NewNop())
	t.Cleanup(auditSvc.Shutdown)

	generator := clinical.NewGenerator(clinical.NewKnowledgeBase(), zap.NewNop())
	workbook := spreadsheet.NewWorkbook(t.TempDir()+"/log.xlsx", zap.NewNop())
	reportSvc := service.NewReportService(repo, generator, workbook, auditSvc, handlerMetrics, zap.NewNop(), cfg.Upload)

	router := NewRouter(RouterDeps{
		Config:        cfg,
		Log:           zap.NewNop(),
		DB:            nil, // healthz is not exercised here
		JWTManager:    jwtManager,
		Metrics:       handlerMetrics,
		AuthHandler:   nil,
		ReportHandler: NewReportHandler(reportSvc),
	})

	return &apiFixture{router: router, jwtManager: jwtManager, repo: repo}
}

func multipartUpload(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (f *apiFixture) do(t *testing.T, req *http.Request, role domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	token, _ := accessTokenFor(t, f.jwtManager, role)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestUploadEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	body, contentType := multipartUpload(t,
		map[string][]byte{
			"visit.txt": []byte("62-year-old male with hypertension presents with chest pain for 2 days. BP: 150/90."),
		},
		map[string]string{
			"output_format": "soap",
			"include_icd10": "true",
		},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	w := fx.do(t, req, domain.RoleClinician)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Results []struct {
				FileName string `json:"file_name"`
				Status   string `json:"status"`
				Report   string `json:"report"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "visit.txt", resp.Data.Results[0].FileName)
	assert.Equal(t, "ok", resp.Data.Results[0].Status)
	assert.Contains(t, resp.Data.Results[0].Report, "Hypertension (I10)")
}

func TestUploadRequiresAuth(t *testing.T) {
	fx := newAPIFixture(t)

	body, contentType := multipartUpload(t, map[string][]byte{"a.txt": []byte("x")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRejectsOversizedBatch(t *testing.T) {
	fx := newAPIFixture(t)

	files := map[string][]byte{}
	for i := 0; i < 6; i++ {
		files[fmt.Sprintf("f%d.txt", i)] = []byte("x")
	}
	body, contentType := multipartUpload(t, files, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	w := fx.do(t, req, domain.RoleClinician)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
}

func TestReportLifecycleEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	// Seed one report through the upload endpoint.
	body, contentType := multipartUpload(t,
		map[string][]byte{"visit.txt": []byte("chest pain for 3 days")},
		map[string]string{"output_format": "structured"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := fx.do(t, req, domain.RoleClinician)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, fx.repo.entries, 1)
	entryID := fx.repo.entries[0].ID

	t.Run("list", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil), domain.RoleClinician)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "visit.txt")
	})

	t.Run("list rejects bad status filter", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports?status=weird", nil), domain.RoleClinician)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+entryID.String(), nil), domain.RoleClinician)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "STRUCTURED CLINICAL REPORT")
	})

	t.Run("get invalid uuid", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/not-a-uuid", nil), domain.RoleClinician)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get unknown id", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+uuid.NewString(), nil), domain.RoleClinician)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("download", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+entryID.String()+"/download", nil), domain.RoleClinician)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Body.String(), "STRUCTURED CLINICAL REPORT")
	})

	t.Run("export", func(t *testing.T) {
		w := fx.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil), domain.RoleAdmin)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotEmpty(t, w.Body.Bytes())
	})
}
