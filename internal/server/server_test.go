package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/pipeline"
	"github.com/ladi-press/manuscript-eval/internal/report"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &common.Config{
		Server:  common.ServerConfig{HTTPAddr: ":0"},
		Storage: common.StorageConfig{MaxUploadBytes: 16 << 20},
		Eval:    common.EvalConfig{JobTimeout: time.Minute},
	}

	db, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "server.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)

	evaluations := repository.NewEvaluationRepository(db, logger)
	templates := repository.NewTemplateRepository(db, logger)

	evaluator := eval.NewEvaluator(nil, common.LLMConfig{}, logger) // synthetic
	orchestrator := eval.NewOrchestrator(evaluator, pipeline.NewTemplateSource(templates, store, logger), cfg.Eval, logger)
	processor := pipeline.NewProcessor(store, evaluations, templates, orchestrator, report.NewService(store, logger), logger)

	return New(cfg, db, processor, evaluations, templates, store, logger)
}

func docxUpload(t *testing.T) []byte {
	t.Helper()
	xml := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>The harbor town of Vell kept its lighthouse burning through every storm the northern sea could raise.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Mira counted the ships from the cliff path each morning, noting which captains had stayed away.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doJSON(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out), "body: %s", body)
	}
	return resp.StatusCode, out
}

func TestRequiresUserHeader(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations", nil)
	status, body := doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "X-User-ID")
}

func TestRejectsUnsupportedUpload(t *testing.T) {
	s := newTestServer(t)
	buf, contentType := multipartBody(t, "notes.txt", []byte("plain text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unsupported file type")
}

func TestEvaluationRoundTrip(t *testing.T) {
	s := newTestServer(t)

	buf, contentType := multipartBody(t, "sea-of-glass.docx", docxUpload(t), map[string]string{"methods": "basic"})
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	require.Equal(t, http.StatusCreated, status, "body: %v", body)

	evaluation := body["evaluation"].(map[string]any)
	assert.Equal(t, "COMPLETED", evaluation["status"])
	id := evaluation["id"].(string)

	result := body["result"].(map[string]any)
	assert.Len(t, result["categories"], 6)

	// row is listed for its owner only
	req = httptest.NewRequest(http.MethodGet, "/api/evaluations", nil)
	req.Header.Set("X-User-ID", "author-1")
	status, body = doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["evaluations"], 1)

	req = httptest.NewRequest(http.MethodGet, "/api/evaluations", nil)
	req.Header.Set("X-User-ID", "someone-else")
	status, body = doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["evaluations"])

	// full result fetch
	req = httptest.NewRequest(http.MethodGet, "/api/evaluations/"+id, nil)
	req.Header.Set("X-User-ID", "author-1")
	status, body = doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "result")

	// stored HTML report
	req = httptest.NewRequest(http.MethodGet, "/api/evaluations/"+id+"/report", nil)
	req.Header.Set("X-User-ID", "author-1")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	html, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(html), "<h1>Manuscript Evaluation: sea-of-glass</h1>")

	// foreign scope gets 404, not someone else's report
	req = httptest.NewRequest(http.MethodGet, "/api/evaluations/"+id, nil)
	req.Header.Set("X-User-ID", "someone-else")
	status, _ = doJSON(t, s, req)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestServer(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Plot"))
	require.NoError(t, f.SetCellValue("Plot", "A1", "Judge the pacing of each act."))
	workbook, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	buf, contentType := multipartBody(t, "rubric.xlsx", workbook.Bytes(), map[string]string{
		"name":        "Genre Rubric",
		"description": "pacing focus",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/templates", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	tmpl := body["template"].(map[string]any)
	id := tmpl["id"].(string)
	assert.Equal(t, "Genre Rubric", tmpl["name"])
	assert.Equal(t, true, tmpl["is_active"])

	// patch deactivates
	patch := strings.NewReader(`{"is_active": false, "description": "retired"}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/templates/"+id, patch)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "author-1")
	status, body = doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)
	tmpl = body["template"].(map[string]any)
	assert.Equal(t, false, tmpl["is_active"])
	assert.Equal(t, "retired", tmpl["description"])

	// delete, then 404
	req = httptest.NewRequest(http.MethodDelete, "/api/templates/"+id, nil)
	req.Header.Set("X-User-ID", "author-1")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/templates/"+id, nil)
	req.Header.Set("X-User-ID", "author-1")
	status, _ = doJSON(t, s, req)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTemplateUploadRejectsNonSpreadsheet(t *testing.T) {
	s := newTestServer(t)
	buf, contentType := multipartBody(t, "rubric.pdf", []byte("%PDF-1.4"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/templates", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "spreadsheets")
}

func TestInvalidMethodRejected(t *testing.T) {
	s := newTestServer(t)
	buf, contentType := multipartBody(t, "sea.docx", docxUpload(t), map[string]string{"methods": "psychic"})
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fmt.Sprint(body["error"]), "invalid method")
}

func TestCategoryMetadata(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	status, body := doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)

	categories := body["categories"].([]any)
	require.Len(t, categories, 6)
	first := categories[0].(map[string]any)
	assert.Equal(t, "line-editing", first["id"])
	assert.NotEmpty(t, first["default_prompt"])

	order := body["order"].([]any)
	require.Len(t, order, 6)
	assert.Equal(t, "line-editing", order[0])
	assert.Equal(t, "readiness", order[5])

	// synonym lookup resolves to the canonical category
	req = httptest.NewRequest(http.MethodGet, "/api/categories/copy%20editing", nil)
	status, body = doJSON(t, s, req)
	require.Equal(t, http.StatusOK, status)
	cat := body["category"].(map[string]any)
	assert.Equal(t, "line-editing", cat["id"])

	req = httptest.NewRequest(http.MethodGet, "/api/categories/astrology", nil)
	status, _ = doJSON(t, s, req)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTemplateNameBoundsEnforced(t *testing.T) {
	s := newTestServer(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Plot"))
	require.NoError(t, f.SetCellValue("Plot", "A1", "Judge the pacing."))
	workbook, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	buf, contentType := multipartBody(t, "rubric.xlsx", workbook.Bytes(), map[string]string{
		"name": strings.Repeat("n", 300),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/templates", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "author-1")

	status, body := doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fmt.Sprint(body["error"]), "at most 255")

	// the same bound holds on update
	patch := strings.NewReader(fmt.Sprintf(`{"name": %q}`, strings.Repeat("n", 300)))
	req = httptest.NewRequest(http.MethodPatch, "/api/templates/00000000-0000-0000-0000-000000000001", patch)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "author-1")
	status, body = doJSON(t, s, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fmt.Sprint(body["error"]), "at most 255")
}
