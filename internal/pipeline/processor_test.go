package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/extract"
	"github.com/ladi-press/manuscript-eval/internal/report"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

type testEnv struct {
	store       *storage.LocalStore
	evaluations repository.EvaluationRepository
	templates   repository.TemplateRepository
	processor   *Processor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "pipeline.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)

	evaluations := repository.NewEvaluationRepository(db, logger)
	templates := repository.NewTemplateRepository(db, logger)

	evalCfg := common.EvalConfig{JobTimeout: time.Minute, CategoryPause: 0}
	evaluator := eval.NewEvaluator(nil, common.LLMConfig{}, logger) // synthetic
	orchestrator := eval.NewOrchestrator(evaluator, NewTemplateSource(templates, store, logger), evalCfg, logger)

	return &testEnv{
		store:       store,
		evaluations: evaluations,
		templates:   templates,
		processor:   NewProcessor(store, evaluations, templates, orchestrator, report.NewService(store, logger), logger),
	}
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildTemplateXLSX(t *testing.T, sheets map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, body := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetCellValue(name, "A1", body))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

// longManuscript clears both the 50-char extraction gate and the 100-char
// evaluation floor.
func longManuscript() []string {
	return []string{
		"The harbor town of Vell kept its lighthouse burning through every storm the northern sea could raise.",
		"Mira counted the ships from the cliff path each morning, noting which captains had chosen to stay away.",
	}
}

func TestProcessBasicEvaluation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	row, result, err := env.processor.Process(ctx, Request{
		UserID:   "author-1",
		Filename: "sea-of-glass.docx",
		Content:  bytes.NewReader(buildDOCX(t, longManuscript()...)),
		Methods:  []constants.Method{constants.MethodBasic},
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, constants.EvaluationCompleted, row.Status)
	require.NotNil(t, row.OverallScore)
	assert.Equal(t, result.OverallScore, *row.OverallScore)
	assert.Len(t, result.Categories, 6)
	for id, cat := range result.Categories {
		assert.GreaterOrEqual(t, cat.Score, 0, id)
		assert.LessOrEqual(t, cat.Score, 100, id)
	}

	// synthetic run is flagged, never mistaken for genuine scores
	assert.True(t, result.AllResults["basic"].Synthetic)

	// both report artifacts landed in storage
	require.NotEmpty(t, row.ReportPath)
	require.NotEmpty(t, row.ScoresPath)
	rc, err := env.store.Open(ctx, row.ReportPath)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	// full result JSON is retrievable from the row
	assert.Contains(t, row.ResultJSON, `"overall_score"`)
}

func TestProcessRejectsShortManuscript(t *testing.T) {
	env := newTestEnv(t)

	row, result, err := env.processor.Process(context.Background(), Request{
		UserID:   "author-1",
		Filename: "stub.docx",
		Content:  bytes.NewReader(buildDOCX(t, "Too short to evaluate.")),
		Methods:  []constants.Method{constants.MethodBasic},
	})
	require.Error(t, err)
	var extErr *extract.ExtractionError
	assert.ErrorAs(t, err, &extErr)
	assert.Nil(t, row)
	assert.Nil(t, result)

	// the row records the failure and carries no scores
	list, lerr := env.evaluations.ListByUser(context.Background(), "author-1")
	require.NoError(t, lerr)
	require.Len(t, list, 1)
	assert.Equal(t, constants.EvaluationFailed, list[0].Status)
	assert.Nil(t, list[0].OverallScore)
	assert.NotEmpty(t, list[0].ErrorMessage)
}

func TestProcessRejectsUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.processor.Process(context.Background(), Request{
		UserID:   "author-1",
		Filename: "notes.txt",
		Content:  strings.NewReader("plain text"),
		Methods:  []constants.Method{constants.MethodBasic},
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	list, err := env.evaluations.ListByUser(context.Background(), "author-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProcessTemplateMethod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	key := storage.ObjectKey(storage.PrefixTemplates, "rubric.xlsx")
	_, err := env.store.Save(ctx, key, bytes.NewReader(buildTemplateXLSX(t, map[string]string{
		"PLOT": "Evaluate the three-act structure against genre conventions.",
	})))
	require.NoError(t, err)

	tmpl := &repository.Template{
		Name:       "Genre Rubric",
		FilePath:   key,
		UploadedBy: "author-1",
		IsActive:   true,
	}
	require.NoError(t, env.templates.Create(ctx, tmpl))

	row, result, err := env.processor.Process(ctx, Request{
		UserID:      "author-1",
		Filename:    "sea-of-glass.docx",
		Content:     bytes.NewReader(buildDOCX(t, longManuscript()...)),
		Methods:     []constants.Method{constants.MethodBasic, constants.MethodTemplate},
		TemplateIDs: []string{tmpl.ID.String()},
	})
	require.NoError(t, err)

	// template contributed only plot; merged score is the pairwise mean of
	// the synthetic basic (78) and template (75) plot scores
	assert.Equal(t, 77, result.Categories[constants.Plot].Score)
	assert.Contains(t, result.AllResults, "template_"+tmpl.ID.String())
	assert.Len(t, result.AllResults["template_"+tmpl.ID.String()].Categories, 1)

	assert.Equal(t, constants.EvaluationCompleted, row.Status)

	got, err := env.templates.GetByID(ctx, tmpl.ID, "author-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)
}

func TestProcessSkipsMissingTemplate(t *testing.T) {
	env := newTestEnv(t)

	row, result, err := env.processor.Process(context.Background(), Request{
		UserID:      "author-1",
		Filename:    "sea-of-glass.docx",
		Content:     bytes.NewReader(buildDOCX(t, longManuscript()...)),
		Methods:     []constants.Method{constants.MethodBasic, constants.MethodTemplate},
		TemplateIDs: []string{"6d9f9f3e-0000-4000-8000-000000000000"},
	})
	require.NoError(t, err)

	// missing template degrades to basic-only results
	assert.Equal(t, constants.EvaluationCompleted, row.Status)
	assert.Len(t, result.Categories, 6)
	assert.NotContains(t, result.AllResults, "template_6d9f9f3e-0000-4000-8000-000000000000")
}
