package report

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

func sampleResult() *eval.EvaluationResult {
	return &eval.EvaluationResult{
		Categories: map[constants.Category]eval.CategoryResult{
			constants.Plot: {
				Score:               78,
				Summary:             "Well-structured narrative with good pacing.",
				Strengths:           []string{"Clear story arc"},
				AreasForImprovement: []string{"Middle section tension"},
				Status:              constants.CategoryCompleted,
			},
			constants.Character: {
				Score:               0,
				Summary:             "evaluation failed after 3 attempt(s)",
				Strengths:           []string{},
				AreasForImprovement: []string{},
				Status:              constants.CategoryFailed,
			},
		},
		OverallScore:   39,
		EvaluationDate: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		MethodsUsed:    []constants.Method{constants.MethodBasic},
		TemplatesUsed:  []string{},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown("Sea of Glass", sampleResult())

	assert.Contains(t, md, "# Manuscript Evaluation: Sea of Glass")
	assert.Contains(t, md, "**Overall Score:** 39/100")
	assert.Contains(t, md, "## Plot Evaluation — 78/100")
	assert.Contains(t, md, "- Clear story arc")
	assert.Contains(t, md, "*This category could not be evaluated.*")
	// categories nothing evaluated stay out of the document
	assert.NotContains(t, md, "Worldbuilding")
	// plot precedes character, matching evaluation order
	assert.Less(t, bytes.Index([]byte(md), []byte("Plot Evaluation")),
		bytes.Index([]byte(md), []byte("Character Evaluation")))
}

func TestGenerateStoresBothArtifacts(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	svc := NewService(store, nil)
	ctx := context.Background()
	id := uuid.New()

	artifacts, err := svc.Generate(ctx, id, "Sea of Glass", sampleResult())
	require.NoError(t, err)

	rc, err := store.Open(ctx, artifacts.ReportKey)
	require.NoError(t, err)
	html, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Manuscript Evaluation: Sea of Glass</h1>")
	assert.Contains(t, string(html), "<li>Clear story arc</li>")

	rc, err = store.Open(ctx, artifacts.ScoresKey)
	require.NoError(t, err)
	workbook, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	rows, err := f.GetRows("Scores")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Category", "Score", "Status", "Summary"}, rows[0][:4])

	plot, err := f.GetCellValue("Scores", "B2")
	require.NoError(t, err)
	assert.Equal(t, "78", plot)
}
