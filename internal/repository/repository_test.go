package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestEvaluationLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewEvaluationRepository(db, nil)
	ctx := context.Background()

	ev := &Evaluation{
		UserID:      "user-1",
		Filename:    "novel.docx",
		Format:      constants.FormatDOCX,
		Status:      constants.EvaluationPending,
		MethodsUsed: JoinList([]string{"basic"}),
	}
	require.NoError(t, repo.Create(ctx, ev))
	require.NotEqual(t, uuid.Nil, ev.ID)

	require.NoError(t, repo.UpdateStatus(ctx, ev.ID, constants.EvaluationProcessing))

	err := repo.SaveResult(ctx, ev.ID, ResultUpdate{
		OverallScore: 81,
		CategoryScores: map[constants.Category]int{
			constants.Plot:      78,
			constants.Character: 92,
		},
		ResultJSON: `{"overall_score":81}`,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, ev.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, constants.EvaluationCompleted, got.Status)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 81, *got.OverallScore)
	require.NotNil(t, got.PlotScore)
	assert.Equal(t, 78, *got.PlotScore)
	assert.Nil(t, got.FlowScore)
	assert.Equal(t, `{"overall_score":81}`, got.ResultJSON)
}

func TestEvaluationScoping(t *testing.T) {
	db := openTestDB(t)
	repo := NewEvaluationRepository(db, nil)
	ctx := context.Background()

	ev := &Evaluation{UserID: "owner", Filename: "a.pdf", Format: constants.FormatPDF, Status: constants.EvaluationPending}
	require.NoError(t, repo.Create(ctx, ev))

	_, err := repo.GetByID(ctx, ev.ID, "intruder")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(ctx, uuid.New(), "owner")
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := repo.ListByUser(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.ListByUser(ctx, "intruder")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMarkFailed(t *testing.T) {
	db := openTestDB(t)
	repo := NewEvaluationRepository(db, nil)
	ctx := context.Background()

	ev := &Evaluation{UserID: "u", Filename: "a.pdf", Format: constants.FormatPDF, Status: constants.EvaluationProcessing}
	require.NoError(t, repo.Create(ctx, ev))
	require.NoError(t, repo.MarkFailed(ctx, ev.ID, "evaluation timed out after 8m0s"))

	got, err := repo.GetByID(ctx, ev.ID, "u")
	require.NoError(t, err)
	assert.Equal(t, constants.EvaluationFailed, got.Status)
	assert.Equal(t, "evaluation timed out after 8m0s", got.ErrorMessage)
	assert.Nil(t, got.OverallScore)

	assert.ErrorIs(t, repo.MarkFailed(ctx, uuid.New(), "x"), common.ErrNotFound)
}

func TestTemplateActiveFiltering(t *testing.T) {
	db := openTestDB(t)
	repo := NewTemplateRepository(db, nil)
	ctx := context.Background()

	tmpl := &Template{
		Name:             "My Rubric",
		FilePath:         "templates/abc.xlsx",
		OriginalFilename: "rubric.xlsx",
		UploadedBy:       "owner",
		IsActive:         true,
	}
	require.NoError(t, repo.Create(ctx, tmpl))

	got, err := repo.GetActive(ctx, tmpl.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "My Rubric", got.Name)

	_, err = repo.GetActive(ctx, tmpl.ID, "intruder")
	assert.ErrorIs(t, err, common.ErrNotFound)

	inactive := false
	_, err = repo.Update(ctx, tmpl.ID, "owner", TemplateUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, err = repo.GetActive(ctx, tmpl.ID, "owner")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// still visible to its owner for management
	got, err = repo.GetByID(ctx, tmpl.ID, "owner")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestTemplateUpdateAndUsage(t *testing.T) {
	db := openTestDB(t)
	repo := NewTemplateRepository(db, nil)
	ctx := context.Background()

	tmpl := &Template{Name: "v1", FilePath: "templates/x.xlsx", UploadedBy: "owner", IsActive: true}
	require.NoError(t, repo.Create(ctx, tmpl))

	name := "v2"
	desc := "updated rubric"
	got, err := repo.Update(ctx, tmpl.ID, "owner", TemplateUpdate{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
	assert.Equal(t, "updated rubric", got.Description)

	require.NoError(t, repo.IncrementUsage(ctx, tmpl.ID))
	require.NoError(t, repo.IncrementUsage(ctx, tmpl.ID))
	got, err = repo.GetByID(ctx, tmpl.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	require.NoError(t, repo.Delete(ctx, tmpl.ID, "owner"))
	_, err = repo.GetByID(ctx, tmpl.ID, "owner")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, tmpl.ID, "owner"), common.ErrNotFound)
}

func TestListRoundTrip(t *testing.T) {
	assert.Equal(t, []string{}, SplitList(JoinList(nil)))
	assert.Equal(t, []string{"basic", "template"}, SplitList(JoinList([]string{"basic", "template"})))
}
