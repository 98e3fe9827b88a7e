package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ladi-press/manuscript-eval/constants"
	"github.com/ladi-press/manuscript-eval/internal/common"
)

// ResultUpdate carries everything a completed job writes back to its row.
type ResultUpdate struct {
	OverallScore   int
	CategoryScores map[constants.Category]int
	ResultJSON     string
}

type EvaluationRepository interface {
	Create(ctx context.Context, ev *Evaluation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.EvaluationStatus) error
	SaveResult(ctx context.Context, id uuid.UUID, update ResultUpdate) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	SetReportPaths(ctx context.Context, id uuid.UUID, reportPath, scoresPath string) error
	GetByID(ctx context.Context, id uuid.UUID, userID string) (*Evaluation, error)
	ListByUser(ctx context.Context, userID string) ([]*Evaluation, error)
}

type evaluationRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewEvaluationRepository(db *DB, logger *slog.Logger) EvaluationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &evaluationRepository{db: db.Gorm, logger: logger}
}

func (r *evaluationRepository) Create(ctx context.Context, ev *Evaluation) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		r.logger.Error("failed to create evaluation", "user_id", ev.UserID, "error", err)
		return common.WrapError(err, "create evaluation")
	}
	return nil
}

func (r *evaluationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.EvaluationStatus) error {
	res := r.db.WithContext(ctx).Model(&Evaluation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		r.logger.Error("failed to update evaluation status",
			"evaluation_id", id.String(), "status", status, "error", res.Error)
		return common.WrapError(res.Error, "update evaluation status")
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *evaluationRepository) SaveResult(ctx context.Context, id uuid.UUID, update ResultUpdate) error {
	columns := map[string]any{
		"status":        constants.EvaluationCompleted,
		"overall_score": update.OverallScore,
		"result_json":   update.ResultJSON,
		"error_message": "",
	}
	scoreColumns := map[constants.Category]string{
		constants.LineEditing:   "line_editing_score",
		constants.Plot:          "plot_score",
		constants.Character:     "character_score",
		constants.Flow:          "flow_score",
		constants.Worldbuilding: "worldbuilding_score",
		constants.Readiness:     "readiness_score",
	}
	for cat, col := range scoreColumns {
		if score, ok := update.CategoryScores[cat]; ok {
			columns[col] = score
		}
	}

	res := r.db.WithContext(ctx).Model(&Evaluation{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		r.logger.Error("failed to save evaluation result",
			"evaluation_id", id.String(), "error", res.Error)
		return common.WrapError(res.Error, "save evaluation result")
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *evaluationRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	res := r.db.WithContext(ctx).Model(&Evaluation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        constants.EvaluationFailed,
			"error_message": message,
		})
	if res.Error != nil {
		r.logger.Error("failed to mark evaluation failed",
			"evaluation_id", id.String(), "error", res.Error)
		return common.WrapError(res.Error, "mark evaluation failed")
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *evaluationRepository) SetReportPaths(ctx context.Context, id uuid.UUID, reportPath, scoresPath string) error {
	res := r.db.WithContext(ctx).Model(&Evaluation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"report_path": reportPath,
			"scores_path": scoresPath,
		})
	if res.Error != nil {
		return common.WrapError(res.Error, "set report paths")
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uuid.UUID, userID string) (*Evaluation, error) {
	var ev Evaluation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get evaluation", "evaluation_id", id.String(), "error", err)
		return nil, common.WrapError(err, "get evaluation")
	}
	return &ev, nil
}

func (r *evaluationRepository) ListByUser(ctx context.Context, userID string) ([]*Evaluation, error) {
	var evs []*Evaluation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&evs).Error
	if err != nil {
		r.logger.Error("failed to list evaluations", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list evaluations")
	}
	return evs, nil
}

// JoinList serializes an ordered list for a text column; SplitList reverses
// it. Empty input round-trips to an empty slice, not [""].
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

func SplitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
