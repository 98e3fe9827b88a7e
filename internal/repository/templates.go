package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ladi-press/manuscript-eval/internal/common"
)

// TemplateUpdate carries the mutable template fields for Update. Nil
// pointers leave the column unchanged.
type TemplateUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	// GetByID returns the caller's template regardless of active state.
	GetByID(ctx context.Context, id uuid.UUID, userID string) (*Template, error)
	// GetActive returns the caller's template only if it is usable for
	// evaluation; inactive or foreign rows surface as ErrNotFound.
	GetActive(ctx context.Context, id uuid.UUID, userID string) (*Template, error)
	List(ctx context.Context, userID string) ([]*Template, error)
	Update(ctx context.Context, id uuid.UUID, userID string, update TemplateUpdate) (*Template, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type templateRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *DB, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepository{db: db.Gorm, logger: logger}
}

func (r *templateRepository) Create(ctx context.Context, t *Template) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		r.logger.Error("failed to create template", "uploaded_by", t.UploadedBy, "error", err)
		return common.WrapError(err, "create template")
	}
	return nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID, userID string) (*Template, error) {
	var t Template
	err := r.db.WithContext(ctx).
		Where("id = ? AND uploaded_by = ?", id, userID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get template", "template_id", id.String(), "error", err)
		return nil, common.WrapError(err, "get template")
	}
	return &t, nil
}

func (r *templateRepository) GetActive(ctx context.Context, id uuid.UUID, userID string) (*Template, error) {
	var t Template
	err := r.db.WithContext(ctx).
		Where("id = ? AND uploaded_by = ? AND is_active = ?", id, userID, true).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to get active template", "template_id", id.String(), "error", err)
		return nil, common.WrapError(err, "get active template")
	}
	return &t, nil
}

func (r *templateRepository) List(ctx context.Context, userID string) ([]*Template, error) {
	var ts []*Template
	err := r.db.WithContext(ctx).
		Where("uploaded_by = ?", userID).
		Order("created_at DESC").
		Find(&ts).Error
	if err != nil {
		r.logger.Error("failed to list templates", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list templates")
	}
	return ts, nil
}

func (r *templateRepository) Update(ctx context.Context, id uuid.UUID, userID string, update TemplateUpdate) (*Template, error) {
	columns := map[string]any{}
	if update.Name != nil {
		columns["name"] = *update.Name
	}
	if update.Description != nil {
		columns["description"] = *update.Description
	}
	if update.IsActive != nil {
		columns["is_active"] = *update.IsActive
	}

	if len(columns) > 0 {
		res := r.db.WithContext(ctx).Model(&Template{}).
			Where("id = ? AND uploaded_by = ?", id, userID).
			Updates(columns)
		if res.Error != nil {
			r.logger.Error("failed to update template", "template_id", id.String(), "error", res.Error)
			return nil, common.WrapError(res.Error, "update template")
		}
		if res.RowsAffected == 0 {
			return nil, common.ErrNotFound
		}
	}
	return r.GetByID(ctx, id, userID)
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND uploaded_by = ?", id, userID).
		Delete(&Template{})
	if res.Error != nil {
		r.logger.Error("failed to delete template", "template_id", id.String(), "error", res.Error)
		return common.WrapError(res.Error, "delete template")
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *templateRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Template{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return common.WrapError(res.Error, "increment template usage")
	}
	return nil
}
