package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

// templateSource resolves template ids to their stored spreadsheet bytes,
// scoped to the requesting user and restricted to active templates. It is
// the orchestrator's view of the template store.
type templateSource struct {
	templates repository.TemplateRepository
	store     storage.Store
	logger    *slog.Logger
}

func NewTemplateSource(templates repository.TemplateRepository, store storage.Store, logger *slog.Logger) eval.TemplateSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateSource{templates: templates, store: store, logger: logger}
}

func (s *templateSource) TemplateBytes(ctx context.Context, templateID, userScope string) ([]byte, error) {
	id, err := uuid.Parse(templateID)
	if err != nil {
		return nil, common.NewAppError("TEMPLATE_ERROR",
			"invalid template id "+templateID, common.ErrInvalidInput)
	}

	tmpl, err := s.templates.GetActive(ctx, id, userScope)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", templateID, err)
	}

	rc, err := s.store.Open(ctx, tmpl.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open template file %s: %w", tmpl.FilePath, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			s.logger.Warn("pipeline.template_close_failed", "template_id", templateID, "error", cerr)
		}
	}()

	return io.ReadAll(rc)
}
