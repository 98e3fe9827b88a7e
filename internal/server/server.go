package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/ladi-press/manuscript-eval/internal/common"
	"github.com/ladi-press/manuscript-eval/internal/eval"
	"github.com/ladi-press/manuscript-eval/internal/extract"
	"github.com/ladi-press/manuscript-eval/internal/pipeline"
	"github.com/ladi-press/manuscript-eval/internal/repository"
	"github.com/ladi-press/manuscript-eval/internal/storage"
)

// Server is the JSON API over the evaluation pipeline. The opaque user
// scope arrives in the X-User-ID header; authorization beyond scoping is
// out of scope here.
type Server struct {
	app         *fiber.App
	cfg         *common.Config
	db          *repository.DB
	processor   *pipeline.Processor
	evaluations repository.EvaluationRepository
	templates   repository.TemplateRepository
	store       storage.Store
	logger      *slog.Logger
}

func New(
	cfg *common.Config,
	db *repository.DB,
	processor *pipeline.Processor,
	evaluations repository.EvaluationRepository,
	templates repository.TemplateRepository,
	store storage.Store,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:         cfg,
		db:          db,
		processor:   processor,
		evaluations: evaluations,
		templates:   templates,
		store:       store,
		logger:      logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:   "manuscript-eval",
		BodyLimit: int(cfg.Storage.MaxUploadBytes),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			return s.respondError(c, err)
		},
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")

	api.Get("/categories", s.listCategories)
	api.Get("/categories/:id", s.getCategory)

	api.Post("/evaluations", s.createEvaluation)
	api.Get("/evaluations", s.listEvaluations)
	api.Get("/evaluations/:id", s.getEvaluation)
	api.Get("/evaluations/:id/report", s.getEvaluationReport)
	api.Get("/evaluations/:id/scores.xlsx", s.getEvaluationScores)

	api.Post("/templates", s.createTemplate)
	api.Get("/templates", s.listTemplates)
	api.Get("/templates/:id", s.getTemplate)
	api.Patch("/templates/:id", s.updateTemplate)
	api.Delete("/templates/:id", s.deleteTemplate)
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("http.listen", "addr", s.cfg.Server.HTTPAddr)
	return s.app.Listen(s.cfg.Server.HTTPAddr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// App exposes the fiber app for handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) health(c *fiber.Ctx) error {
	if err := s.db.HealthCheck(c.Context(), 3*time.Second); err != nil {
		s.logger.Error("http.health.db_failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	reqID := uuid.New().String()
	c.Locals("request_id", reqID)

	err := c.Next()

	s.logger.Info("http.request",
		"request_id", reqID,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return err
}

// userID extracts the caller's opaque scope. Every scoped route requires it.
func (s *Server) userID(c *fiber.Ctx) (string, error) {
	id := c.Get("X-User-ID")
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "X-User-ID header is required")
	}
	return id, nil
}

// respondError maps domain errors onto HTTP statuses: timeout 504, not
// found 404, invalid input 400, extraction failure 400, everything else 500
// without leaking internals.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var extErr *extract.ExtractionError
	switch {
	case eval.IsTimeout(err):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.As(err, &extErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": extErr.Error()})
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		s.logger.Error("http.internal_error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
