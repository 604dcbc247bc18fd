package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/ingestion"
	"github.com/truststack/scorer/internal/pipeline"
	"github.com/truststack/scorer/internal/storage/sqlite"
	"github.com/truststack/scorer/pkg/logger"
)

type RunsHandler struct {
	pipeline   *pipeline.Pipeline
	normalizer *ingestion.Normalizer
	db         *sqlite.Client
}

func NewRunsHandler(p *pipeline.Pipeline, n *ingestion.Normalizer, db *sqlite.Client) *RunsHandler {
	return &RunsHandler{
		pipeline:   p,
		normalizer: n,
		db:         db,
	}
}

// HandleCreateRun accepts a content batch and runs the full scoring
// pipeline over it synchronously, returning the run report.
func (h *RunsHandler) HandleCreateRun(c *fiber.Ctx) error {
	var req struct {
		Brand            string              `json:"brand"`
		BrandKeywords    []string            `json:"brand_keywords"`
		PromoteThreshold float64             `json:"promote_threshold"`
		Items            []ingestion.RawItem `json:"items"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Brand == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Brand is required",
		})
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one item is required",
		})
	}

	items := h.normalizer.NormalizeBatch(req.Items)

	report, err := h.pipeline.Run(c.Context(), pipeline.Request{
		Brand:            req.Brand,
		BrandKeywords:    req.BrandKeywords,
		PromoteThreshold: req.PromoteThreshold,
		Items:            items,
	})
	if err != nil {
		logger.Error("Scoring run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to execute scoring run",
		})
	}

	return c.JSON(report)
}

// HandleListRuns returns recent runs, newest first, optionally filtered
// by brand.
func (h *RunsHandler) HandleListRuns(c *fiber.Ctx) error {
	brand := c.Query("brand")
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	runs, err := h.db.ListRuns(brand, limit)
	if err != nil {
		logger.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleGetRun returns one run with its per-item scores and skips.
func (h *RunsHandler) HandleGetRun(c *fiber.Ctx) error {
	runID := c.Params("id")
	if runID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Run id is required",
		})
	}

	run, err := h.db.GetRun(runID)
	if err != nil {
		logger.Error("Failed to get run", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}

	scores, err := h.db.GetScores(runID)
	if err != nil {
		logger.Error("Failed to get scores", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run scores",
		})
	}

	skips, err := h.db.GetSkips(runID)
	if err != nil {
		logger.Error("Failed to get skips", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run skips",
		})
	}

	return c.JSON(fiber.Map{
		"run":     run,
		"scores":  scores,
		"skipped": skips,
	})
}
