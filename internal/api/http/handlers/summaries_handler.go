package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/dto"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// SummariesHandler generates and lists complaint summaries.
type SummariesHandler struct {
	tagging *service.TaggingService
}

// NewSummariesHandler constructs handler.
func NewSummariesHandler(tagging *service.TaggingService) *SummariesHandler {
	return &SummariesHandler{tagging: tagging}
}

// Create POST /summaries.
func (h *SummariesHandler) Create(c *fiber.Ctx) error {
	var req dto.SummaryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	sel := service.Selection{Categories: domain.Categories()}
	if req.Categories != nil {
		cats, err := parseCategories(*req.Categories)
		if err != nil {
			return err
		}
		sel.Categories = cats
	}
	if req.Tags != nil {
		filter, err := parseTagFilter(*req.Tags)
		if err != nil {
			return err
		}
		sel.Tags = filter
	}
	summary, err := h.tagging.Summarize(c.UserContext(), sel, req.Count)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSummaryResponse(*summary)})
}

// List GET /summaries.
func (h *SummariesHandler) List(c *fiber.Ctx) error {
	summaries, err := h.tagging.Summaries(c.UserContext(), parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	items := make([]dto.SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.NewSummaryResponse(s))
	}
	return c.JSON(fiber.Map{"data": items})
}
