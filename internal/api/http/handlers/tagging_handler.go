package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/dto"
	"github.com/spec-kit/support-insights/internal/service"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// TaggingHandler triggers classifier batches.
type TaggingHandler struct {
	tagging *service.TaggingService
}

// NewTaggingHandler constructs handler.
func NewTaggingHandler(tagging *service.TaggingService) *TaggingHandler {
	return &TaggingHandler{tagging: tagging}
}

// AutoTag POST /tagging/auto.
func (h *TaggingHandler) AutoTag(c *fiber.Ctx) error {
	var req dto.AutoTagRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if req.BatchSize < 0 {
		return apperrors.NewValidationError("batch_size must not be negative", map[string]any{"batch_size": req.BatchSize})
	}
	res, err := h.tagging.AutoTag(c.UserContext(), req.BatchSize)
	if err != nil {
		return err
	}
	resp := dto.AutoTagResponse{
		Tagged:  make([]dto.TagOutcomeResponse, 0, len(res.Tagged)),
		Failed:  make([]dto.TagFailureResponse, 0, len(res.Failed)),
		Skipped: append([]string{}, res.Skipped...),
	}
	for _, o := range res.Tagged {
		resp.Tagged = append(resp.Tagged, dto.TagOutcomeResponse{TicketID: o.TicketID, Tag: o.Tag})
	}
	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, dto.TagFailureResponse{TicketID: f.TicketID, Reason: f.Reason})
	}
	return c.JSON(fiber.Map{"data": resp})
}
