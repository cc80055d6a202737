package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/dto"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/store"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// TicketsHandler lists, tags and exports tickets.
type TicketsHandler struct {
	dashboard *service.DashboardService
	tagging   *service.TaggingService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(dashboard *service.DashboardService, tagging *service.TaggingService) *TicketsHandler {
	return &TicketsHandler{dashboard: dashboard, tagging: tagging}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	tickets := h.dashboard.Tickets(sel, parseInt(c.Query("limit"), 100))
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.NewTicketResponse(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AssignTag POST /tickets/:id/tag.
func (h *TicketsHandler) AssignTag(c *fiber.Ctx) error {
	var req dto.AssignTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tagging.AssignTag(c.UserContext(), c.Params("id"), domain.Tag(req.Tag))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ExportCSV GET /tickets/export.csv.
func (h *TicketsHandler) ExportCSV(c *fiber.Ctx) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := store.WriteCSV(&buf, h.dashboard.View(sel)); err != nil {
		return apperrors.NewInternalError(err)
	}
	filename := fmt.Sprintf("tickets-%s.csv", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
