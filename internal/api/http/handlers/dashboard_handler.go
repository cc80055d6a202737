package handlers

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/api/dto"
	"github.com/spec-kit/support-insights/internal/service"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

// DashboardHandler serves the aggregated dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	sel, err := parseSelection(c)
	if err != nil {
		return err
	}
	var threshold float64
	if raw := c.Query("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil || threshold <= 0 || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
			return apperrors.NewValidationError("threshold must be a positive number", map[string]any{"threshold": raw})
		}
	}
	d := h.dashboard.Dashboard(c.UserContext(), sel, threshold)
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(d)})
}
