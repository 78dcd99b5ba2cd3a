package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/service"
)

// DashboardHandler serves landing page counts.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get GET /api/dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	counts, err := h.dashboard.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Clients:   counts.Clients,
		Modules:   counts.Modules,
		Documents: counts.Documents,
		Tickets:   counts.Tickets,
	}})
}
