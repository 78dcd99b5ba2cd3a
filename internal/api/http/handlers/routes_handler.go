package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/service"
)

// RoutesHandler serves the daily route plan.
type RoutesHandler struct {
	schedule *service.ScheduleService
	now      func() time.Time
}

// NewRoutesHandler constructs handler.
func NewRoutesHandler(schedule *service.ScheduleService) *RoutesHandler {
	return &RoutesHandler{schedule: schedule, now: time.Now}
}

// Today GET /api/routes/today.
func (h *RoutesHandler) Today(c *fiber.Ctx) error {
	plan, err := h.schedule.PlanRoute(c.UserContext(), h.now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoutePlanResponse(plan)})
}
