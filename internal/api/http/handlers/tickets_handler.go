package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/service"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// photoField is the multipart field carrying ticket photos.
const photoField = "photos"

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service        *service.TicketService
	maxUploadBytes int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, maxUploadBytes int) *TicketsHandler {
	return &TicketsHandler{service: ticketService, maxUploadBytes: maxUploadBytes}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), service.TicketCreateInput{
		ClientID:    req.ClientID,
		ModuleID:    req.ModuleID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		ClearCoordinates: req.ClearCoordinates,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeStatus POST /api/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), req.Status, req.ScheduledDate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddPhotos POST /api/tickets/:id/photos (multipart, field "photos").
func (h *TicketsHandler) AddPhotos(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}
	headers := form.File[photoField]
	if len(headers) == 0 {
		return apperrors.NewValidationError("no photos", map[string]any{photoField: "required"})
	}
	files := make([]service.PhotoUpload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh, h.maxUploadBytes)
		if err != nil {
			return err
		}
		files = append(files, service.PhotoUpload{Filename: fh.Filename, ContentType: contentType(fh), Data: data})
	}

	ticket, failures, err := h.service.AddPhotos(c.UserContext(), c.Params("id"), files)
	if err != nil {
		return err
	}
	resp := dto.PhotoUploadResponse{
		Ticket:   dto.NewTicketResponse(ticket),
		Failures: make([]dto.UploadFailureResponse, 0, len(failures)),
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, dto.UploadFailureResponse{Filename: f.Filename, Error: f.Error})
	}
	status := fiber.StatusOK
	if len(failures) > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": resp})
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		ClientID:   optionalQuery(c, "client_id"),
		ModuleID:   optionalQuery(c, "module_id"),
		SearchTerm: optionalQuery(c, "q"),
	}
	for _, part := range splitList(c.Query("status")) {
		status := domain.TicketStatus(part)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": part})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, part := range splitList(c.Query("priority")) {
		priority := domain.TicketPriority(part)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"priority": part})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	filter.ScheduledOnly = c.QueryBool("scheduled", false)
	on, err := parseDateQuery(c, "scheduled_on")
	if err != nil {
		return filter, err
	}
	filter.ScheduledOn = on
	filter.Limit, filter.Offset = pagination(c)
	return filter, nil
}
