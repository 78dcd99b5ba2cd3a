package dto

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ClientID    string                `json:"client_id"`
	ModuleID    string                `json:"module_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Latitude    *float64              `json:"latitude"`
	Longitude   *float64              `json:"longitude"`
}

// UpdateTicketRequest payload; absent fields are left unchanged.
type UpdateTicketRequest struct {
	Title            *string                `json:"title"`
	Description      *string                `json:"description"`
	Priority         *domain.TicketPriority `json:"priority"`
	Latitude         *float64               `json:"latitude"`
	Longitude        *float64               `json:"longitude"`
	ClearCoordinates bool                   `json:"clear_coordinates"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status        domain.TicketStatus `json:"status"`
	ScheduledDate *domain.Date        `json:"scheduled_date"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID            string                `json:"id"`
	ClientID      string                `json:"client_id"`
	ClientName    string                `json:"client_name"`
	ModuleID      string                `json:"module_id"`
	ModuleSerial  string                `json:"module_serial"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	ScheduledDate *domain.Date          `json:"scheduled_date"`
	Latitude      *float64              `json:"latitude"`
	Longitude     *float64              `json:"longitude"`
	Photos        []string              `json:"photos"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// UploadFailureResponse names a file that could not be stored.
type UploadFailureResponse struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// PhotoUploadResponse is the ticket after an upload plus any per-file failures.
type PhotoUploadResponse struct {
	Ticket   TicketResponse          `json:"ticket"`
	Failures []UploadFailureResponse `json:"failures"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	photos := t.Photos
	if photos == nil {
		photos = []string{}
	}
	return TicketResponse{
		ID:            t.ID,
		ClientID:      t.ClientID,
		ClientName:    t.ClientName,
		ModuleID:      t.ModuleID,
		ModuleSerial:  t.ModuleSerial,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		ScheduledDate: t.ScheduledDate,
		Latitude:      t.Latitude,
		Longitude:     t.Longitude,
		Photos:        photos,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// NewTicketResponses maps a list.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}
