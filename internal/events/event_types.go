package events

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketScheduled     EventType = "ticket_scheduled"
	EventEntityDeleted       EventType = "entity_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ClientID string                `json:"client_id"`
	ModuleID string                `json:"module_id"`
	Priority domain.TicketPriority `json:"priority"`
	Title    string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketScheduledPayload carries what the calendar mirror needs.
type TicketScheduledPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// EntityDeletedPayload reports a finished cascade.
type EntityDeletedPayload struct {
	Result domain.CascadeResult `json:"result"`
}
