package domain

import "time"

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusScheduled  TicketStatus = "SCHEDULED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusScheduled, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is a unit of field service work tied to one client and one installed module.
type Ticket struct {
	ID           string
	ClientID     string
	ClientName   string
	ModuleID     string
	ModuleSerial string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	// ScheduledDate is date-only; see Date.
	ScheduledDate *Date
	Latitude      *float64
	Longitude     *float64
	Photos        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasCoordinates reports whether both latitude and longitude are set.
func (t *Ticket) HasCoordinates() bool {
	return t.Latitude != nil && t.Longitude != nil
}
