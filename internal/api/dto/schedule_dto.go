package dto

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// DisplayEventResponse is one timeline entry. All-day events carry
// date-only start and end values.
type DisplayEventResponse struct {
	Title    string             `json:"title"`
	Start    string             `json:"start"`
	End      string             `json:"end"`
	AllDay   bool               `json:"all_day"`
	Source   domain.EventSource `json:"source"`
	RefID    string             `json:"ref_id"`
	HTMLLink string             `json:"html_link,omitempty"`
}

// TimelineResponse wraps merged events.
type TimelineResponse struct {
	Events        []DisplayEventResponse `json:"events"`
	CalendarError string                 `json:"calendar_error,omitempty"`
}

// CoordinateResponse is a lat/lng pair.
type CoordinateResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RoutePlanResponse is today's route.
type RoutePlanResponse struct {
	Stops         []TicketResponse     `json:"stops"`
	Origin        *CoordinateResponse  `json:"origin"`
	Destination   *CoordinateResponse  `json:"destination"`
	Waypoints     []CoordinateResponse `json:"waypoints"`
	EmbedURL      string               `json:"embed_url"`
	NavigationURL string               `json:"navigation_url"`
}

// CascadeStepFailureResponse is one failed deletion step.
type CascadeStepFailureResponse struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// CascadeResultResponse reports a cascade outcome.
type CascadeResultResponse struct {
	Entity    domain.CascadeEntity         `json:"entity"`
	ID        string                       `json:"id"`
	Outcome   domain.CascadeOutcome        `json:"outcome"`
	Remaining map[string]int               `json:"remaining"`
	Failures  []CascadeStepFailureResponse `json:"failures"`
}

// CalendarStatusResponse reports the calendar session.
type CalendarStatusResponse struct {
	Enabled       bool `json:"enabled"`
	Authenticated bool `json:"authenticated"`
}

// DashboardResponse holds collection counts.
type DashboardResponse struct {
	Clients   int                         `json:"clients"`
	Modules   int                         `json:"modules"`
	Documents int                         `json:"documents"`
	Tickets   map[domain.TicketStatus]int `json:"tickets"`
}

func NewTimelineResponse(events []domain.DisplayEvent, calendarError string) TimelineResponse {
	out := TimelineResponse{Events: make([]DisplayEventResponse, 0, len(events)), CalendarError: calendarError}
	for _, ev := range events {
		out.Events = append(out.Events, DisplayEventResponse{
			Title:    ev.Title,
			Start:    formatEventTime(ev.Start, ev.AllDay),
			End:      formatEventTime(ev.End, ev.AllDay),
			AllDay:   ev.AllDay,
			Source:   ev.Source,
			RefID:    ev.RefID,
			HTMLLink: ev.HTMLLink,
		})
	}
	return out
}

func formatEventTime(t time.Time, allDay bool) string {
	if t.IsZero() {
		return ""
	}
	if allDay {
		return t.Format(domain.DateLayout)
	}
	return t.Format(time.RFC3339)
}

func NewRoutePlanResponse(plan *domain.RoutePlan) RoutePlanResponse {
	out := RoutePlanResponse{
		Stops:         NewTicketResponses(plan.Stops),
		Origin:        coordinate(plan.Origin),
		Destination:   coordinate(plan.Destination),
		Waypoints:     make([]CoordinateResponse, 0, len(plan.Waypoints)),
		EmbedURL:      plan.EmbedURL,
		NavigationURL: plan.NavigationURL,
	}
	for _, wp := range plan.Waypoints {
		out.Waypoints = append(out.Waypoints, CoordinateResponse{Latitude: wp.Latitude, Longitude: wp.Longitude})
	}
	return out
}

func coordinate(c *domain.Coordinate) *CoordinateResponse {
	if c == nil {
		return nil
	}
	return &CoordinateResponse{Latitude: c.Latitude, Longitude: c.Longitude}
}

func NewCascadeResultResponse(r *domain.CascadeResult) CascadeResultResponse {
	out := CascadeResultResponse{
		Entity:    r.Entity,
		ID:        r.ID,
		Outcome:   r.Outcome,
		Remaining: r.Remaining,
		Failures:  make([]CascadeStepFailureResponse, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, CascadeStepFailureResponse{Step: f.Step, Error: f.Error})
	}
	return out
}
