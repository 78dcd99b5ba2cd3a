// Package schedule merges scheduled tickets and external calendar events into
// one timeline.
package schedule

import (
	"sort"
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// Merge returns one display event per qualifying ticket followed by one per
// external event. Tickets qualify when they carry a scheduled date and are
// Scheduled or Closed. External events are not validated; an event with no
// usable start or end yields the zero time.
func Merge(tickets []domain.Ticket, external []domain.CalendarEvent, loc *time.Location) []domain.DisplayEvent {
	out := make([]domain.DisplayEvent, 0, len(tickets)+len(external))
	for _, ticket := range tickets {
		if !qualifies(ticket) {
			continue
		}
		day := ticket.ScheduledDate.Time(loc)
		out = append(out, domain.DisplayEvent{
			Title:  ticket.Title,
			Start:  day,
			End:    day,
			AllDay: true,
			Source: domain.EventSourceTicket,
			RefID:  ticket.ID,
		})
	}
	for _, event := range external {
		out = append(out, domain.DisplayEvent{
			Title:    event.Title,
			Start:    eventTime(event.Start, loc),
			End:      eventTime(event.End, loc),
			AllDay:   !event.Start.HasTimestamp(),
			Source:   domain.EventSourceExternal,
			RefID:    event.ID,
			HTMLLink: event.HTMLLink,
		})
	}
	return out
}

// SortByStart orders events by start time, keeping merge order for ties.
func SortByStart(events []domain.DisplayEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}

func qualifies(ticket domain.Ticket) bool {
	if ticket.ScheduledDate == nil {
		return false
	}
	return ticket.Status == domain.TicketStatusScheduled || ticket.Status == domain.TicketStatusClosed
}

func eventTime(t domain.EventTime, loc *time.Location) time.Time {
	switch {
	case t.DateTime != nil:
		return *t.DateTime
	case t.Date != nil:
		return t.Date.Time(loc)
	default:
		return time.Time{}
	}
}
