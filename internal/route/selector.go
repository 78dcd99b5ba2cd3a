// Package route picks today's geocoded tickets and turns them into map links.
package route

import (
	"time"

	"github.com/fieldops/fieldservice/internal/domain"
)

// MinStops is the smallest stop count worth opening a route for. Callers
// check it; SelectToday does not.
const MinStops = 2

// SelectToday keeps tickets scheduled on today's calendar day that carry
// both coordinates, in input order. Status is not considered, so closed
// visits for today remain on the route.
func SelectToday(tickets []domain.Ticket, today time.Time) []domain.Ticket {
	day := domain.DateOf(today)
	var stops []domain.Ticket
	for _, ticket := range tickets {
		if ticket.ScheduledDate == nil || *ticket.ScheduledDate != day {
			continue
		}
		if !ticket.HasCoordinates() {
			continue
		}
		stops = append(stops, ticket)
	}
	return stops
}

// Coordinates extracts stop positions in order. Tickets without both
// coordinates are skipped.
func Coordinates(stops []domain.Ticket) []domain.Coordinate {
	out := make([]domain.Coordinate, 0, len(stops))
	for _, stop := range stops {
		if !stop.HasCoordinates() {
			continue
		}
		out = append(out, domain.Coordinate{Latitude: *stop.Latitude, Longitude: *stop.Longitude})
	}
	return out
}
