package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/route"
	"github.com/fieldops/fieldservice/internal/schedule"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// CalendarReader fetches upcoming external events.
type CalendarReader interface {
	ListUpcoming(ctx context.Context, from time.Time) ([]domain.CalendarEvent, error)
}

// CalendarSessionState reports whether the external calendar can be queried.
type CalendarSessionState interface {
	Authenticated() bool
}

// Timeline is the merged calendar view. CalendarError is set when external
// events could not be fetched; Events then holds ticket events only.
type Timeline struct {
	Events        []domain.DisplayEvent
	CalendarError string
}

// ScheduleService builds the calendar timeline and today's route.
type ScheduleService struct {
	tickets  repository.TicketRepository
	calendar CalendarReader
	session  CalendarSessionState
	links    route.Builder
	location *time.Location
	logger   *zap.Logger
}

// ScheduleDependencies bundles collaborators for the schedule service.
type ScheduleDependencies struct {
	TicketRepo repository.TicketRepository
	Calendar   CalendarReader
	Session    CalendarSessionState
	Links      route.Builder
	Location   *time.Location
	Logger     *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleService{
		tickets:  deps.TicketRepo,
		calendar: deps.Calendar,
		session:  deps.Session,
		links:    deps.Links,
		location: loc,
		logger:   loggerOrNop(deps.Logger),
	}
}

// Timeline merges scheduled tickets with events from now on, sorted by start.
func (s *ScheduleService) Timeline(ctx context.Context, now time.Time) (*Timeline, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		ScheduledOnly: true,
		Statuses:      []domain.TicketStatus{domain.TicketStatusScheduled, domain.TicketStatusClosed},
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	out := &Timeline{}
	var external []domain.CalendarEvent
	if s.calendar != nil && s.session != nil && s.session.Authenticated() {
		from := domain.DateOf(now.In(s.location)).Time(s.location)
		external, err = s.calendar.ListUpcoming(ctx, from)
		if err != nil {
			s.logger.Warn("calendar fetch failed", zap.Error(err))
			out.CalendarError = err.Error()
			external = nil
		}
	}

	out.Events = schedule.Merge(tickets, external, s.location)
	schedule.SortByStart(out.Events)
	return out, nil
}

// PlanRoute selects today's geocoded tickets and builds the map links. It
// refuses routes with fewer than route.MinStops stops.
func (s *ScheduleService) PlanRoute(ctx context.Context, now time.Time) (*domain.RoutePlan, error) {
	today := now.In(s.location)
	day := domain.DateOf(today)
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{ScheduledOn: &day})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stops := route.SelectToday(tickets, today)
	if len(stops) < route.MinStops {
		return nil, apperrors.NewUnprocessable("ROUTE_TOO_SHORT", "a route needs at least two geocoded stops today",
			map[string]any{"stops": len(stops), "min_stops": route.MinStops, "date": day.String()})
	}

	links := s.links.Build(route.Coordinates(stops))
	return &domain.RoutePlan{
		Stops:         stops,
		Origin:        links.Origin,
		Destination:   links.Destination,
		Waypoints:     links.Waypoints,
		EmbedURL:      links.EmbedURL,
		NavigationURL: links.NavigationURL,
	}, nil
}
