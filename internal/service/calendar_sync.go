package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/calendar"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/events"
)

const calendarSyncTimeout = 10 * time.Second

// Calendar sync outcomes, used as metric labels.
const (
	SyncCreated = "created"
	SyncFailed  = "failed"
	SyncSkipped = "skipped"
)

// CalendarWriter creates external calendar events.
type CalendarWriter interface {
	CreateEvent(ctx context.Context, in calendar.EventInput) (*domain.CalendarEvent, error)
}

// SyncRecorder counts calendar sync outcomes.
type SyncRecorder interface {
	RecordCalendarSync(result string)
}

// CalendarSync mirrors newly scheduled tickets into the external calendar.
// The ticket change is already stored when it runs, so failures only get
// logged and counted.
type CalendarSync struct {
	dispatcher events.Dispatcher
	writer     CalendarWriter
	session    CalendarSessionState
	recorder   SyncRecorder
	logger     *zap.Logger
}

// NewCalendarSync creates the subscriber.
func NewCalendarSync(dispatcher events.Dispatcher, writer CalendarWriter, session CalendarSessionState, recorder SyncRecorder, logger *zap.Logger) *CalendarSync {
	return &CalendarSync{
		dispatcher: dispatcher,
		writer:     writer,
		session:    session,
		recorder:   recorder,
		logger:     loggerOrNop(logger),
	}
}

// RegisterHandlers subscribes to events.
func (c *CalendarSync) RegisterHandlers() {
	if c.dispatcher == nil || c.writer == nil {
		return
	}
	c.dispatcher.Subscribe(events.EventTicketScheduled, c.handleTicketScheduled)
}

func (c *CalendarSync) handleTicketScheduled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketScheduledPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.Ticket.ScheduledDate == nil {
		return fmt.Errorf("ticket %s has no scheduled date", payload.Ticket.ID)
	}
	if c.session == nil || !c.session.Authenticated() {
		c.record(SyncSkipped)
		c.logger.Debug("calendar sync skipped: no session", zap.String("ticket_id", event.SubjectID))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, calendarSyncTimeout)
	defer cancel()

	created, err := c.writer.CreateEvent(ctx, eventInputFor(payload.Ticket))
	if err != nil {
		c.record(SyncFailed)
		c.logger.Warn("calendar sync failed",
			zap.String("ticket_id", event.SubjectID),
			zap.Error(err))
		return nil
	}
	c.record(SyncCreated)
	c.logger.Info("calendar event created",
		zap.String("ticket_id", event.SubjectID),
		zap.String("calendar_event_id", created.ID))
	return nil
}

func (c *CalendarSync) record(result string) {
	if c.recorder != nil {
		c.recorder.RecordCalendarSync(result)
	}
}

func eventInputFor(ticket domain.Ticket) calendar.EventInput {
	title := ticket.Title
	if ticket.ClientName != "" {
		title = ticket.ClientName + ": " + ticket.Title
	}

	var desc []string
	if ticket.Description != "" {
		desc = append(desc, ticket.Description)
	}
	if ticket.ModuleSerial != "" {
		desc = append(desc, "Module: "+ticket.ModuleSerial)
	}
	desc = append(desc, "Priority: "+string(ticket.Priority))

	var location string
	if ticket.HasCoordinates() {
		location = strconv.FormatFloat(*ticket.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*ticket.Longitude, 'f', -1, 64)
	}

	return calendar.EventInput{
		Title:       title,
		Description: strings.Join(desc, "\n"),
		Date:        *ticket.ScheduledDate,
		Location:    location,
	}
}
