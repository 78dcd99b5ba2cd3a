package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldops/fieldservice/internal/events"
)

// ActivityLog writes ticket and deletion events to the service log.
type ActivityLog struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityLog creates the subscriber.
func NewActivityLog(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityLog {
	return &ActivityLog{dispatcher: dispatcher, logger: loggerOrNop(logger)}
}

// RegisterHandlers subscribes to events.
func (a *ActivityLog) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handle)
	a.dispatcher.Subscribe(events.EventTicketStatusChanged, a.handle)
	a.dispatcher.Subscribe(events.EventEntityDeleted, a.handle)
}

func (a *ActivityLog) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
