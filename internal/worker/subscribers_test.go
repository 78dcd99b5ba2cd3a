package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fieldops/fieldservice/internal/events"
	"github.com/fieldops/fieldservice/internal/service"
)

type countingSubscriber struct{ calls int }

func (c *countingSubscriber) RegisterHandlers() { c.calls++ }

func TestStartEventSubscribersSkipsNil(t *testing.T) {
	sub := &countingSubscriber{}
	started := StartEventSubscribers(sub, nil)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, sub.calls)
}

func TestActivityLogReceivesEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)

	StartEventSubscribers(service.NewActivityLog(dispatcher, logger))

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventTicketCreated,
		SubjectID: "ticket-1",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	entries := logs.FilterMessage(string(events.EventTicketCreated)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ticket-1", entries[0].ContextMap()["subject_id"])
}
