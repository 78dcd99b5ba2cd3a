package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldservice/internal/domain"
)

func date(y int, m time.Month, d int) *domain.Date {
	return &domain.Date{Year: y, Month: m, Day: d}
}

func TestMergeCountsEverySource(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		{ID: "t1", Title: "Scheduled", Status: domain.TicketStatusScheduled, ScheduledDate: date(2024, 5, 2)},
		{ID: "t2", Title: "Closed", Status: domain.TicketStatusClosed, ScheduledDate: date(2024, 5, 3)},
		{ID: "t3", Title: "New with date", Status: domain.TicketStatusNew, ScheduledDate: date(2024, 5, 3)},
		{ID: "t4", Title: "Scheduled no date", Status: domain.TicketStatusScheduled},
	}
	external := []domain.CalendarEvent{
		{ID: "e1", Title: "Meeting", Start: domain.EventTime{DateTime: &ts}, End: domain.EventTime{DateTime: &ts}},
		{ID: "e2", Title: "Holiday", Start: domain.EventTime{Date: date(2024, 5, 4)}, End: domain.EventTime{Date: date(2024, 5, 5)}},
		{ID: "e1", Title: "Same id twice", Start: domain.EventTime{DateTime: &ts}},
	}

	events := Merge(tickets, external, time.UTC)
	require.Len(t, events, 2+len(external))

	refs := map[domain.EventSource][]string{}
	for _, ev := range events {
		refs[ev.Source] = append(refs[ev.Source], ev.RefID)
	}
	assert.Equal(t, []string{"t1", "t2"}, refs[domain.EventSourceTicket])
	assert.Equal(t, []string{"e1", "e2", "e1"}, refs[domain.EventSourceExternal])
}

func TestMergeAllDayFlag(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		{ID: "t1", Status: domain.TicketStatusScheduled, ScheduledDate: date(2024, 5, 2)},
	}
	external := []domain.CalendarEvent{
		{ID: "timed", Start: domain.EventTime{DateTime: &ts}, End: domain.EventTime{DateTime: &ts}},
		{ID: "dated", Start: domain.EventTime{Date: date(2024, 5, 4)}, End: domain.EventTime{Date: date(2024, 5, 5)}},
	}

	events := Merge(tickets, external, time.UTC)
	require.Len(t, events, 3)

	assert.True(t, events[0].AllDay)
	assert.Equal(t, events[0].Start, events[0].End)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), events[0].Start)

	assert.False(t, events[1].AllDay)
	assert.Equal(t, ts, events[1].Start)

	assert.True(t, events[2].AllDay)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), events[2].End)
}

func TestMergePassesMalformedEventsThrough(t *testing.T) {
	events := Merge(nil, []domain.CalendarEvent{{ID: "broken", HTMLLink: "https://cal/broken"}}, time.UTC)
	require.Len(t, events, 1)
	assert.True(t, events[0].Start.IsZero())
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "https://cal/broken", events[0].HTMLLink)
}

func TestMergeUnparsableTimestampIsNotAllDay(t *testing.T) {
	events := Merge(nil, []domain.CalendarEvent{
		{ID: "bad-stamp", Start: domain.EventTime{Timed: true}, End: domain.EventTime{Timed: true}},
	}, time.UTC)
	require.Len(t, events, 1)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].Start.IsZero())
}

func TestSortByStartIsStable(t *testing.T) {
	a := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Hour)
	events := []domain.DisplayEvent{
		{RefID: "late", Start: b},
		{RefID: "first", Start: a},
		{RefID: "second", Start: a},
	}
	SortByStart(events)
	assert.Equal(t, "first", events[0].RefID)
	assert.Equal(t, "second", events[1].RefID)
	assert.Equal(t, "late", events[2].RefID)
}
