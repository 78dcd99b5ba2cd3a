package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/fieldops/fieldservice/internal/config"
	"github.com/fieldops/fieldservice/internal/domain"
)

type staticAuth struct {
	client *http.Client
	err    error
}

func (s staticAuth) HTTPClient(context.Context) (*http.Client, error) {
	return s.client, s.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.CalendarConfig{
		APIBaseURL:    server.URL + "/",
		CalendarID:    "team@example.com",
		MaxResults:    50,
		LookaheadDays: 7,
	}, staticAuth{client: server.Client()})
}

func TestListUpcoming(t *testing.T) {
	from := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/calendars/team@example.com/events", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-05-01T08:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2024-05-08T08:00:00Z", q.Get("timeMax"))
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "50", q.Get("maxResults"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"e1","summary":"Standup","htmlLink":"https://cal/e1",
			 "start":{"dateTime":"2024-05-01T09:00:00Z"},"end":{"dateTime":"2024-05-01T09:15:00Z"}},
			{"id":"e2","summary":"Holiday","start":{"date":"2024-05-02"},"end":{"date":"2024-05-03"}},
			{"id":"e3","summary":"Broken","start":{},"end":{}},
			{"id":"e4","summary":"Bad stamp","start":{"dateTime":"2024-05-02 10:00"},"end":{"dateTime":"2024-05-02 11:00"}}
		]}`))
	})

	events, err := client.ListUpcoming(context.Background(), from)
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, "Standup", events[0].Title)
	require.NotNil(t, events[0].Start.DateTime)
	assert.Nil(t, events[0].Start.Date)
	assert.Equal(t, "https://cal/e1", events[0].HTMLLink)

	assert.Nil(t, events[1].Start.DateTime)
	require.NotNil(t, events[1].Start.Date)
	assert.Equal(t, domain.Date{Year: 2024, Month: time.May, Day: 2}, *events[1].Start.Date)

	assert.Nil(t, events[2].Start.DateTime)
	assert.Nil(t, events[2].Start.Date)
	assert.False(t, events[2].Start.HasTimestamp())

	// an unparsable timestamp is dropped but the event stays timed
	assert.Nil(t, events[3].Start.DateTime)
	assert.Nil(t, events[3].Start.Date)
	assert.True(t, events[3].Start.HasTimestamp())
}

func TestCreateEventIsAllDay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/team@example.com/events", r.URL.Path)
		var body gcal.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Pump service", body.Summary)
		assert.Equal(t, "45.1,7.6", body.Location)
		require.NotNil(t, body.Start)
		require.NotNil(t, body.End)
		assert.Equal(t, "2024-12-31", body.Start.Date)
		assert.Equal(t, "2025-01-01", body.End.Date)
		assert.Empty(t, body.Start.DateTime)
		assert.Empty(t, body.End.DateTime)

		body.Id = "new-id"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})

	created, err := client.CreateEvent(context.Background(), EventInput{
		Title:    "Pump service",
		Date:     domain.Date{Year: 2024, Month: time.December, Day: 31},
		Location: "45.1,7.6",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
}

func TestAPIErrorOnNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"insufficient scope"}`))
	})

	_, err := client.ListUpcoming(context.Background(), time.Now())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Body, "insufficient scope")
}

func TestAPIErrorFromStructuredBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	})

	_, err := client.CreateEvent(context.Background(), EventInput{
		Title: "Pump service",
		Date:  domain.Date{Year: 2024, Month: time.May, Day: 2},
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "Not Found")
}

func TestUnauthenticatedSessionShortCircuits(t *testing.T) {
	client := NewClient(config.CalendarConfig{APIBaseURL: "http://unused"}, staticAuth{err: ErrNotAuthenticated})
	_, err := client.ListUpcoming(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
