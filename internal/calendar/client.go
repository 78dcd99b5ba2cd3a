package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/fieldops/fieldservice/internal/config"
	"github.com/fieldops/fieldservice/internal/domain"
)

// HTTPClientSource hands out authorized HTTP clients. *Session implements it.
type HTTPClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// APIError is a non-2xx answer from the events API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api: status %d: %s", e.Status, e.Body)
}

// EventInput describes an all-day event to create.
type EventInput struct {
	Title       string
	Description string
	Date        domain.Date
	Location    string
}

// Client calls the events endpoints of one calendar.
type Client struct {
	endpoint      string
	calendarID    string
	maxResults    int
	lookaheadDays int
	auth          HTTPClientSource
}

// NewClient builds an events client. An empty APIBaseURL keeps the
// library's default endpoint.
func NewClient(cfg config.CalendarConfig, auth HTTPClientSource) *Client {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	endpoint := cfg.APIBaseURL
	if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
		// relative paths are resolved against the endpoint
		endpoint += "/"
	}
	return &Client{
		endpoint:      endpoint,
		calendarID:    calendarID,
		maxResults:    cfg.MaxResults,
		lookaheadDays: cfg.LookaheadDays,
		auth:          auth,
	}
}

// service is built per call so each request picks up the session's
// current token.
func (c *Client) service(ctx context.Context) (*gcal.Service, error) {
	httpClient, err := c.auth.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// ListUpcoming returns events starting at or after from, ordered by start.
func (c *Client) ListUpcoming(ctx context.Context, from time.Time) ([]domain.CalendarEvent, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if c.maxResults > 0 {
		call = call.MaxResults(int64(c.maxResults))
	}
	if c.lookaheadDays > 0 {
		call = call.TimeMax(from.AddDate(0, 0, c.lookaheadDays).Format(time.RFC3339))
	}

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}

	events := make([]domain.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		if item == nil {
			continue
		}
		events = append(events, toDomain(item))
	}
	return events, nil
}

// CreateEvent creates an all-day event on in.Date.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*domain.CalendarEvent, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	next := domain.DateOf(in.Date.Time(time.UTC).AddDate(0, 0, 1))
	body := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start:       &gcal.EventDateTime{Date: in.Date.String()},
		// the end date of an all-day event is exclusive
		End: &gcal.EventDateTime{Date: next.String()},
	}

	created, err := svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return nil, apiError(err)
	}
	event := toDomain(created)
	return &event, nil
}

func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Body
		if body == "" {
			body = gerr.Message
		}
		return &APIError{Status: gerr.Code, Body: body}
	}
	return fmt.Errorf("calendar request: %w", err)
}

// toDomain keeps whatever the API sent; unparsable values are left unset.
func toDomain(e *gcal.Event) domain.CalendarEvent {
	return domain.CalendarEvent{
		ID:       e.Id,
		Title:    e.Summary,
		Start:    eventTime(e.Start),
		End:      eventTime(e.End),
		HTMLLink: e.HtmlLink,
	}
}

func eventTime(t *gcal.EventDateTime) domain.EventTime {
	var out domain.EventTime
	if t == nil {
		return out
	}
	if t.DateTime != "" {
		out.Timed = true
		if ts, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			out.DateTime = &ts
		}
	}
	if t.Date != "" {
		if d, err := domain.ParseDate(t.Date); err == nil {
			out.Date = &d
		}
	}
	return out
}
