package domain

import "time"

// EventSource tags where a display event came from.
type EventSource string

const (
	EventSourceTicket   EventSource = "ticket"
	EventSourceExternal EventSource = "external"
)

// EventTime is either a timestamp or a date-only all-day value, as
// returned by the external calendar. Timed is set whenever the source
// carried a timestamp, even one that failed to parse.
type EventTime struct {
	DateTime *time.Time
	Date     *Date
	Timed    bool
}

// HasTimestamp reports whether the value is timed rather than all-day.
func (t EventTime) HasTimestamp() bool {
	return t.Timed || t.DateTime != nil
}

// CalendarEvent is read from the external calendar service.
type CalendarEvent struct {
	ID       string
	Title    string
	Start    EventTime
	End      EventTime
	HTMLLink string
}

// DisplayEvent is one entry on the merged timeline. Never persisted.
type DisplayEvent struct {
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Source   EventSource
	RefID    string
	HTMLLink string
}
