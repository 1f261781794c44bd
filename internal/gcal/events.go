package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	primaryCalendarID = "primary"
	dateLayout        = "2006-01-02"
)

// EventTime is either an all-day date or a dateTime in a named zone
type EventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       EventTime
	End         EventTime
	TimeZone    string
	Attendees   []string // Email addresses of attendees
}

// CreatedEvent is what Google returned for an inserted event
type CreatedEvent struct {
	ID       string
	HTMLLink string
	Summary  string
}

// Reminder is a single reminder override
type Reminder struct {
	Method  string
	Minutes int64
}

// DefaultReminders is applied to every created event; calendar defaults are disabled.
var DefaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 10},
}

// buildEvent converts the input into a Google event. Google treats an all-day
// end date as exclusive, so a single-day event ends on the following day.
func buildEvent(input EventInput) (*calendar.Event, error) {
	start, err := eventDateTime(input.Start, input.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}

	endInput := input.End
	if endInput.Date == "" && endInput.DateTime == "" {
		endInput = input.Start
	}
	end, err := eventDateTime(endInput, input.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}

	if start.Date != "" {
		if end.Date == "" || end.Date <= start.Date {
			startDate, _ := time.Parse(dateLayout, start.Date)
			end = &calendar.EventDateTime{Date: startDate.AddDate(0, 0, 1).Format(dateLayout)}
		}
	}

	overrides := make([]*calendar.EventReminder, len(DefaultReminders))
	for i, r := range DefaultReminders {
		overrides[i] = &calendar.EventReminder{Method: r.Method, Minutes: r.Minutes}
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       start,
		End:         end,
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	if len(input.Attendees) > 0 {
		attendees := make([]*calendar.EventAttendee, len(input.Attendees))
		for i, email := range input.Attendees {
			attendees[i] = &calendar.EventAttendee{Email: email}
		}
		event.Attendees = attendees
	}

	return event, nil
}

func eventDateTime(t EventTime, fallbackZone string) (*calendar.EventDateTime, error) {
	switch {
	case t.DateTime != "":
		zone := t.TimeZone
		if zone == "" {
			zone = fallbackZone
		}
		return &calendar.EventDateTime{DateTime: t.DateTime, TimeZone: zone}, nil
	case t.Date != "":
		if _, err := time.Parse(dateLayout, t.Date); err != nil {
			return nil, fmt.Errorf("date %q is not YYYY-MM-DD", t.Date)
		}
		return &calendar.EventDateTime{Date: t.Date}, nil
	default:
		return nil, fmt.Errorf("neither date nor dateTime set")
	}
}

// CreateEvent inserts the event into the primary calendar and notifies attendees
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*CreatedEvent, error) {
	event, err := buildEvent(input)
	if err != nil {
		return nil, err
	}

	service, release, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// SendUpdates sends notifications to attendees
	created, err := service.Events.Insert(primaryCalendarID, event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
		Summary:  created.Summary,
	}, nil
}
