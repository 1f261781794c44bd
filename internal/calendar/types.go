package calendar

// Payload status values returned by the remote calendar service
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// EventTime is either an all-day date or a dateTime with its zone.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// IsAllDay reports whether only a date is set
func (t EventTime) IsAllDay() bool {
	return t.Date != "" && t.DateTime == ""
}

// CalendarEvent is the body of POST /schedule
type CalendarEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	TimeZone    string    `json:"timeZone,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Response is the body returned by POST /schedule. HTTP status is 200 for both
// success and handler-level errors; Status tells them apart.
type Response struct {
	Status       string `json:"status"`
	EventLink    string `json:"event_link,omitempty"`
	Message      string `json:"message,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OutcomeKind is the terminal result of a scheduling attempt
type OutcomeKind string

const (
	OutcomeScheduled    OutcomeKind = "scheduled"
	OutcomeNotScheduled OutcomeKind = "not_scheduled"
	OutcomeFailed       OutcomeKind = "failed"
)

// Outcome describes what happened to the event. Link and Message are set for
// Scheduled, Reason for Failed.
type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Link    string      `json:"link,omitempty"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func Scheduled(link, message string) Outcome {
	return Outcome{Kind: OutcomeScheduled, Link: link, Message: message}
}

func NotScheduled() Outcome {
	return Outcome{Kind: OutcomeNotScheduled}
}

func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}
