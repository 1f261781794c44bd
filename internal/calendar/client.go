package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/metrics"
	"github.com/omriShneor/taskquest/internal/timeutil"
)

const (
	eventDuration   = 30 * time.Minute
	unknownTime     = "unknown"
	dateTimeLayout  = "2006-01-02T15:04:05"
	maxResponseSize = 1 << 20
)

// User-facing failure reasons. Transport and HTTP detail stays in the log.
const (
	ReasonUnreachable = "the calendar service could not be reached"
	ReasonTimeout     = "the calendar service timed out"
	ReasonBadStatus   = "the calendar service is unavailable right now"
	ReasonUnreadable  = "the calendar service sent an unreadable response"
	ReasonUnknown     = "the calendar service reported an unknown error"
	ReasonInternal    = "the event could not be sent to the calendar service"
)

// ErrTimeParse is returned by BuildEvent when the date or time can't be read.
var ErrTimeParse = errors.New("unable to parse event date/time")

// EventRequest holds the structured fields the workflow wants scheduled.
// An empty Time means no time of day was mentioned.
type EventRequest struct {
	Date        string
	Time        string
	Location    string
	Description string
	Attendees   []string
}

// Client submits events to the remote calendar service
type Client struct {
	endpoint   string
	httpClient *http.Client
	loc        *time.Location
	logger     *zap.Logger
}

// NewClient creates a scheduler client for the given endpoint. timeout bounds each
// request; zero keeps the 30s default.
func NewClient(endpoint, timezone string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, fallback := timeutil.ResolveLocation(timezone)
	if fallback && timezone != "" {
		logger.Warn("unknown timezone, using default",
			zap.String("timezone", timezone),
			zap.String("default", loc.String()))
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		loc:        loc,
		logger:     logger,
	}
}

// Location returns the zone events are scheduled in
func (c *Client) Location() *time.Location {
	return c.loc
}

// BuildEvent turns a request into the wire payload. A usable time gives a
// 30-minute event; no time (or "unknown") gives an all-day event.
func (c *Client) BuildEvent(req EventRequest) (CalendarEvent, error) {
	event := CalendarEvent{
		Summary:     req.Description,
		Description: req.Description,
		Location:    req.Location,
		TimeZone:    c.loc.String(),
		Attendees:   req.Attendees,
	}

	clock := strings.TrimSpace(req.Time)
	if clock == "" || strings.EqualFold(clock, unknownTime) {
		d, err := timeutil.ParseDate(req.Date, c.loc)
		if err != nil {
			return CalendarEvent{}, fmt.Errorf("%w: %v", ErrTimeParse, err)
		}
		date := timeutil.FormatDate(d)
		event.Start = EventTime{Date: date}
		event.End = EventTime{Date: date}
		return event, nil
	}

	start, err := timeutil.CombineDateAndClock(req.Date, clock, c.loc)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("%w: %v", ErrTimeParse, err)
	}
	end := start.Add(eventDuration)

	event.Start = EventTime{DateTime: start.Format(dateTimeLayout), TimeZone: c.loc.String()}
	event.End = EventTime{DateTime: end.Format(dateTimeLayout), TimeZone: c.loc.String()}
	return event, nil
}

// Schedule builds the event and submits it. It never returns an error; every
// failure is reported as a Failed outcome.
func (c *Client) Schedule(ctx context.Context, req EventRequest) Outcome {
	outcome := c.schedule(ctx, req)
	metrics.CalendarRequests.WithLabelValues(string(outcome.Kind)).Inc()
	return outcome
}

func (c *Client) schedule(ctx context.Context, req EventRequest) Outcome {
	event, err := c.BuildEvent(req)
	if err != nil {
		c.logger.Info("not submitting event, date/time unreadable",
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.Error(err))
		return Failed(fmt.Sprintf("could not understand the date or time (%s %s)", req.Date, req.Time))
	}

	body, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("failed to encode event", zap.Error(err))
		return Failed(ReasonInternal)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create calendar request", zap.String("endpoint", c.endpoint), zap.Error(err))
		return Failed(ReasonInternal)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("calendar service unreachable", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Failed(ReasonTimeout)
		}
		return Failed(ReasonUnreachable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Warn("failed to read calendar service response", zap.Error(err))
		return Failed(ReasonUnreadable)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("calendar service returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return Failed(ReasonBadStatus)
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		c.logger.Warn("calendar service response is not JSON", zap.ByteString("body", respBody))
		return Failed(ReasonUnreadable)
	}

	// A 200 can still carry a handler-level error.
	if result.Status != StatusSuccess {
		reason := result.ErrorMessage
		if reason == "" {
			reason = result.Message
		}
		if reason == "" {
			reason = ReasonUnknown
		}
		c.logger.Warn("calendar service rejected event",
			zap.String("status", result.Status),
			zap.String("error_message", result.ErrorMessage))
		return Failed(reason)
	}

	message := result.Message
	if message == "" {
		message = fmt.Sprintf("Event scheduled: %s on %s", req.Description, req.Date)
	}
	c.logger.Info("event scheduled", zap.String("event_link", result.EventLink))
	return Scheduled(result.EventLink, message)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
