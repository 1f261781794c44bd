package calendarapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/gcal"
	"github.com/omriShneor/taskquest/internal/metrics"
)

const maxBodySize = 1 << 20

type eventTimeRequest struct {
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DateTime string `json:"dateTime" validate:"required_without=Date"`
	TimeZone string `json:"timeZone" validate:"omitempty,timezone"`
}

type scheduleRequest struct {
	Summary     string            `json:"summary" validate:"required_without=Description"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Start       *eventTimeRequest `json:"start" validate:"required"`
	End         *eventTimeRequest `json:"end" validate:"omitempty"`
	TimeZone    string            `json:"timeZone" validate:"omitempty,timezone"`
	Attendees   []string          `json:"attendees" validate:"omitempty,dive,email"`
}

func (r scheduleRequest) toInput() gcal.EventInput {
	summary := strings.TrimSpace(r.Summary)
	if summary == "" {
		summary = strings.TrimSpace(r.Description)
	}

	input := gcal.EventInput{
		Summary:     summary,
		Description: r.Description,
		Location:    r.Location,
		Start:       gcal.EventTime(*r.Start),
		TimeZone:    r.TimeZone,
		Attendees:   r.Attendees,
	}
	if r.End != nil {
		input.End = gcal.EventTime(*r.End)
	}
	return input
}

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "healthy",
		"gcal":   "disconnected",
	}
	if a, ok := s.events.(interface{ IsAuthenticated() bool }); ok && a.IsAuthenticated() {
		status["gcal"] = "connected"
	}
	respondJSON(w, http.StatusOK, status)
}

// Schedule

// handleSchedule answers 400 only for an unreadable body. Any failure after
// decoding is a 200 carrying status "error".
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		metrics.EventsCreated.WithLabelValues("bad_request").Inc()
		respondJSON(w, http.StatusBadRequest, calendar.Response{
			Status:       calendar.StatusError,
			ErrorMessage: "invalid JSON body",
		})
		return
	}

	if err := s.validate.Struct(req); err != nil {
		metrics.EventsCreated.WithLabelValues("invalid").Inc()
		respondScheduleError(w, describeValidation(err))
		return
	}

	created, err := s.events.CreateEvent(r.Context(), req.toInput())
	if err != nil {
		metrics.EventsCreated.WithLabelValues("error").Inc()
		s.logger.Warn("failed to create event", zap.Error(err))
		if errors.Is(err, gcal.ErrNotAuthorized) {
			respondScheduleError(w, "calendar access has not been authorized")
			return
		}
		respondScheduleError(w, err.Error())
		return
	}

	metrics.EventsCreated.WithLabelValues("success").Inc()
	s.logger.Info("event created",
		zap.String("event_id", created.ID),
		zap.String("event_link", created.HTMLLink))

	respondJSON(w, http.StatusOK, calendar.Response{
		Status:    calendar.StatusSuccess,
		EventLink: created.HTMLLink,
		Message:   fmt.Sprintf("Event created: %s", created.Summary),
	})
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid event"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "scheduleRequest.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "required_without":
			msgs = append(msgs, fmt.Sprintf("%s or %s is required", field, strings.ToLower(fe.Param())))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s has an invalid email %q", field, fe.Value()))
		case "datetime":
			msgs = append(msgs, field+" must be YYYY-MM-DD")
		case "timezone":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a known time zone", field, fe.Value()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return "invalid event: " + strings.Join(msgs, "; ")
}

func respondScheduleError(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, calendar.Response{
		Status:       calendar.StatusError,
		ErrorMessage: message,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}
