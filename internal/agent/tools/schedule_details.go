package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/llm"
)

// ScheduleExtractor pulls date, time, location and attendee emails out of task text
type ScheduleExtractor struct {
	llm      llm.Completer
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduleExtractor creates an extractor. loc is used for the "current date"
// reference handed to the model.
func NewScheduleExtractor(completer llm.Completer, loc *time.Location, logger *zap.Logger) *ScheduleExtractor {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleExtractor{
		llm:      completer,
		validate: validator.New(),
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// rawScheduleDetails mirrors the JSON the model is asked for. Attendees is kept raw
// because models return strings, objects or a bare string.
type rawScheduleDetails struct {
	Date      *string         `json:"date"`
	Time      *string         `json:"time"`
	Location  *string         `json:"location"`
	Attendees json.RawMessage `json:"attendees"`
}

// Extract returns the schedule details. A malformed response is not an error: it
// yields empty details. Only a failed completion call returns an error.
func (e *ScheduleExtractor) Extract(ctx context.Context, task string) (agent.ScheduleDetails, error) {
	now := e.now().In(e.loc)
	prompt := fmt.Sprintf(ScheduleDetailsPromptTemplate,
		now.Format("2006-01-02 15:04 Monday"), e.loc.String(), task)

	text, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return agent.ScheduleDetails{}, fmt.Errorf("%w: extract schedule: %v", agent.ErrCompletion, err)
	}

	details, ok := e.parse(text)
	if !ok {
		e.logger.Info("schedule details response was not valid JSON, using empty details")
		return agent.ScheduleDetails{}, nil
	}
	return details, nil
}

func (e *ScheduleExtractor) parse(text string) (agent.ScheduleDetails, bool) {
	var raw rawScheduleDetails
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &raw); err != nil {
		return agent.ScheduleDetails{}, false
	}

	return agent.ScheduleDetails{
		Date:      normalizeField(raw.Date),
		Time:      normalizeField(raw.Time),
		Location:  normalizeField(raw.Location),
		Attendees: e.normalizeAttendees(raw.Attendees),
	}, true
}

// normalizeField maps empty and placeholder values to nil.
func normalizeField(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "...":
		return nil
	}
	return &s
}

// normalizeAttendees keeps valid emails, deduplicated case-insensitively, in
// first-seen order.
func (e *ScheduleExtractor) normalizeAttendees(raw json.RawMessage) []string {
	var candidates []string

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			switch v := item.(type) {
			case string:
				candidates = append(candidates, v)
			case map[string]any:
				if email, ok := v["email"].(string); ok {
					candidates = append(candidates, email)
				}
			}
		}
	} else {
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			candidates = strings.Split(single, ",")
		}
	}

	seen := make(map[string]struct{})
	attendees := make([]string, 0, len(candidates))
	for _, c := range candidates {
		email := strings.TrimSpace(c)
		if err := e.validate.Var(email, "required,email"); err != nil {
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		attendees = append(attendees, email)
	}
	return attendees
}
