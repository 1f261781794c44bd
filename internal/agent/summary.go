package agent

import (
	"fmt"
	"strings"

	"github.com/omriShneor/taskquest/internal/calendar"
)

// GenericFailureMessage is shown when a run could not complete.
const GenericFailureMessage = "Sorry, I couldn't work through that task right now. Please try again in a moment."

const (
	trivialAcknowledgement = "No subtasks needed, this one is quick. Nice work knocking it out!"
	genericScheduleFailure = "the calendar service could not create the event"
	maxReasonLength        = 160
)

// Render formats the summary for the user: main task, subtasks with XP, total XP
// and event details.
func (s *WorkflowSummary) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Main Task:** %s\n\n", s.Task)

	b.WriteString("**Subtasks:**\n")
	if len(s.Subtasks) == 0 {
		if note := strings.TrimSpace(s.Note); note != "" {
			b.WriteString(note + "\n")
		} else {
			b.WriteString(trivialAcknowledgement + "\n")
		}
	} else {
		for i, st := range s.Subtasks {
			fmt.Fprintf(&b, "%d. %s (XP: %d)\n", i+1, st.Description, st.XP)
		}
	}

	fmt.Fprintf(&b, "\n**Total XP:** %d\n\n", s.TotalXP)

	b.WriteString("**Event Details:**\n")
	b.WriteString(s.renderEvent())

	return strings.TrimRight(b.String(), "\n")
}

func (s *WorkflowSummary) renderEvent() string {
	var b strings.Builder
	d := s.Details

	if d.HasDate() {
		fmt.Fprintf(&b, "- Date: %s\n", *d.Date)
		clock := strings.TrimSpace(d.timeOrEmpty())
		if clock == "" || strings.EqualFold(clock, "unknown") {
			b.WriteString("- Time: all day\n")
		} else {
			fmt.Fprintf(&b, "- Time: %s\n", clock)
		}
	}
	if loc := strings.TrimSpace(d.locationOrEmpty()); loc != "" {
		fmt.Fprintf(&b, "- Location: %s\n", loc)
	}
	if len(d.Attendees) > 0 {
		fmt.Fprintf(&b, "- Attendees: %s\n", strings.Join(d.Attendees, ", "))
	}

	switch s.Outcome.Kind {
	case calendar.OutcomeScheduled:
		b.WriteString("- Status: added to your calendar")
		if s.Outcome.Link != "" {
			fmt.Fprintf(&b, " (%s)", s.Outcome.Link)
		}
		b.WriteString("\n")
	case calendar.OutcomeFailed:
		fmt.Fprintf(&b, "- Status: could not be scheduled: %s\n", SanitizeReason(s.Outcome.Reason))
	default:
		b.WriteString("- Status: no date mentioned, so nothing was scheduled\n")
	}

	return b.String()
}

// SanitizeReason makes a failure reason safe to show: one line, no raw JSON,
// no internal tool names, bounded length.
func SanitizeReason(reason string) string {
	r := strings.Join(strings.Fields(reason), " ")

	if idx := strings.IndexAny(r, "{["); idx >= 0 {
		r = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(r[:idx]), ":"))
	}

	for _, kind := range []ToolKind{ToolDecompose, ToolEstimateXP, ToolExtractSchedule, ToolSchedule} {
		r = strings.ReplaceAll(r, string(kind), "")
	}
	r = strings.Join(strings.Fields(r), " ")

	if r == "" {
		return genericScheduleFailure
	}

	if runes := []rune(r); len(runes) > maxReasonLength {
		r = string(runes[:maxReasonLength]) + "..."
	}
	return r
}
