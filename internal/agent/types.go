package agent

import (
	"errors"

	"github.com/omriShneor/taskquest/internal/calendar"
)

// ErrCompletion marks a failed call to the completion service.
var ErrCompletion = errors.New("completion service call failed")

// ErrEmptyTask is returned when a submission has no text.
var ErrEmptyTask = errors.New("task text is empty")

// TrivialTaskXP is awarded to tasks that need no subtasks.
const TrivialTaskXP = 10

// TaskRequest is one user submission
type TaskRequest struct {
	RawText string `json:"raw_text"`
}

// Subtask is a single step with its XP award
type Subtask struct {
	Description string `json:"description"`
	XP          int    `json:"xp"`
}

// SubtaskPlan is the authoritative XP breakdown for a task.
// TotalXP is the sum of Subtasks' XP, or TrivialTaskXP when no subtasks are required.
type SubtaskPlan struct {
	Task             string    `json:"task"`
	SubtasksRequired int       `json:"subtasks_required"`
	Subtasks         []Subtask `json:"subtasks"`
	TotalXP          int       `json:"total_xp"`
}

// Decomposition is what could be read back from the planner narrative.
// XP values here are display-only.
type Decomposition struct {
	SubtasksRequired int
	Subtasks         []Subtask
	NarrativeTotalXP int
	Note             string
	// DeclaredSubtasks is the "subtasks required" count as written, 0 if absent.
	DeclaredSubtasks int
}

// Unparsed reports whether the narrative announced subtasks but none could be read.
func (d Decomposition) Unparsed() bool {
	return d.DeclaredSubtasks > 0 && len(d.Subtasks) == 0
}

// Descriptions returns the subtask descriptions in order
func (d Decomposition) Descriptions() []string {
	out := make([]string, len(d.Subtasks))
	for i, s := range d.Subtasks {
		out[i] = s.Description
	}
	return out
}

// ScheduleDetails holds what the task text says about when and where.
// Nil means not mentioned.
type ScheduleDetails struct {
	Date      *string  `json:"date"`
	Time      *string  `json:"time"`
	Location  *string  `json:"location"`
	Attendees []string `json:"attendees"`
}

// HasDate reports whether a date was extracted
func (d ScheduleDetails) HasDate() bool {
	return d.Date != nil && *d.Date != ""
}

func (d ScheduleDetails) dateOrEmpty() string     { return deref(d.Date) }
func (d ScheduleDetails) timeOrEmpty() string     { return deref(d.Time) }
func (d ScheduleDetails) locationOrEmpty() string { return deref(d.Location) }

// EventRequest builds the scheduler request for the given description
func (d ScheduleDetails) EventRequest(description string) calendar.EventRequest {
	return calendar.EventRequest{
		Date:        d.dateOrEmpty(),
		Time:        d.timeOrEmpty(),
		Location:    d.locationOrEmpty(),
		Description: description,
		Attendees:   d.Attendees,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WorkflowState is a state of a single workflow run
type WorkflowState string

const (
	StateStart            WorkflowState = "start"
	StateDecomposed       WorkflowState = "decomposed"
	StateExtracted        WorkflowState = "extracted"
	StateScheduled        WorkflowState = "scheduled"
	StateSchedulingFailed WorkflowState = "scheduling_failed"
	StateNotScheduled     WorkflowState = "not_scheduled"
)

// WorkflowSummary is the final artifact of one run
type WorkflowSummary struct {
	Task     string           `json:"task"`
	Subtasks []Subtask        `json:"subtasks"`
	TotalXP  int              `json:"total_xp"`
	Details  ScheduleDetails  `json:"details"`
	Outcome  calendar.Outcome `json:"event_outcome"`
	State    WorkflowState    `json:"state"`
	Note     string           `json:"note,omitempty"`
}
