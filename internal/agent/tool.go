package agent

import (
	"context"

	"github.com/omriShneor/taskquest/internal/calendar"
)

// ToolKind identifies one of the workflow's tools
type ToolKind string

const (
	ToolDecompose       ToolKind = "decompose_task"
	ToolEstimateXP      ToolKind = "estimate_xp"
	ToolExtractSchedule ToolKind = "extract_schedule_details"
	ToolSchedule        ToolKind = "schedule_event"
)

// Call is a request to one tool. The set of implementations is closed.
type Call interface {
	Kind() ToolKind
	isCall()
}

// Result is the typed output of a Call
type Result interface {
	Kind() ToolKind
}

// Toolset executes calls
type Toolset interface {
	Invoke(ctx context.Context, call Call) (Result, error)
}

type DecomposeCall struct {
	Task string
}

// EstimateXPCall carries the single subtask list derived from the decomposition.
// Narrative holds the planner's own per-subtask XP and is only used in narrative mode.
type EstimateXPCall struct {
	Task      string
	Subtasks  []string
	Narrative []Subtask
	Mode      string
}

type ExtractScheduleCall struct {
	Task string
}

type ScheduleCall struct {
	Request calendar.EventRequest
}

func (DecomposeCall) Kind() ToolKind       { return ToolDecompose }
func (EstimateXPCall) Kind() ToolKind      { return ToolEstimateXP }
func (ExtractScheduleCall) Kind() ToolKind { return ToolExtractSchedule }
func (ScheduleCall) Kind() ToolKind        { return ToolSchedule }

func (DecomposeCall) isCall()       {}
func (EstimateXPCall) isCall()      {}
func (ExtractScheduleCall) isCall() {}
func (ScheduleCall) isCall()        {}

type DecomposeResult struct {
	Narrative     string
	Decomposition Decomposition
}

type EstimateXPResult struct {
	Plan SubtaskPlan
}

type ExtractScheduleResult struct {
	Details ScheduleDetails
}

type ScheduleResult struct {
	Outcome calendar.Outcome
}

func (DecomposeResult) Kind() ToolKind       { return ToolDecompose }
func (EstimateXPResult) Kind() ToolKind      { return ToolEstimateXP }
func (ExtractScheduleResult) Kind() ToolKind { return ToolExtractSchedule }
func (ScheduleResult) Kind() ToolKind        { return ToolSchedule }
