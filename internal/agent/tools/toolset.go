package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/config"
	"github.com/omriShneor/taskquest/internal/llm"
)

// EventScheduler submits an event and reports the outcome
type EventScheduler interface {
	Schedule(ctx context.Context, req calendar.EventRequest) calendar.Outcome
}

// Toolset dispatches agent calls to the concrete tools
type Toolset struct {
	decomposer *Decomposer
	extractor  *ScheduleExtractor
	scheduler  EventScheduler
	logger     *zap.Logger
}

// NewToolset wires the tools. loc is the zone relative dates are resolved in.
func NewToolset(completer llm.Completer, scheduler EventScheduler, loc *time.Location, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{
		decomposer: NewDecomposer(completer),
		extractor:  NewScheduleExtractor(completer, loc, logger),
		scheduler:  scheduler,
		logger:     logger,
	}
}

// Invoke runs a single call
func (t *Toolset) Invoke(ctx context.Context, call agent.Call) (agent.Result, error) {
	switch c := call.(type) {
	case agent.DecomposeCall:
		narrative, err := t.decomposer.Decompose(ctx, c.Task)
		if err != nil {
			return nil, err
		}
		dec := ParseDecomposition(narrative)
		if dec.Unparsed() {
			t.logger.Warn("planner declared subtasks but none could be read, treating task as trivial",
				zap.Int("declared", dec.DeclaredSubtasks),
				zap.String("narrative", narrative))
		}
		return agent.DecomposeResult{
			Narrative:     narrative,
			Decomposition: dec,
		}, nil

	case agent.EstimateXPCall:
		if c.Mode == config.XPModeNarrative && len(c.Narrative) == len(c.Subtasks) {
			return agent.EstimateXPResult{Plan: NarrativePlan(c.Task, c.Narrative)}, nil
		}
		return agent.EstimateXPResult{Plan: EstimateXP(c.Task, c.Subtasks)}, nil

	case agent.ExtractScheduleCall:
		details, err := t.extractor.Extract(ctx, c.Task)
		if err != nil {
			return nil, err
		}
		return agent.ExtractScheduleResult{Details: details}, nil

	case agent.ScheduleCall:
		return agent.ScheduleResult{Outcome: t.scheduler.Schedule(ctx, c.Request)}, nil

	default:
		return nil, fmt.Errorf("unsupported tool call %T", call)
	}
}
