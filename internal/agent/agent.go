package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/metrics"
)

// DefaultTimeout bounds a single run when no timeout is configured
const DefaultTimeout = 90 * time.Second

// Agent runs the task workflow: decompose, estimate XP, extract schedule
// details and, when a date was found, schedule the event.
type Agent struct {
	tools   Toolset
	xpMode  string
	timeout time.Duration
	logger  *zap.Logger
}

// Config configures an agent
type Config struct {
	XPMode  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewAgent creates an agent that executes its steps through tools
func NewAgent(tools Toolset, cfg Config) *Agent {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Agent{
		tools:   tools,
		xpMode:  cfg.XPMode,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Run executes one workflow pass for the request. Scheduling failures are
// reported in the summary's Outcome; only completion failures (ErrCompletion)
// and empty input (ErrEmptyTask) are returned as errors.
func (a *Agent) Run(ctx context.Context, req TaskRequest) (*WorkflowSummary, error) {
	task := strings.TrimSpace(req.RawText)
	if task == "" {
		return nil, ErrEmptyTask
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	summary, err := a.run(ctx, task)
	if err != nil {
		metrics.WorkflowRuns.WithLabelValues("failed").Inc()
		a.logger.Warn("workflow failed", zap.String("task", task), zap.Error(err))
		return nil, err
	}

	metrics.WorkflowRuns.WithLabelValues(string(summary.State)).Inc()
	metrics.XPAwarded.Add(float64(summary.TotalXP))
	a.logger.Info("workflow complete",
		zap.String("state", string(summary.State)),
		zap.String("outcome", string(summary.Outcome.Kind)),
		zap.Int("total_xp", summary.TotalXP))
	return summary, nil
}

func (a *Agent) run(ctx context.Context, task string) (*WorkflowSummary, error) {
	summary := &WorkflowSummary{Task: task, State: StateStart}

	decomposed, err := invoke[DecomposeResult](ctx, a.tools, DecomposeCall{Task: task})
	if err != nil {
		return nil, err
	}
	summary.State = StateDecomposed
	summary.Note = decomposed.Decomposition.Note

	estimated, err := invoke[EstimateXPResult](ctx, a.tools, EstimateXPCall{
		Task:      task,
		Subtasks:  decomposed.Decomposition.Descriptions(),
		Narrative: decomposed.Decomposition.Subtasks,
		Mode:      a.xpMode,
	})
	if err != nil {
		return nil, err
	}
	summary.Subtasks = estimated.Plan.Subtasks
	summary.TotalXP = estimated.Plan.TotalXP

	extracted, err := invoke[ExtractScheduleResult](ctx, a.tools, ExtractScheduleCall{Task: task})
	if err != nil {
		return nil, err
	}
	summary.State = StateExtracted
	summary.Details = extracted.Details

	if !extracted.Details.HasDate() {
		summary.Outcome = calendar.NotScheduled()
		summary.State = StateNotScheduled
		return summary, nil
	}

	scheduled, err := invoke[ScheduleResult](ctx, a.tools, ScheduleCall{
		Request: extracted.Details.EventRequest(task),
	})
	if err != nil {
		return nil, err
	}
	summary.Outcome = scheduled.Outcome
	if scheduled.Outcome.Kind == calendar.OutcomeScheduled {
		summary.State = StateScheduled
	} else {
		summary.State = StateSchedulingFailed
	}
	return summary, nil
}

func invoke[R Result](ctx context.Context, tools Toolset, call Call) (R, error) {
	var zero R
	res, err := tools.Invoke(ctx, call)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%s returned unexpected result %T", call.Kind(), res)
	}
	return typed, nil
}
