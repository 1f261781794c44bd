package tools

import "github.com/omriShneor/taskquest/internal/agent"

const (
	baseXP = 10
	stepXP = 5
)

// EstimateXP assigns 10 + 5*i XP to the i-th subtask and sums them. With no
// subtasks the task is trivial and earns agent.TrivialTaskXP.
func EstimateXP(task string, subtasks []string) agent.SubtaskPlan {
	plan := agent.SubtaskPlan{
		Task:             task,
		SubtasksRequired: len(subtasks),
		Subtasks:         make([]agent.Subtask, 0, len(subtasks)),
	}

	if len(subtasks) == 0 {
		plan.TotalXP = agent.TrivialTaskXP
		return plan
	}

	for i, desc := range subtasks {
		xp := baseXP + stepXP*i
		plan.Subtasks = append(plan.Subtasks, agent.Subtask{Description: desc, XP: xp})
		plan.TotalXP += xp
	}
	return plan
}

// NarrativePlan keeps the planner's own per-subtask XP. The total is recomputed
// from the subtasks; the narrative's "total XP" line is never trusted.
func NarrativePlan(task string, subtasks []agent.Subtask) agent.SubtaskPlan {
	if len(subtasks) == 0 {
		return EstimateXP(task, nil)
	}

	plan := agent.SubtaskPlan{
		Task:             task,
		SubtasksRequired: len(subtasks),
		Subtasks:         make([]agent.Subtask, len(subtasks)),
	}
	copy(plan.Subtasks, subtasks)
	for _, s := range plan.Subtasks {
		plan.TotalXP += s.XP
	}
	return plan
}
