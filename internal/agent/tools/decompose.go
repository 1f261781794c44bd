package tools

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/llm"
)

// Decomposer asks the completion service to break a task into subtasks
type Decomposer struct {
	llm llm.Completer
}

// NewDecomposer creates a decomposer backed by the given completion service
func NewDecomposer(completer llm.Completer) *Decomposer {
	return &Decomposer{llm: completer}
}

// Decompose returns the planner narrative as-is. Its internal consistency is not
// checked; use ParseDecomposition to read it.
func (d *Decomposer) Decompose(ctx context.Context, task string) (string, error) {
	text, err := d.llm.Complete(ctx, fmt.Sprintf(DecomposePromptTemplate, task))
	if err != nil {
		return "", fmt.Errorf("%w: decompose: %v", agent.ErrCompletion, err)
	}
	return strings.TrimSpace(text), nil
}

var (
	requiredLine = regexp.MustCompile(`(?i)^subtasks?\s+required\s*:\s*(\d+)`)
	subtaskLine  = regexp.MustCompile(`(?i)^subtask\s*\d+\s*[:.)-]\s*(.+)$`)
	numberedLine = regexp.MustCompile(`^\d+\s*[.)]\s+(.+)$`)
	totalLine    = regexp.MustCompile(`(?i)^total\s+XP\s*:\s*(\d+)`)
	noteLine     = regexp.MustCompile(`(?i)^note\s*:\s*(.+)$`)
)

// xpSuffix matches a trailing XP value: "| XP: 40", "| XP: 40 XP", "(XP: 40)", "- 40 XP".
var xpSuffix = regexp.MustCompile(`(?i)\s*(?:[|,–-]\s*)?[(\[]?\s*(?:XP\s*[:=]?\s*(\d+)(?:\s*XP)?|(\d+)\s*XP)\s*[)\]]?\s*$`)

// ParseDecomposition reads the planner narrative. Unknown lines are ignored and
// it never fails; an unreadable narrative yields a trivial decomposition.
// Subtasks may be written "subtaskN: ..." or as a numbered list.
// When "subtasks required: 0" is declared, any subtask lines are dropped.
func ParseDecomposition(narrative string) agent.Decomposition {
	var dec agent.Decomposition
	declared := -1

	scanner := bufio.NewScanner(strings.NewReader(narrative))
	for scanner.Scan() {
		line := cleanLine(scanner.Text())
		if line == "" {
			continue
		}

		if m := requiredLine.FindStringSubmatch(line); m != nil {
			declared, _ = strconv.Atoi(m[1])
			continue
		}
		if m := totalLine.FindStringSubmatch(line); m != nil {
			dec.NarrativeTotalXP, _ = strconv.Atoi(m[1])
			continue
		}
		if m := noteLine.FindStringSubmatch(line); m != nil {
			dec.Note = strings.TrimSpace(m[1])
			continue
		}
		if item, ok := subtaskItem(line); ok {
			if st, ok := parseSubtask(item); ok {
				dec.Subtasks = append(dec.Subtasks, st)
			}
		}
	}

	if declared == 0 {
		dec.Subtasks = nil
	}
	dec.DeclaredSubtasks = max(declared, 0)
	// The list is the source of truth for the count.
	dec.SubtasksRequired = len(dec.Subtasks)

	return dec
}

// subtaskItem strips a "subtaskN:" label, a list number, or both.
func subtaskItem(line string) (string, bool) {
	numbered := false
	if m := numberedLine.FindStringSubmatch(line); m != nil {
		line, numbered = m[1], true
	}
	if m := subtaskLine.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return line, numbered
}

// parseSubtask splits an item into its description and trailing XP, if any.
func parseSubtask(item string) (agent.Subtask, bool) {
	desc, xp := strings.TrimSpace(item), 0
	if loc := xpSuffix.FindStringSubmatchIndex(desc); loc != nil {
		for _, g := range []int{2, 4} {
			if loc[g] >= 0 {
				xp, _ = strconv.Atoi(desc[loc[g]:loc[g+1]])
			}
		}
		desc = desc[:loc[0]]
	}
	desc = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(desc), "|:,–-"))
	if desc == "" {
		return agent.Subtask{}, false
	}
	return agent.Subtask{Description: desc, XP: xp}, true
}

// cleanLine strips markdown decoration the model sometimes adds.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	line = strings.TrimLeft(line, "-*• ")
	return strings.TrimSpace(line)
}
