package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/mocks"
)

func TestDecompose_PassesTaskInPrompt(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "task: Write quarterly report") && strings.Contains(p, "subtasks required")
	})).Return("  subtasks required: 0\nnote: easy  ", nil)

	narrative, err := NewDecomposer(completer).Decompose(context.Background(), "Write quarterly report")

	require.NoError(t, err)
	assert.Equal(t, "subtasks required: 0\nnote: easy", narrative)
	completer.AssertExpectations(t)
}

func TestDecompose_CompletionErrorPropagates(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := NewDecomposer(completer).Decompose(context.Background(), "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrCompletion)
}

func TestParseDecomposition(t *testing.T) {
	tests := []struct {
		name      string
		narrative string
		expected  agent.Decomposition
	}{
		{
			name: "non-trivial",
			narrative: `---
task: Plan a birthday party
subtasks required: 3
subtask1: Pick a venue | XP: 30
subtask2: Send invitations | XP: 30
subtask3: Order the cake | XP: 40
total XP: 100
---`,
			expected: agent.Decomposition{
				SubtasksRequired: 3,
				Subtasks: []agent.Subtask{
					{Description: "Pick a venue", XP: 30},
					{Description: "Send invitations", XP: 30},
					{Description: "Order the cake", XP: 40},
				},
				NarrativeTotalXP: 100,
				DeclaredSubtasks: 3,
			},
		},
		{
			name: "trivial",
			narrative: `task: water the plants
subtasks required: 0
note: This task is straightforward and does not require subtasking.`,
			expected: agent.Decomposition{
				SubtasksRequired: 0,
				Note:             "This task is straightforward and does not require subtasking.",
			},
		},
		{
			name: "markdown decorated",
			narrative: `**subtasks required:** 2
- **subtask1:** Draft outline | XP: 40
- **Subtask 2:** Review | XP: 60
**total XP:** 100`,
			expected: agent.Decomposition{
				SubtasksRequired: 2,
				Subtasks: []agent.Subtask{
					{Description: "Draft outline", XP: 40},
					{Description: "Review", XP: 60},
				},
				NarrativeTotalXP: 100,
				DeclaredSubtasks: 2,
			},
		},
		{
			name: "missing xp and count",
			narrative: `subtask1: Call the plumber
subtask2: Clear the sink | XP: 20`,
			expected: agent.Decomposition{
				SubtasksRequired: 2,
				Subtasks: []agent.Subtask{
					{Description: "Call the plumber", XP: 0},
					{Description: "Clear the sink", XP: 20},
				},
			},
		},
		{
			name: "declared zero wins over stray lines",
			narrative: `subtasks required: 0
subtask1: should be ignored | XP: 50`,
			expected: agent.Decomposition{SubtasksRequired: 0},
		},
		{
			name: "numbered list",
			narrative: `subtasks required: 2
1. Book venue | XP: 40
2) Send invites | XP: 60
total XP: 100`,
			expected: agent.Decomposition{
				SubtasksRequired: 2,
				Subtasks: []agent.Subtask{
					{Description: "Book venue", XP: 40},
					{Description: "Send invites", XP: 60},
				},
				NarrativeTotalXP: 100,
				DeclaredSubtasks: 2,
			},
		},
		{
			name: "numbered subtask labels",
			narrative: `1. subtask1: Book venue | XP: 40
2. subtask2: Send invites | XP: 60`,
			expected: agent.Decomposition{
				SubtasksRequired: 2,
				Subtasks: []agent.Subtask{
					{Description: "Book venue", XP: 40},
					{Description: "Send invites", XP: 60},
				},
			},
		},
		{
			name: "xp suffix variants",
			narrative: `subtasks required: 4
subtask1: Book venue | XP: 40 XP
subtask2: Send invites (XP: 25)
subtask3: Order cake - 35 XP
subtask4: Buy 3 balloons [XP 10]`,
			expected: agent.Decomposition{
				SubtasksRequired: 4,
				Subtasks: []agent.Subtask{
					{Description: "Book venue", XP: 40},
					{Description: "Send invites", XP: 25},
					{Description: "Order cake", XP: 35},
					{Description: "Buy 3 balloons", XP: 10},
				},
				DeclaredSubtasks: 4,
			},
		},
		{
			name:      "free-form text",
			narrative: "Sure! That sounds like a fun task.",
			expected:  agent.Decomposition{SubtasksRequired: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDecomposition(tt.narrative))
		})
	}
}

func TestParseDecomposition_Unparsed(t *testing.T) {
	dec := ParseDecomposition(`subtasks required: 2
first, book a venue
then send the invites`)

	assert.Equal(t, 0, dec.SubtasksRequired)
	assert.Equal(t, 2, dec.DeclaredSubtasks)
	assert.True(t, dec.Unparsed())

	assert.False(t, ParseDecomposition("subtasks required: 0\nnote: quick").Unparsed())
}

func TestParseDecomposition_CountFollowsList(t *testing.T) {
	dec := ParseDecomposition(`subtasks required: 5
subtask1: a | XP: 10
subtask2: b | XP: 10`)

	assert.Equal(t, 2, dec.SubtasksRequired)
	assert.Equal(t, 5, dec.DeclaredSubtasks)
	assert.Equal(t, []string{"a", "b"}, dec.Descriptions())
}
