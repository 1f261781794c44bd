package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/agent/tools"
	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/config"
	"github.com/omriShneor/taskquest/internal/mocks"
)

func isDecomposePrompt(p string) bool { return strings.Contains(p, "task planner") }
func isDetailsPrompt(p string) bool   { return strings.Contains(p, "scheduling details") }

func newCompleter(narrative, details string) *mocks.MockCompleter {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(isDecomposePrompt)).Return(narrative, nil)
	completer.On("Complete", mock.Anything, mock.MatchedBy(isDetailsPrompt)).Return(details, nil)
	return completer
}

func TestRun_TrivialTaskWithoutDate(t *testing.T) {
	completer := newCompleter(
		"task: Water the plants\nsubtasks required: 0\nnote: Quick win, go for it!",
		`{"date": null, "time": null, "location": null, "attendees": []}`,
	)
	scheduler := new(mocks.MockScheduler)

	a := agent.NewAgent(tools.NewToolset(completer, scheduler, time.UTC, nil), agent.Config{})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "  Water the plants "})

	require.NoError(t, err)
	assert.Equal(t, "Water the plants", summary.Task)
	assert.Empty(t, summary.Subtasks)
	assert.Equal(t, agent.TrivialTaskXP, summary.TotalXP)
	assert.Equal(t, agent.StateNotScheduled, summary.State)
	assert.Equal(t, calendar.OutcomeNotScheduled, summary.Outcome.Kind)
	assert.Equal(t, "Quick win, go for it!", summary.Note)
	assert.Contains(t, summary.Render(), "Quick win, go for it!")
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestRun_ComputedXPIgnoresNarrativeValues(t *testing.T) {
	completer := newCompleter(
		"subtasks required: 3\nsubtask1: Book venue | XP: 30\nsubtask2: Send invites | XP: 30\nsubtask3: Order cake | XP: 40\ntotal XP: 100",
		`{}`,
	)

	a := agent.NewAgent(tools.NewToolset(completer, new(mocks.MockScheduler), time.UTC, nil),
		agent.Config{XPMode: config.XPModeComputed})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "Plan a party"})

	require.NoError(t, err)
	require.Len(t, summary.Subtasks, 3)
	assert.Equal(t, []int{10, 15, 20}, []int{summary.Subtasks[0].XP, summary.Subtasks[1].XP, summary.Subtasks[2].XP})
	assert.Equal(t, 45, summary.TotalXP)
}

func TestRun_NarrativeXPMode(t *testing.T) {
	completer := newCompleter(
		"subtasks required: 2\nsubtask1: Outline | XP: 40\nsubtask2: Draft | XP: 60\ntotal XP: 90",
		`{}`,
	)

	a := agent.NewAgent(tools.NewToolset(completer, new(mocks.MockScheduler), time.UTC, nil),
		agent.Config{XPMode: config.XPModeNarrative})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "Write essay"})

	require.NoError(t, err)
	assert.Equal(t, 100, summary.TotalXP)
}

func TestRun_DateTriggersScheduling(t *testing.T) {
	completer := newCompleter(
		"subtasks required: 0\nnote: Easy.",
		`{"date": "2025-03-15", "time": "14:00", "location": "Room 4", "attendees": ["sam@example.com"]}`,
	)
	scheduler := new(mocks.MockScheduler)
	expectedReq := calendar.EventRequest{
		Date:        "2025-03-15",
		Time:        "14:00",
		Location:    "Room 4",
		Description: "Team sync tomorrow at 2pm in Room 4 with sam@example.com",
		Attendees:   []string{"sam@example.com"},
	}
	scheduler.On("Schedule", mock.Anything, expectedReq).Return(calendar.Scheduled("https://calendar.example/e/1", "Event created"))

	a := agent.NewAgent(tools.NewToolset(completer, scheduler, time.UTC, nil), agent.Config{})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: expectedReq.Description})

	require.NoError(t, err)
	assert.Equal(t, agent.StateScheduled, summary.State)
	assert.Equal(t, "https://calendar.example/e/1", summary.Outcome.Link)
	scheduler.AssertExpectations(t)
}

func TestRun_SchedulingFailureKeepsGamification(t *testing.T) {
	completer := newCompleter(
		"subtasks required: 2\nsubtask1: Prepare slides | XP: 50\nsubtask2: Rehearse | XP: 50",
		`{"date": "2025-03-15", "time": null}`,
	)
	scheduler := new(mocks.MockScheduler)
	scheduler.On("Schedule", mock.Anything, mock.Anything).Return(calendar.Failed("the calendar service timed out"))

	a := agent.NewAgent(tools.NewToolset(completer, scheduler, time.UTC, nil), agent.Config{})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "Give the talk on 2025-03-15"})

	require.NoError(t, err)
	assert.Equal(t, agent.StateSchedulingFailed, summary.State)
	assert.Equal(t, 25, summary.TotalXP)
	assert.Len(t, summary.Subtasks, 2)

	rendered := summary.Render()
	assert.Contains(t, rendered, "1. Prepare slides (XP: 10)")
	assert.Contains(t, rendered, "could not be scheduled: the calendar service timed out")
}

func TestRun_CompletionFailure(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("API error (status 529): overloaded"))

	a := agent.NewAgent(tools.NewToolset(completer, new(mocks.MockScheduler), time.UTC, nil), agent.Config{})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "Plan trip"})

	assert.Nil(t, summary)
	assert.ErrorIs(t, err, agent.ErrCompletion)
}

func TestRun_EmptyTask(t *testing.T) {
	a := agent.NewAgent(tools.NewToolset(new(mocks.MockCompleter), new(mocks.MockScheduler), time.UTC, nil), agent.Config{})

	_, err := a.Run(context.Background(), agent.TaskRequest{RawText: "   "})

	assert.ErrorIs(t, err, agent.ErrEmptyTask)
}

// A scheduled run through the real client surfaces the service's link verbatim.
func TestRun_RoundTripThroughCalendarService(t *testing.T) {
	const link = "https://www.google.com/calendar/event?eid=abc123"
	var received calendar.CalendarEvent

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(calendar.Response{
			Status:    calendar.StatusSuccess,
			EventLink: link,
			Message:   "Event created",
		})
	}))
	defer srv.Close()

	completer := newCompleter(
		"subtasks required: 0\nnote: Nice.",
		`{"date": "2025-06-01", "time": "09:30", "location": null, "attendees": []}`,
	)
	client := calendar.NewClient(srv.URL, "Asia/Kolkata", 5*time.Second, nil)

	a := agent.NewAgent(tools.NewToolset(completer, client, client.Location(), nil), agent.Config{})
	summary, err := a.Run(context.Background(), agent.TaskRequest{RawText: "Dentist on June 1 at 9:30"})

	require.NoError(t, err)
	assert.Equal(t, agent.StateScheduled, summary.State)
	assert.Equal(t, link, summary.Outcome.Link)
	assert.Equal(t, "Dentist on June 1 at 9:30", received.Summary)
	assert.Equal(t, "2025-06-01T09:30:00", received.Start.DateTime)
	assert.Equal(t, "2025-06-01T10:00:00", received.End.DateTime)
	assert.Equal(t, "Asia/Kolkata", received.Start.TimeZone)
	assert.Contains(t, summary.Render(), link)
}
