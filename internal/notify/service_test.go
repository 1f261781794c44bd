package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/mocks"
)

func strPtr(s string) *string { return &s }

func scheduledSummary() *agent.WorkflowSummary {
	return &agent.WorkflowSummary{
		Task:     "Team sync <weekly>",
		Subtasks: []agent.Subtask{{Description: "Prepare agenda", XP: 10}, {Description: "Book room", XP: 15}},
		TotalXP:  25,
		Details: agent.ScheduleDetails{
			Date:      strPtr("2025-03-15"),
			Time:      strPtr("14:00"),
			Location:  strPtr("Room 4"),
			Attendees: []string{"sam@example.com"},
		},
		Outcome: calendar.Scheduled("https://calendar.example/e/1", "Event created"),
		State:   agent.StateScheduled,
	}
}

func TestNotifyScheduled(t *testing.T) {
	t.Run("sends for scheduled outcome", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		notifier.On("IsConfigured").Return(true)
		notifier.On("Name").Return("mock")
		summary := scheduledSummary()
		notifier.On("Send", mock.Anything, summary, "me@example.com").Return(nil)

		NewService(notifier, "me@example.com", nil).NotifyScheduled(context.Background(), summary)

		notifier.AssertExpectations(t)
	})

	t.Run("skips other outcomes", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		svc := NewService(notifier, "me@example.com", nil)

		for _, outcome := range []calendar.Outcome{calendar.NotScheduled(), calendar.Failed("timed out")} {
			summary := scheduledSummary()
			summary.Outcome = outcome
			svc.NotifyScheduled(context.Background(), summary)
		}
		svc.NotifyScheduled(context.Background(), nil)

		notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("send failure is swallowed", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		notifier.On("IsConfigured").Return(true)
		notifier.On("Name").Return("mock")
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("rate limited"))

		assert.NotPanics(t, func() {
			NewService(notifier, "me@example.com", nil).NotifyScheduled(context.Background(), scheduledSummary())
		})
		notifier.AssertExpectations(t)
	})
}

func TestIsEmailAvailable(t *testing.T) {
	t.Run("available when notifier configured", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		notifier.On("IsConfigured").Return(true)
		assert.True(t, NewService(notifier, "me@example.com", nil).IsEmailAvailable())
	})

	t.Run("not available when notifier not configured", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		notifier.On("IsConfigured").Return(false)
		assert.False(t, NewService(notifier, "me@example.com", nil).IsEmailAvailable())
	})

	t.Run("not available without recipient", func(t *testing.T) {
		notifier := new(mocks.MockNotifier)
		notifier.On("IsConfigured").Return(true)
		assert.False(t, NewService(notifier, "", nil).IsEmailAvailable())
	})

	t.Run("not available when notifier is nil", func(t *testing.T) {
		assert.False(t, NewService(nil, "me@example.com", nil).IsEmailAvailable())
	})

	t.Run("not available with unset resend key", func(t *testing.T) {
		assert.False(t, NewService(NewResendNotifier("", "from@example.com"), "me@example.com", nil).IsEmailAvailable())
	})
}

func TestResendNotifier_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "email-1"}`))
	}))
	defer srv.Close()

	notifier := NewResendNotifier("re_test", "TaskQuest <quests@example.com>")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	notifier.client.BaseURL = base

	require.NoError(t, notifier.Send(context.Background(), scheduledSummary(), "me@example.com"))

	assert.Equal(t, "TaskQuest <quests@example.com>", got["from"])
	assert.Equal(t, []any{"me@example.com"}, got["to"])
	assert.Equal(t, "Quest scheduled: Team sync <weekly> (+25 XP)", got["subject"])
	assert.Contains(t, got["html"], "Team sync &lt;weekly&gt;")
	assert.Contains(t, got["text"], "**Total XP:** 25")
}

func TestResendNotifier_NoRecipient(t *testing.T) {
	notifier := NewResendNotifier("re_test", "from@example.com")

	assert.Error(t, notifier.Send(context.Background(), scheduledSummary(), ""))
}

func TestFormatEmailHTML(t *testing.T) {
	out := formatEmailHTML(scheduledSummary(), time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "+25 XP")
	assert.Contains(t, out, "Prepare agenda")
	assert.Contains(t, out, "2025-03-15 at 14:00")
	assert.Contains(t, out, "Room 4")
	assert.Contains(t, out, "sam@example.com")
	assert.Contains(t, out, `href="https://calendar.example/e/1"`)
	assert.Contains(t, out, "Mar 14, 2025 9:00 AM")

	trivial := scheduledSummary()
	trivial.Subtasks = nil
	trivial.Details.Time = nil
	out = formatEmailHTML(trivial, time.Now())
	assert.Contains(t, out, "No subtasks needed")
	assert.Contains(t, out, "2025-03-15 (all day)")
}
