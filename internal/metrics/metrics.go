package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completion service latency (seconds)
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskquest_completion_duration_seconds",
			Help:    "Completion service call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"status"},
	)

	// Workflow runs by terminal state
	WorkflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskquest_workflow_runs_total",
			Help: "Total number of workflow runs by terminal state",
		},
		[]string{"state"},
	)

	// XP awarded across all runs
	XPAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskquest_xp_awarded_total",
			Help: "Total XP awarded by the workflow",
		},
	)

	// Calendar service submissions by outcome
	CalendarRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskquest_calendar_requests_total",
			Help: "Calendar event submissions by outcome",
		},
		[]string{"outcome"},
	)

	// Events created by the remote calendar service
	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskquest_calendar_events_created_total",
			Help: "Events inserted into Google Calendar by status",
		},
		[]string{"status"},
	)
)
