package notify

import (
	"context"

	"github.com/omriShneor/taskquest/internal/agent"
)

// Notifier delivers a workflow summary to a specific recipient
type Notifier interface {
	// Send sends the summary to the specified recipient
	Send(ctx context.Context, summary *agent.WorkflowSummary, recipient string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}
