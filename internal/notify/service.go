package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/calendar"
)

// Service sends a summary email whenever a task lands on the calendar
type Service struct {
	emailNotifier Notifier
	recipient     string
	logger        *zap.Logger
}

// NewService creates a notification service. A nil notifier or empty
// recipient disables email.
func NewService(emailNotifier Notifier, recipient string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		emailNotifier: emailNotifier,
		recipient:     recipient,
		logger:        logger,
	}
}

// NotifyScheduled emails the summary when its event was scheduled. Errors are
// logged but don't fail the operation.
func (s *Service) NotifyScheduled(ctx context.Context, summary *agent.WorkflowSummary) {
	if summary == nil || summary.Outcome.Kind != calendar.OutcomeScheduled {
		return
	}
	if !s.IsEmailAvailable() {
		return
	}

	if err := s.emailNotifier.Send(ctx, summary, s.recipient); err != nil {
		s.logger.Warn("email notification failed",
			zap.String("notifier", s.emailNotifier.Name()),
			zap.Error(err))
		return
	}
	s.logger.Info("email notification sent",
		zap.String("notifier", s.emailNotifier.Name()),
		zap.String("recipient", s.recipient))
}

// IsEmailAvailable returns true if email notifications can be used
func (s *Service) IsEmailAvailable() bool {
	return s.emailNotifier != nil && s.emailNotifier.IsConfigured() && s.recipient != ""
}
