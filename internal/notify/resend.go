package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/omriShneor/taskquest/internal/agent"
)

// ResendNotifier sends email notifications via Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a new Resend email notifier
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
	}
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

// Send emails the quest summary for a scheduled task
func (r *ResendNotifier) Send(ctx context.Context, summary *agent.WorkflowSummary, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{recipient},
		Subject: fmt.Sprintf("Quest scheduled: %s (+%d XP)", summary.Task, summary.TotalXP),
		Html:    formatEmailHTML(summary, time.Now()),
		Text:    summary.Render(),
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend"
}

// formatEmailHTML creates the HTML email body
func formatEmailHTML(summary *agent.WorkflowSummary, sentAt time.Time) string {
	var subtasks strings.Builder
	if len(summary.Subtasks) == 0 {
		subtasks.WriteString(`<p style="margin: 8px 0;">No subtasks needed for this one.</p>`)
	} else {
		subtasks.WriteString(`<ol style="margin: 8px 0; padding-left: 20px;">`)
		for _, st := range summary.Subtasks {
			fmt.Fprintf(&subtasks, `<li style="margin: 4px 0;">%s <span style="color: #28a745; font-weight: 600;">+%d XP</span></li>`,
				html.EscapeString(st.Description), st.XP)
		}
		subtasks.WriteString(`</ol>`)
	}

	var details strings.Builder
	d := summary.Details
	if d.Date != nil {
		when := *d.Date
		if d.Time != nil {
			when += " at " + *d.Time
		} else {
			when += " (all day)"
		}
		fmt.Fprintf(&details, `<p style="margin: 8px 0;"><strong>When:</strong> %s</p>`, html.EscapeString(when))
	}
	if d.Location != nil {
		fmt.Fprintf(&details, `<p style="margin: 8px 0;"><strong>Location:</strong> %s</p>`, html.EscapeString(*d.Location))
	}
	if len(d.Attendees) > 0 {
		fmt.Fprintf(&details, `<p style="margin: 8px 0;"><strong>Attendees:</strong> %s</p>`, html.EscapeString(strings.Join(d.Attendees, ", ")))
	}

	button := ""
	if summary.Outcome.Link != "" {
		button = fmt.Sprintf(`<a href="%s" style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 16px; font-weight: 500;">
      Open in Calendar
    </a>`, html.EscapeString(summary.Outcome.Link))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <div style="margin-bottom: 16px;">
      <span style="background-color: #28a745; color: white; padding: 4px 12px; border-radius: 4px; font-size: 12px; font-weight: 600;">+%d XP</span>
    </div>

    <h2 style="margin: 0 0 16px 0; color: #333;">%s</h2>

    %s

    <div style="background: #f8f9fa; padding: 16px; border-radius: 8px; margin: 16px 0; border-left: 4px solid #007bff;">
      %s
    </div>

    %s

    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">
      TaskQuest<br>
      <span style="color: #ccc;">Sent at %s</span>
    </p>
  </div>
</body>
</html>`,
		summary.TotalXP,
		html.EscapeString(summary.Task),
		subtasks.String(),
		details.String(),
		button,
		sentAt.Format("Jan 2, 2006 3:04 PM"),
	)
}
