package gcal

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar API client
type Client struct {
	credentials *CredentialStore
	options     []option.ClientOption
}

// NewClient creates a calendar client that authenticates through the store.
// Extra options are appended when the service is built (tests point the
// endpoint at a local server).
func NewClient(credentials *CredentialStore, opts ...option.ClientOption) *Client {
	return &Client{credentials: credentials, options: opts}
}

// IsAuthenticated returns true if a token is available
func (c *Client) IsAuthenticated() bool {
	return c.credentials != nil && c.credentials.HasToken()
}

// service builds a Calendar service bound to a freshly acquired lease. The
// returned func releases the lease.
func (c *Client) service(ctx context.Context) (*calendar.Service, func(), error) {
	if c.credentials == nil {
		return nil, nil, ErrNotAuthorized
	}

	lease, err := c.credentials.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(lease.HTTPClient(ctx))}, c.options...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		lease.Release()
		return nil, nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, lease.Release, nil
}
