package gcal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrNotAuthorized is returned when no token exists and no authorizer can obtain one.
var ErrNotAuthorized = errors.New("google calendar is not authorized")

// Authorizer obtains an authorization code for the given consent URL
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (string, error)
}

// ConsoleAuthorizer prints the consent URL and reads the code from In
type ConsoleAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

// Authorize implements Authorizer
func (a ConsoleAuthorizer) Authorize(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintf(a.Out, "Authorize Google Calendar access by visiting:\n\n  %s\n\nEnter the authorization code: ", authURL)

	type readResult struct {
		code string
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		line, err := bufio.NewReader(a.In).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			done <- readResult{err: fmt.Errorf("failed to read authorization code: %w", err)}
			return
		}
		done <- readResult{code: strings.TrimSpace(line)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if r.code == "" {
			return "", fmt.Errorf("empty authorization code")
		}
		return r.code, nil
	}
}

// CredentialStore owns the OAuth token for the calendar service. First-time
// authorization and refreshes are serialised; the token file is rewritten
// whenever a new token is obtained.
type CredentialStore struct {
	mu         sync.Mutex
	config     *oauth2.Config
	tokenFile  string
	token      *oauth2.Token
	authorizer Authorizer
	logger     *zap.Logger
}

// NewCredentialStore creates a store and loads an existing token file if present.
// authorizer may be nil, in which case Acquire fails with ErrNotAuthorized until
// a token exists.
func NewCredentialStore(config *oauth2.Config, tokenFile string, authorizer Authorizer, logger *zap.Logger) *CredentialStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CredentialStore{
		config:     config,
		tokenFile:  tokenFile,
		authorizer: authorizer,
		logger:     logger,
	}

	token, err := loadToken(tokenFile)
	switch {
	case err == nil:
		s.token = token
	case errors.Is(err, os.ErrNotExist):
	default:
		logger.Warn("ignoring unreadable token file", zap.String("path", tokenFile), zap.Error(err))
	}
	return s
}

// HasToken reports whether a token has been loaded or granted
func (s *CredentialStore) HasToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil
}

// Acquire returns a lease on a valid token, authorizing or refreshing first
// when needed. Callers must Release the lease when done.
func (s *CredentialStore) Acquire(ctx context.Context) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		if err := s.authorizeLocked(ctx); err != nil {
			return nil, err
		}
	}

	if !s.token.Valid() {
		if s.token.RefreshToken == "" {
			return nil, fmt.Errorf("%w: token expired and cannot be refreshed", ErrNotAuthorized)
		}
		if err := s.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	return &Lease{
		store:   s,
		initial: s.token,
		source: &recordingSource{
			src: s.config.TokenSource(context.WithoutCancel(ctx), s.token),
		},
	}, nil
}

// Refresh forces a new access token from the refresh token
func (s *CredentialStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.RefreshToken == "" {
		return ErrNotAuthorized
	}
	return s.refreshLocked(ctx)
}

func (s *CredentialStore) authorizeLocked(ctx context.Context) error {
	if s.authorizer == nil {
		return ErrNotAuthorized
	}

	authURL := s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	code, err := s.authorizer.Authorize(ctx, authURL)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	s.token = token
	s.persistLocked()
	s.logger.Info("google calendar authorized")
	return nil
}

func (s *CredentialStore) refreshLocked(ctx context.Context) error {
	// An expired copy makes the token source go to the token endpoint.
	stale := &oauth2.Token{RefreshToken: s.token.RefreshToken}
	token, err := s.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = s.token.RefreshToken
	}

	s.token = token
	s.persistLocked()
	s.logger.Debug("google calendar token refreshed")
	return nil
}

// remember stores a token refreshed while a lease was in use
func (s *CredentialStore) remember(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil && s.token.AccessToken == token.AccessToken {
		return
	}
	s.token = token
	s.persistLocked()
}

func (s *CredentialStore) persistLocked() {
	if err := saveToken(s.tokenFile, s.token); err != nil {
		s.logger.Warn("could not save token", zap.String("path", s.tokenFile), zap.Error(err))
	}
}

// Lease is a token in use by one caller
type Lease struct {
	store   *CredentialStore
	initial *oauth2.Token
	source  *recordingSource
	once    sync.Once
}

// HTTPClient returns an authorized client. Tokens refreshed through it are
// handed back to the store on Release.
func (l *Lease) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, l.source)
}

// Release returns the lease. It is safe to call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		if latest := l.source.latest(); latest != nil && latest.AccessToken != l.initial.AccessToken {
			l.store.remember(latest)
		}
	})
}

type recordingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	last *oauth2.Token
}

func (r *recordingSource) Token() (*oauth2.Token, error) {
	token, err := r.src.Token()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.last = token
	r.mu.Unlock()
	return token, nil
}

func (r *recordingSource) latest() *oauth2.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
