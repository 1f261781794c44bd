package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAuthorizer struct {
	calls atomic.Int32
	code  string
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, authURL string) (string, error) {
	f.calls.Add(1)
	return f.code, nil
}

// newTokenServer serves an OAuth token endpoint that hands out access-N tokens.
func newTokenServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var issued atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		n := issued.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("access-%d", n),
			"token_type":    "Bearer",
			"refresh_token": "refresh-token",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &issued
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  consoleRedirectURL,
		Scopes:       OAuthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example/auth",
			TokenURL: tokenURL,
		},
	}
}

func newTestStore(t *testing.T, tokenURL string, token *oauth2.Token, authorizer Authorizer) *CredentialStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	if token != nil {
		require.NoError(t, saveToken(path, token))
	}
	return NewCredentialStore(testConfig(tokenURL), path, authorizer, nil)
}

func readTokenFile(t *testing.T, s *CredentialStore) *oauth2.Token {
	t.Helper()
	token, err := loadToken(s.tokenFile)
	require.NoError(t, err)
	return token
}

func TestAcquire_NoTokenNoAuthorizer(t *testing.T) {
	store := newTestStore(t, "http://unused", nil, nil)

	_, err := store.Acquire(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.False(t, store.HasToken())
}

func TestAcquire_FirstTimeAuthorizationIsSerialised(t *testing.T) {
	srv, issued := newTokenServer(t)
	authorizer := &fakeAuthorizer{code: "auth-code"}
	store := newTestStore(t, srv.URL, nil, authorizer)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := store.Acquire(context.Background())
			if assert.NoError(t, err) {
				lease.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), authorizer.calls.Load())
	assert.Equal(t, int32(1), issued.Load())
	assert.Equal(t, "access-1", readTokenFile(t, store).AccessToken)
}

func TestAcquire_RefreshesExpiredToken(t *testing.T) {
	srv, issued := newTokenServer(t)
	store := newTestStore(t, srv.URL, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(-time.Hour),
	}, nil)

	lease, err := store.Acquire(context.Background())
	require.NoError(t, err)
	defer lease.Release()

	assert.Equal(t, int32(1), issued.Load())
	saved := readTokenFile(t, store)
	assert.Equal(t, "access-1", saved.AccessToken)
	assert.Equal(t, "refresh-token", saved.RefreshToken)
}

func TestAcquire_ExpiredWithoutRefreshToken(t *testing.T) {
	store := newTestStore(t, "http://unused", &oauth2.Token{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}, nil)

	_, err := store.Acquire(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRefresh(t *testing.T) {
	srv, issued := newTokenServer(t)
	store := newTestStore(t, srv.URL, &oauth2.Token{
		AccessToken:  "still-valid",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}, nil)

	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, store.Refresh(context.Background()))

	assert.Equal(t, int32(2), issued.Load())
	assert.Equal(t, "access-2", readTokenFile(t, store).AccessToken)
}

func TestRefresh_NoToken(t *testing.T) {
	store := newTestStore(t, "http://unused", nil, nil)

	assert.ErrorIs(t, store.Refresh(context.Background()), ErrNotAuthorized)
}

func TestLease_ReleaseIsIdempotent(t *testing.T) {
	store := newTestStore(t, "http://unused", &oauth2.Token{
		AccessToken: "valid",
		Expiry:      time.Now().Add(time.Hour),
	}, nil)

	lease, err := store.Acquire(context.Background())
	require.NoError(t, err)

	lease.Release()
	lease.Release()
	assert.Equal(t, "valid", readTokenFile(t, store).AccessToken)
}

func TestNewCredentialStore_IgnoresCorruptTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := NewCredentialStore(testConfig("http://unused"), path, nil, nil)

	assert.False(t, store.HasToken())
}

func TestConsoleAuthorizer(t *testing.T) {
	var out bytes.Buffer
	a := ConsoleAuthorizer{In: strings.NewReader("  4/abc-code \n"), Out: &out}

	code, err := a.Authorize(context.Background(), "https://accounts.example/auth?x=1")

	require.NoError(t, err)
	assert.Equal(t, "4/abc-code", code)
	assert.Contains(t, out.String(), "https://accounts.example/auth?x=1")
}

func TestConsoleAuthorizer_EmptyInput(t *testing.T) {
	a := ConsoleAuthorizer{In: strings.NewReader(""), Out: &bytes.Buffer{}}

	_, err := a.Authorize(context.Background(), "https://accounts.example/auth")

	assert.Error(t, err)
}

func TestLoadOAuthConfig(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {
		"client_id": "cid",
		"client_secret": "secret",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token"
	}}`), 0o600))

	config, err := LoadOAuthConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "cid", config.ClientID)
	assert.Equal(t, consoleRedirectURL, config.RedirectURL)
	assert.Equal(t, OAuthScopes, config.Scopes)

	_, err = LoadOAuthConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadOAuthConfig_OverridesLocalhostRedirect(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", `{"installed": {
		"client_id": "cid",
		"client_secret": "secret",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"redirect_uris": ["http://localhost"]
	}}`)

	config, err := LoadOAuthConfig("")

	require.NoError(t, err)
	assert.Equal(t, "cid", config.ClientID)
	assert.Equal(t, consoleRedirectURL, config.RedirectURL)
	assert.Contains(t, config.AuthCodeURL("state"), "redirect_uri=urn%3Aietf%3Awg%3Aoauth%3A2.0%3Aoob")
}

func TestLoadOAuthConfig_Malformed(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "")
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))

	_, err := LoadOAuthConfig(path)

	assert.ErrorContains(t, err, "failed to parse credentials")
}
