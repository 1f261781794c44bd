package gcal

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// consoleRedirectURL makes Google show the authorization code to the user
// instead of redirecting to a local callback.
const consoleRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// OAuthScopes contains only the Calendar scope
var OAuthScopes = []string{
	calendar.CalendarScope,
}

// LoadOAuthConfig loads the OAuth2 client configuration from GOOGLE_CREDENTIALS_JSON
// or, failing that, from the credentials file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	// Environment variable first (useful for container deployments)
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS_JSON"); credJSON != "" {
		config, err := configFromJSON([]byte(credJSON))
		if err == nil {
			return config, nil
		}
	}

	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return configFromJSON(data)
	}

	return nil, fmt.Errorf("no credentials found - please provide credentials.json or set GOOGLE_CREDENTIALS_JSON env var")
}

// configFromJSON parses a Google client secrets file. The redirect is always the
// console flow, whatever redirect_uris the file lists, since ConsoleAuthorizer
// reads the code from the terminal.
func configFromJSON(data []byte) (*oauth2.Config, error) {
	data, err := withConsoleRedirect(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(data, OAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	config.RedirectURL = consoleRedirectURL
	return config, nil
}

// withConsoleRedirect rewrites redirect_uris in the "installed" or "web" section.
// google.ConfigFromJSON rejects files without one.
func withConsoleRedirect(data []byte) ([]byte, error) {
	var file map[string]map[string]any
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	for _, key := range []string{"installed", "web"} {
		if section, ok := file[key]; ok && section != nil {
			section["redirect_uris"] = []string{consoleRedirectURL}
		}
	}
	return json.Marshal(file)
}
