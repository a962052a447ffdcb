package usage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	claudeUsageEndpoint = "https://api.anthropic.com/api/oauth/usage"
	oauthBetaHeader     = "oauth-2025-04-20"
	userAgent           = "claude-code-meter/0.1"
)

type credentialLoader interface {
	Load() (Credentials, error)
}

// OAuthSource asks the Claude usage endpoint directly with the token Claude
// Code stored at login.
type OAuthSource struct {
	httpClient *http.Client
	endpoint   string
	creds      credentialLoader
}

func NewOAuthSource() *OAuthSource {
	return NewOAuthSourceWith(claudeUsageEndpoint, NewCredentialStore())
}

// NewOAuthSourceWith points the source at another endpoint and credential
// store. Requests are bounded only by the context passed to Fetch.
func NewOAuthSourceWith(endpoint string, creds credentialLoader) *OAuthSource {
	return &OAuthSource{
		httpClient: &http.Client{},
		endpoint:   strings.TrimSpace(endpoint),
		creds:      creds,
	}
}

func (s *OAuthSource) Name() string {
	return "oauth"
}

func (s *OAuthSource) Fetch(ctx context.Context) ([]byte, error) {
	creds, err := s.creds.Load()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("anthropic-beta", oauthBetaHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1_000_000))
	if err != nil {
		return nil, fmt.Errorf("read usage response: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRejected, res.StatusCode, summarizeBody(body))
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("usage endpoint returned HTTP %d: %s", res.StatusCode, summarizeBody(body))
	}
	return body, nil
}

func (s *OAuthSource) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func summarizeBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
