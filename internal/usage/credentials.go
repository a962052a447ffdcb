package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const keychainService = "Claude Code-credentials"

// Credentials is the OAuth token Claude Code stored after login.
type Credentials struct {
	AccessToken string
	ExpiresAt   time.Time
	// Origin names where the token was found.
	Origin string
}

// Expired reports whether the token's recorded expiry is before now. A
// token without an expiry never counts as expired.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type credentialsFile struct {
	ClaudeAiOauth *struct {
		AccessToken string `json:"accessToken"`
		ExpiresAt   int64  `json:"expiresAt"`
	} `json:"claudeAiOauth"`
}

// CredentialStore looks up the token in the macOS keychain first and then
// in Claude Code's credentials file.
type CredentialStore struct {
	readKeychain func(service string) (string, error)
	path         string
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		readKeychain: readKeychainPassword,
		path:         defaultCredentialsPath(),
	}
}

// NewFileCredentialStore reads only the given credentials file.
func NewFileCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

func (s *CredentialStore) Path() string { return s.path }

func (s *CredentialStore) Load() (Credentials, error) {
	var problems []string

	if s.readKeychain != nil {
		raw, err := s.readKeychain(keychainService)
		if err == nil {
			creds, parseErr := parseCredentials([]byte(raw), "keychain")
			if parseErr == nil {
				return creds, nil
			}
			problems = append(problems, parseErr.Error())
		} else {
			problems = append(problems, fmt.Sprintf("keychain: %v", err))
		}
	}

	if strings.TrimSpace(s.path) != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case err == nil:
			creds, parseErr := parseCredentials(data, s.path)
			if parseErr == nil {
				return creds, nil
			}
			problems = append(problems, parseErr.Error())
		case errors.Is(err, os.ErrNotExist):
			problems = append(problems, fmt.Sprintf("%s not found", s.path))
		default:
			problems = append(problems, fmt.Sprintf("read %s: %v", s.path, err))
		}
	}

	if len(problems) == 0 {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials{}, fmt.Errorf("%w (%s)", ErrNoCredentials, strings.Join(problems, "; "))
}

func parseCredentials(data []byte, origin string) (Credentials, error) {
	var payload credentialsFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return Credentials{}, fmt.Errorf("decode %s credentials: %w", origin, err)
	}
	if payload.ClaudeAiOauth == nil {
		return Credentials{}, fmt.Errorf("%s credentials missing claudeAiOauth", origin)
	}
	token := strings.TrimSpace(payload.ClaudeAiOauth.AccessToken)
	if token == "" {
		return Credentials{}, fmt.Errorf("%s credentials missing claudeAiOauth.accessToken", origin)
	}
	creds := Credentials{AccessToken: token, Origin: origin}
	if payload.ClaudeAiOauth.ExpiresAt > 0 {
		creds.ExpiresAt = time.UnixMilli(payload.ClaudeAiOauth.ExpiresAt)
	}
	return creds, nil
}

// defaultCredentialsPath honors CLAUDE_CONFIG_DIR the way Claude Code does.
func defaultCredentialsPath() string {
	if dir := strings.TrimSpace(os.Getenv("CLAUDE_CONFIG_DIR")); dir != "" {
		return filepath.Join(dir, ".credentials.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}
