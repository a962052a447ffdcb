package usage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticCreds struct {
	creds Credentials
	err   error
}

func (s staticCreds) Load() (Credentials, error) { return s.creds, s.err }

func TestOAuthSourceSendsTokenAndReturnsBody(t *testing.T) {
	const body = `{"five_hour":{"utilization":12,"resets_at":"2026-03-14T14:00:00Z"},"seven_day":null}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("anthropic-beta"); got != "oauth-2025-04-20" {
			t.Errorf("unexpected beta header %q", got)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	s := NewOAuthSourceWith(srv.URL, staticCreds{creds: Credentials{AccessToken: "tok-123"}})
	defer s.Close()

	out, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != body {
		t.Fatalf("body should pass through verbatim, got %s", out)
	}
}

func TestOAuthSourceRejectedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"type":"authentication_error"}}`, status)
		}))

		s := NewOAuthSourceWith(srv.URL, staticCreds{creds: Credentials{AccessToken: "old"}})
		_, err := s.Fetch(context.Background())
		srv.Close()

		if !errors.Is(err, ErrRejected) {
			t.Fatalf("HTTP %d: expected ErrRejected, got %v", status, err)
		}
		if !IsAuthFailure(err) {
			t.Fatalf("HTTP %d: expected auth failure", status)
		}
	}
}

func TestOAuthSourceServerErrorIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewOAuthSourceWith(srv.URL, staticCreds{creds: Credentials{AccessToken: "tok"}})
	_, err := s.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsAuthFailure(err) {
		t.Fatalf("5xx must not look like an auth failure: %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 503") || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected status and body in error: %v", err)
	}
}

func TestOAuthSourceMissingCredentials(t *testing.T) {
	s := NewOAuthSourceWith("http://127.0.0.1:1", staticCreds{err: ErrNoCredentials})
	_, err := s.Fetch(context.Background())
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestOAuthSourceCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewOAuthSourceWith(srv.URL, staticCreds{creds: Credentials{AccessToken: "tok"}})
	if _, err := s.Fetch(ctx); err == nil || IsAuthFailure(err) {
		t.Fatalf("expected transport error for canceled context, got %v", err)
	}
}

func TestOAuthSourceDeadlineComesFromContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewOAuthSourceWith(srv.URL, staticCreds{creds: Credentials{AccessToken: "tok"}})
	defer s.Close()
	if s.httpClient.Timeout != 0 {
		t.Fatalf("client should not carry its own timeout, got %s", s.httpClient.Timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := s.Fetch(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the context deadline to end the request, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("request outlived its deadline: %s", elapsed)
	}
}

func TestSummarizeBodyTruncates(t *testing.T) {
	long := strings.Repeat("x", 400)
	got := summarizeBody([]byte(long))
	if len(got) != 183 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected summary length %d", len(got))
	}
}
