package live

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type authServer struct {
	mu       sync.Mutex
	csrfSeen []string
	cookies  []string
	bodies   []string
}

func (s *authServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set(csrfHeader, "csrf-1")
		writeJSON(t, w, map[string]any{
			"status":        "success",
			"access_token":  "a1",
			"refresh_token": "r1",
			"expires_in":    120,
		})
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.record(r)
		if r.Header.Get(csrfHeader) != "csrf-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeJSON(t, w, map[string]any{
			"status":       "success",
			"access_token": "a2",
			"expires_in":   300,
		})
	})
	mux.HandleFunc("/denied", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"status": "error", "message": "session expired"})
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return mux
}

func (s *authServer) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrfSeen = append(s.csrfSeen, r.Header.Get(csrfHeader))
	if c, err := r.Cookie("session"); err == nil {
		s.cookies = append(s.cookies, c.Value)
	}
	body, _ := io.ReadAll(r.Body)
	s.bodies = append(s.bodies, string(body))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestAuthClientIssueAndRefresh(t *testing.T) {
	srv := &authServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	client, err := NewAuthClient(AuthOptions{
		IssueURL:      ts.URL + "/token",
		RefreshURL:    ts.URL + "/refresh",
		SessionCookie: "session=abc",
	})
	require.NoError(t, err)

	tok, err := client.Issue(context.Background())
	require.NoError(t, err)
	require.Equal(t, Token{Access: "a1", Refresh: "r1", ExpiresIn: 120 * time.Second}, tok)

	tok, err = client.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "a2", tok.Access)
	require.Empty(t, tok.Refresh)
	require.Equal(t, 300*time.Second, tok.ExpiresIn)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Equal(t, []string{"", "csrf-1"}, srv.csrfSeen)
	require.Equal(t, []string{"abc", "abc"}, srv.cookies)
	require.Empty(t, srv.bodies[0])
	require.JSONEq(t, `{"refresh_token":"r1"}`, srv.bodies[1])
}

func TestAuthClientRejections(t *testing.T) {
	srv := &authServer{}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	tests := []struct {
		name     string
		path     string
		cookie   string
		rejected bool
	}{
		{name: "missing session", path: "/token", rejected: true},
		{name: "error status", path: "/denied", cookie: "session=abc", rejected: true},
		{name: "server error", path: "/broken", cookie: "session=abc", rejected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewAuthClient(AuthOptions{IssueURL: ts.URL + tt.path, SessionCookie: tt.cookie})
			require.NoError(t, err)
			_, err = client.Issue(context.Background())
			require.Error(t, err)
			require.Equal(t, tt.rejected, errors.Is(err, ErrAuthRejected), "err = %v", err)
		})
	}
}

func TestNewAuthClientValidation(t *testing.T) {
	_, err := NewAuthClient(AuthOptions{})
	require.Error(t, err)
	_, err = NewAuthClient(AuthOptions{IssueURL: "ftp://host/token"})
	require.Error(t, err)
	_, err = NewAuthClient(AuthOptions{IssueURL: "host/token", SessionCookie: "novalue"})
	require.Error(t, err)

	client, err := NewAuthClient(AuthOptions{IssueURL: "example.com/token"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/token", client.issueURL.String())
	require.Same(t, client.issueURL, client.refreshURL)
}

func TestNilAuthClient(t *testing.T) {
	var c *AuthClient
	_, err := c.Issue(context.Background())
	require.Error(t, err)
	_, err = c.Refresh(context.Background(), "r")
	require.Error(t, err)
}
