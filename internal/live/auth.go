package live

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// ErrAuthRejected is returned when the issuer refuses the credentials.
var ErrAuthRejected = errors.New("authentication rejected")

// TokenSource issues and refreshes bearer tokens.
type TokenSource interface {
	Issue(ctx context.Context) (Token, error)
	Refresh(ctx context.Context, refreshToken string) (Token, error)
}

// Ensure AuthClient implements TokenSource at compile time.
var _ TokenSource = (*AuthClient)(nil)

const (
	csrfHeader       = "X-CSRF-Token"
	defaultUserAgent = "glance/0.1"
	requestTimeout   = 10 * time.Second
)

// AuthClient talks to the token issuance and refresh endpoints. The session
// is carried by cookies; a CSRF token returned by the server is echoed on
// later calls.
type AuthClient struct {
	issueURL   *url.URL
	refreshURL *url.URL
	http       *http.Client
	userAgent  string

	mu   sync.Mutex
	csrf string
}

// AuthOptions configure an AuthClient.
type AuthOptions struct {
	IssueURL   string
	RefreshURL string // empty reuses IssueURL
	// SessionCookie is an optional "name=value" cookie seeded into the jar.
	SessionCookie string
	HTTPClient    *http.Client
}

// NewAuthClient builds a client for the given endpoints.
func NewAuthClient(opts AuthOptions) (*AuthClient, error) {
	issue, err := parseHTTPURL(opts.IssueURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}
	refresh := issue
	if strings.TrimSpace(opts.RefreshURL) != "" {
		refresh, err = parseHTTPURL(opts.RefreshURL)
		if err != nil {
			return nil, fmt.Errorf("parse refresh url: %w", err)
		}
	}

	client := opts.HTTPClient
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		client = &http.Client{Timeout: requestTimeout, Jar: jar}
	}
	if cookie := strings.TrimSpace(opts.SessionCookie); cookie != "" && client.Jar != nil {
		name, value, ok := strings.Cut(cookie, "=")
		if !ok {
			return nil, fmt.Errorf("session cookie must be name=value")
		}
		client.Jar.SetCookies(issue, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
		if refresh.Host != issue.Host {
			client.Jar.SetCookies(refresh, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
		}
	}

	return &AuthClient{
		issueURL:   issue,
		refreshURL: refresh,
		http:       client,
		userAgent:  defaultUserAgent,
	}, nil
}

type tokenResponse struct {
	Status       string `json:"status"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Message      string `json:"message"`
}

// Issue requests a new token pair using the session.
func (c *AuthClient) Issue(ctx context.Context) (Token, error) {
	if c == nil {
		return Token{}, fmt.Errorf("client is nil")
	}
	return c.post(ctx, c.issueURL, nil)
}

// Refresh trades a refresh token for a new access token.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	if c == nil {
		return Token{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"refresh_token": refreshToken}
	return c.post(ctx, c.refreshURL, body)
}

func (c *AuthClient) post(ctx context.Context, target *url.URL, payload any) (Token, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Token{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		return Token{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf := c.csrfToken(); csrf != "" {
		req.Header.Set(csrfHeader, csrf)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if csrf := strings.TrimSpace(resp.Header.Get(csrfHeader)); csrf != "" {
		c.setCSRF(csrf)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Token{}, fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	case resp.StatusCode >= 400:
		return Token{}, fmt.Errorf("auth %s returned status %d", target.Path, resp.StatusCode)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Token{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Status != "success" {
		msg := out.Message
		if msg == "" {
			msg = out.Status
		}
		return Token{}, fmt.Errorf("%w: %s", ErrAuthRejected, msg)
	}
	if out.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: empty access token", ErrAuthRejected)
	}
	return Token{
		Access:    out.AccessToken,
		Refresh:   out.RefreshToken,
		ExpiresIn: time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}

func (c *AuthClient) csrfToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrf
}

func (c *AuthClient) setCSRF(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrf = token
}

func parseHTTPURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	return u, nil
}
