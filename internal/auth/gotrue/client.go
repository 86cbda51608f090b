// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package gotrue implements auth.IdentityProvider against a
// GoTrue-compatible REST API (Supabase Auth and friends).
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 10 * time.Second

// Config configures the GoTrue client.
type Config struct {
	// BaseURL is the auth API root, e.g. "https://xyz.supabase.co/auth/v1".
	BaseURL string

	// APIKey is sent in the apikey header on every request.
	APIKey string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client talks to a GoTrue-compatible identity API. It is stateless:
// tokens live with the caller.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client from config.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, oops.Code("IDP_CONFIG_INVALID").Errorf("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, oops.Code("IDP_CONFIG_INVALID").
			With("base_url", cfg.BaseURL).
			Wrap(err)
	}
	if cfg.APIKey == "" {
		return nil, oops.Code("IDP_CONFIG_INVALID").Errorf("API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// apiError carries the provider's failure text verbatim so the
// classifier can match on it. Status is kept for diagnostics only.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string { return e.Message }

// errorBody is the union of error shapes GoTrue has shipped over time.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// text returns the most specific non-empty field.
func (b errorBody) text() string {
	for _, s := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// userPayload is the wire form of a GoTrue user.
type userPayload struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u userPayload) domain() *auth.User {
	return &auth.User{
		ID:               u.ID,
		Email:            u.Email,
		EmailConfirmedAt: u.EmailConfirmedAt,
		CreatedAt:        u.CreatedAt,
	}
}

// sessionPayload is the wire form of a GoTrue session. Sign-up responses
// reuse this shape but leave the token fields empty (and inline the user
// at the top level) when email confirmation is pending.
type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	User         userPayload `json:"user"`

	// Inline user fields for the confirmation-pending sign-up shape.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p sessionPayload) domain(now time.Time) *auth.Session {
	return &auth.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresAt:    now.Add(time.Duration(p.ExpiresIn) * time.Second),
		User:         *p.User.domain(),
	}
}

// SignUp registers a new email/password identity. Returns a nil session
// when the provider requires email confirmation before sign-in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	body, err := c.post(ctx, "/signup", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, oops.Code("IDP_DECODE_FAILED").
			With("operation", "sign up").
			Wrap(err)
	}

	if payload.AccessToken == "" {
		// Confirmation pending: the provider returned a bare user.
		return nil, nil
	}
	return payload.domain(time.Now()), nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	body, err := c.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, oops.Code("IDP_DECODE_FAILED").
			With("operation", "password sign in").
			Wrap(err)
	}
	return payload.domain(time.Now()), nil
}

// SignInWithOAuth constructs the authorization redirect URL for the
// named OAuth provider. No request is made; the browser drives the flow.
func (c *Client) SignInWithOAuth(_ context.Context, provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", oops.Code("IDP_OAUTH_INVALID").Errorf("OAuth provider name is required")
	}

	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/authorize?" + q.Encode(), nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.post(ctx, "/logout", nil, accessToken)
	return err
}

// GetUser fetches the identity behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*auth.User, error) {
	body, err := c.get(ctx, "/user", accessToken)
	if err != nil {
		return nil, err
	}

	var payload userPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, oops.Code("IDP_DECODE_FAILED").
			With("operation", "get user").
			Wrap(err)
	}
	return payload.domain(), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, bearer string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, oops.Code("IDP_ENCODE_FAILED").Wrap(err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, oops.Code("IDP_REQUEST_INVALID").With("path", path).Wrap(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, bearer)
}

func (c *Client) get(ctx context.Context, path, bearer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, oops.Code("IDP_REQUEST_INVALID").With("path", path).Wrap(err)
	}
	return c.do(req, bearer)
}

// do executes the request and returns the response body, converting
// non-2xx responses into apiError with the provider's failure text.
// Transport errors pass through oops-wrapped with their cause chain
// intact so transient-network detection can unwrap them.
func (c *Client) do(req *http.Request, bearer string) ([]byte, error) {
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oops.Code("IDP_UNREACHABLE").
			With("path", req.URL.Path).
			Wrap(err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error here
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, oops.Code("IDP_READ_FAILED").
			With("path", req.URL.Path).
			Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb) //nolint:errcheck // fall back to raw body below
		msg := eb.text()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, &apiError{Status: resp.StatusCode, Message: msg}
	}

	return body, nil
}
