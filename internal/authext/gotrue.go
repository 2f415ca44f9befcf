package authext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoTrueClient talks to a GoTrue-compatible auth endpoint (the auth half of
// the hosted backend). Only the handful of operations the binder needs are
// implemented.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGoTrueClient(baseURL, apiKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient overrides the underlying http.Client (tests).
func (c *GoTrueClient) WithHTTPClient(h *http.Client) *GoTrueClient {
	c.http = h
	return c
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`

	// confirmation-required signups reply with the bare user object
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var out tokenResponse
	err := c.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "", &out)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(out), nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password string, data SignUpData) (*Session, error) {
	var out tokenResponse
	err := c.post(ctx, "/signup", map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"full_name": data.FullName,
			"role":      data.Role,
		},
	}, "", &out)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(out), nil
}

func (c *GoTrueClient) AuthorizeURL(provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/authorize?" + q.Encode()
}

func (c *GoTrueClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/recover", map[string]string{"email": email}, "", nil)
}

func (c *GoTrueClient) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return c.put(ctx, "/user", map[string]string{"password": newPassword}, accessToken, nil)
}

func (c *GoTrueClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var out tokenResponse
	err := c.post(ctx, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, "", &out)
	if err != nil {
		return nil, err
	}
	return sessionFromToken(out), nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/logout", nil, accessToken, nil)
}

func sessionFromToken(t tokenResponse) *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresAt:    time.Now().Add(time.Duration(t.ExpiresIn) * time.Second),
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}
	if s.UserID == "" {
		s.UserID = t.ID
		s.Email = t.Email
	}
	return s
}

func (c *GoTrueClient) post(ctx context.Context, path string, body any, bearer string, out any) error {
	return c.do(ctx, http.MethodPost, path, body, bearer, out)
}

func (c *GoTrueClient) put(ctx context.Context, path string, body any, bearer string, out any) error {
	return c.do(ctx, http.MethodPut, path, body, bearer, out)
}

func (c *GoTrueClient) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return &AuthError{Kind: KindUnknown, Message: "encode request", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return &AuthError{Kind: KindUnknown, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &AuthError{Kind: KindNetwork, Message: "auth service unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return classify(resp.StatusCode, er)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &AuthError{Kind: KindNetwork, Message: "decode response", Err: err}
		}
	}
	return nil
}

// classify maps a GoTrue error reply onto the error taxonomy.
func classify(status int, er errorResponse) *AuthError {
	msg := er.text()
	lower := strings.ToLower(msg)

	kind := KindUnknown
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case strings.Contains(lower, "email not confirmed"):
		kind = KindEmailNotConfirmed
	case strings.Contains(lower, "already registered") || strings.Contains(lower, "already exists"):
		kind = KindDuplicateAccount
	case strings.Contains(lower, "password") && (strings.Contains(lower, "weak") || strings.Contains(lower, "at least")):
		kind = KindWeakPassword
	case er.Error == "invalid_grant" || strings.Contains(lower, "invalid login credentials"):
		kind = KindInvalidCredentials
	case status == http.StatusUnauthorized || status == http.StatusBadRequest:
		kind = KindInvalidCredentials
	}

	if msg == "" {
		msg = fmt.Sprintf("auth service returned %d", status)
	}
	return &AuthError{Kind: kind, Status: status, Message: msg}
}
