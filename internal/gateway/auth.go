package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/TOTORON9625/DevTodo/internal/model"
	"github.com/TOTORON9625/DevTodo/internal/offline"
)

// SignUpResult is the outcome of a sign-up. When NeedsConfirmation is set
// the account exists but no session was issued until the email address is
// confirmed.
type SignUpResult struct {
	User              *model.User
	Session           *model.Session
	NeedsConfirmation bool
}

// authResponse covers the token, user and error shapes of the auth endpoint.
type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`

	// Present when sign-up answers with the bare user object.
	ID    string `json:"id"`
	Email string `json:"email"`

	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            json.RawMessage `json:"error"`
}

// message picks the most specific server-provided reason.
func (r *authResponse) message() string {
	if r.ErrorDescription != "" {
		return r.ErrorDescription
	}
	if r.Msg != "" {
		return r.Msg
	}
	if len(r.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(r.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var s string
		if json.Unmarshal(r.Error, &s) == nil && s != "" {
			return s
		}
	}
	return r.Message
}

func (r *authResponse) user() *model.User {
	if r.User != nil {
		return r.User
	}
	if r.ID != "" {
		return &model.User{ID: r.ID, Email: r.Email}
	}
	return nil
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// User returns the signed-in user, or nil.
func (c *Client) User() *model.User {
	s := c.Session()
	if !s.Valid() {
		return nil
	}
	return s.User
}

// IsAuthenticated reports whether a usable session is held.
func (c *Client) IsAuthenticated() bool {
	return c.Session().Valid()
}

// Restore loads the persisted session, if any, into the client.
func (c *Client) Restore() (*model.Session, error) {
	s, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	resp, err := c.authCall(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return nil, err
	}

	user := resp.user()
	if resp.AccessToken == "" {
		if user == nil {
			return nil, &AuthFailedError{Message: "sign-up response carried neither a session nor a user"}
		}
		return &SignUpResult{User: user, NeedsConfirmation: true}, nil
	}

	session := &model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         user,
	}
	if err := c.setSession(session); err != nil {
		return nil, err
	}
	return &SignUpResult{User: user, Session: session}, nil
}

// SignIn exchanges email and password for a session and persists it.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	resp, err := c.authCall(ctx, "/auth/v1/token?grant_type=password", email, password)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.user(),
	}
	if !session.Valid() {
		return nil, &AuthFailedError{Message: "token response did not include a session"}
	}
	if err := c.setSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut invalidates the server-side session on a best-effort basis, then
// clears the local and persisted session regardless of the outcome.
func (c *Client) SignOut(ctx context.Context) error {
	if s := c.Session(); s != nil && s.AccessToken != "" {
		if err := c.logout(ctx, s.AccessToken); err != nil {
			log.Printf("logout request failed: %v", err)
		}
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if err := c.sessions.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (c *Client) setSession(s *model.Session) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	if err := c.sessions.Save(s); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

func (c *Client) logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if offline.IsOfflineResponse(resp) {
		return &OfflineError{Method: http.MethodPost, URL: req.URL.String()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// authCall posts {email, password} to an auth path and decodes the reply.
func (c *Client) authCall(ctx context.Context, path, email, password string) (*authResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &AuthFailedError{Message: "email and password are required"}
	}

	data, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshaling credentials: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request POST %s: %w", path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response body: %w", readErr)
	}

	if offline.IsOfflineResponse(resp) {
		return nil, &OfflineError{Method: http.MethodPost, URL: url}
	}

	var out authResponse
	decodeErr := json.Unmarshal(respBody, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = out.message()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &AuthFailedError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshaling response from POST %s: %w", path, decodeErr)
	}
	return &out, nil
}
