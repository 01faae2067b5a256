package authsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"drn/internal/config"
	"drn/internal/services"
)

// User identifies an authenticated journalist.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// State describes an auth-state change delivered to subscribers.
type State struct {
	SignedIn bool
	User     User
}

// Service resolves the current session and publishes auth-state changes.
type Service interface {
	// CurrentUser returns the session's user, or an error wrapping
	// services.ErrAuthorization when no session is resolved.
	CurrentUser(ctx context.Context) (User, error)
	// Subscribe registers a callback for auth-state changes and returns an
	// unsubscribe function.
	Subscribe(fn func(State)) (unsubscribe func())
	// SignOut clears the session.
	SignOut(ctx context.Context) error
}

// HTTPDoer describes the HTTP client used by the auth service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewService builds an auth client from configuration. Without a configured
// service URL every session lookup fails with an authorization error, which
// keeps read-only deployments working while publish paths refuse to run.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Auth.ServiceURL) == "" {
		return &httpService{}
	}
	timeout := time.Duration(cfg.Auth.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpService{
		baseURL: strings.TrimRight(cfg.Auth.ServiceURL, "/"),
		token:   cfg.Auth.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewHTTPService constructs an HTTP-backed auth client for tests.
func NewHTTPService(baseURL, token string, client HTTPDoer) Service {
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		client:  client,
	}
}

type httpService struct {
	baseURL string
	token   string
	client  HTTPDoer

	mu   sync.Mutex
	subs map[int]func(State)
	next int
}

func (s *httpService) CurrentUser(ctx context.Context) (User, error) {
	if s.baseURL == "" || s.client == nil {
		return User{}, services.Wrap(services.ErrAuthorization, "auth", "session", "no auth service configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/session", nil)
	if err != nil {
		return User{}, fmt.Errorf("build session request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return User{}, services.Wrap(services.ErrTransient, "auth", "session", "lookup failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return User{}, services.Wrap(services.ErrAuthorization, "auth", "session", "not signed in", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return User{}, services.Wrap(services.ErrTransient, "auth", "session", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode session response: %w", err)
	}
	if user.ID == "" {
		return User{}, services.Wrap(services.ErrAuthorization, "auth", "session", "session has no user", nil)
	}

	s.notify(State{SignedIn: true, User: user})
	return user, nil
}

func (s *httpService) SignOut(ctx context.Context) error {
	if s.baseURL == "" || s.client == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/signout", nil)
	if err != nil {
		return fmt.Errorf("build signout request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "auth", "signout", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrTransient, "auth", "signout", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	s.notify(State{})
	return nil
}

func (s *httpService) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(State))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *httpService) notify(state State) {
	s.mu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}

// Static returns a Service that always resolves the given user. Tests use it
// to exercise authenticated paths without an auth server.
func Static(user User) Service {
	return staticService{user: user}
}

// Anonymous returns a Service that never resolves a user.
func Anonymous() Service {
	return staticService{}
}

type staticService struct {
	user User
}

func (s staticService) CurrentUser(context.Context) (User, error) {
	if s.user.ID == "" {
		return User{}, services.Wrap(services.ErrAuthorization, "auth", "session", "not signed in", nil)
	}
	return s.user, nil
}

func (s staticService) SignOut(context.Context) error { return nil }

func (s staticService) Subscribe(func(State)) func() { return func() {} }
