// Package auth integrates with the hosted auth backend and validates its
// JWTs for API requests.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/camp-network/marketplace/internal/httputil"
	"github.com/camp-network/marketplace/pkg/logger"
)

// User is an account on the auth backend.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Role         string         `json:"role"`
	Aud          string         `json:"aud"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Session is the token bundle returned by sign-in and sign-up.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// WalletLinker merge-patches a wallet address onto a user's profile
// document. The docstore-backed store satisfies it.
type WalletLinker interface {
	MergeWalletAddress(ctx context.Context, userID, address string) error
}

// StateHandler observes auth state changes; user is nil after sign-out.
type StateHandler func(user *User)

// Config holds auth backend settings.
type Config struct {
	URL       string
	APIKey    string
	JWTSecret string
}

// Service is a thin pass-through to the auth backend. Calls are
// single-attempt; backend failures are returned as-is.
type Service struct {
	cfg        Config
	httpClient *http.Client
	linker     WalletLinker
	log        *logger.Logger

	mu       sync.Mutex
	handlers map[int]StateHandler
	nextID   int
}

// NewService creates the auth service. linker may be nil when wallet
// linking is disabled.
func NewService(cfg Config, linker WalletLinker, log *logger.Logger) (*Service, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("auth URL is required")
	}
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		linker:     linker,
		log:        log,
		handlers:   make(map[int]StateHandler),
	}, nil
}

// SignInWithEmail exchanges email/password credentials for a session.
func (s *Service) SignInWithEmail(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.tokenRequest(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	s.notify(session.User)
	return session, nil
}

// SignUpWithEmail registers a new account.
func (s *Service) SignUpWithEmail(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.tokenRequest(ctx, "/auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	s.notify(session.User)
	return session, nil
}

// OAuthURL returns the URL a client must visit to complete an OAuth
// sign-in with the given provider.
func (s *Service) OAuthURL(provider, redirectTo string) string {
	u := fmt.Sprintf("%s/auth/v1/authorize?provider=%s", strings.TrimSuffix(s.cfg.URL, "/"), url.QueryEscape(provider))
	if redirectTo != "" {
		u += "&redirect_to=" + url.QueryEscape(redirectTo)
	}
	return u
}

// SignOut revokes the session on the backend and notifies observers with
// a nil user either way: local state is always cleared.
func (s *Service) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(s.cfg.URL, "/")+"/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
	}
	s.notify(nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// CurrentUser resolves the user behind an access token.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(s.cfg.URL, "/")+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _, _ := httputil.ReadAllWithLimit(resp.Body, 32<<10)
		return nil, fmt.Errorf("auth API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// OnAuthChange registers a state handler and returns a disposer that
// removes exactly this registration.
func (s *Service) OnAuthChange(handler StateHandler) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// ConnectWallet merge-patches the wallet address onto the user's profile
// document. Best effort: a patch failure is logged, not returned, so a
// profile write cannot break wallet connection.
func (s *Service) ConnectWallet(ctx context.Context, userID, address string) {
	if s.linker == nil || userID == "" {
		return
	}
	if err := s.linker.MergeWalletAddress(ctx, userID, address); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("wallet address merge failed")
	}
}

func (s *Service) notify(user *User) {
	s.mu.Lock()
	handlers := make([]StateHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(user)
	}
}

func (s *Service) tokenRequest(ctx context.Context, path string, creds map[string]string) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(s.cfg.URL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _, _ := httputil.ReadAllWithLimit(resp.Body, 32<<10)
		return nil, fmt.Errorf("auth API error %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}
