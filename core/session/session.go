package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrNoSession is returned when no bearer token is held.
	ErrNoSession = errors.New("not logged in")
	// ErrTokenExpired is returned when the held token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionExpired is surfaced after a session teardown caused by an auth rejection.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// Session holds the bearer token and user profile for one scope. It is passed by
// reference to every component that needs authentication.
type Session struct {
	mu      sync.RWMutex
	scope   string
	store   Store
	logger  *zap.Logger
	now     func() time.Time
	token   string
	expiry  time.Time
	profile Profile

	hooksMu sync.Mutex
	hooks   []func()
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session bound to scope. Call Init to load persisted state.
func New(store Store, scope string, logger *zap.Logger, opts ...Option) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		scope:  scope,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the persisted token and profile, if any.
func (s *Session) Init(ctx context.Context) error {
	state, err := s.store.Load(ctx, s.scope)
	if err != nil {
		return err
	}
	if state == nil || state.Token == "" {
		return nil
	}

	s.mu.Lock()
	s.token = state.Token
	s.expiry = tokenExpiry(state.Token)
	s.profile = state.Profile
	s.mu.Unlock()

	s.logger.Debug("Session restored",
		zap.String("scope", s.scope),
		zap.String("user", state.Profile.Email))
	return nil
}

// Begin stores a freshly issued token and profile.
func (s *Session) Begin(ctx context.Context, token string, profile Profile) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := s.store.Save(ctx, s.scope, State{Token: token, Profile: profile}); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.expiry = tokenExpiry(token)
	s.profile = profile
	s.mu.Unlock()

	s.logger.Info("Session started", zap.String("scope", s.scope), zap.String("user", profile.Email))
	return nil
}

// OnTeardown registers fn to run on every Teardown, after the token is cleared.
func (s *Session) OnTeardown(fn func()) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

// Teardown clears the token, the persisted state and runs teardown hooks
// (cache clearing, view reset). Hooks run even if clearing the store fails.
func (s *Session) Teardown(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.profile = Profile{}
	s.mu.Unlock()

	err := s.store.Clear(ctx, s.scope)
	if err != nil {
		s.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}

	s.hooksMu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}

	s.logger.Info("Session torn down", zap.String("scope", s.scope))
	return err
}

// Token implements oauth2.TokenSource for the API transport.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return nil, ErrNoSession
	}
	if !s.expiry.IsZero() && !s.now().Before(s.expiry) {
		return nil, ErrTokenExpired
	}
	return &oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
		Expiry:      s.expiry,
	}, nil
}

// Authenticated reports whether a usable token is held.
func (s *Session) Authenticated() bool {
	_, err := s.Token()
	return err == nil
}

// Profile returns the current user profile.
func (s *Session) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// CanViewAudit reports whether the current user may see the audit log.
func (s *Session) CanViewAudit() bool {
	return s.Profile().CanViewAudit()
}

// Scope returns the storage scope of the session.
func (s *Session) Scope() string { return s.scope }

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// Opaque tokens have no client-visible expiry.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// IsSessionError reports whether err means the session can no longer be used.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrSessionExpired)
}
