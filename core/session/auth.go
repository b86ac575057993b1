package session

import (
	"context"
	"fmt"
	"net/http"

	"catalog-console/core/apiclient"
	"catalog-console/core/utils"

	"go.uber.org/zap"
)

// Auth issues and revokes tokens through the remote API. The console never looks
// inside the credentials; it only stores and forwards the resulting bearer token.
type Auth struct {
	client  *apiclient.Client
	session *Session
	logger  *zap.Logger
}

// NewAuth creates an Auth bound to a session.
func NewAuth(client *apiclient.Client, session *Session, logger *zap.Logger) *Auth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auth{client: client, session: session, logger: logger}
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    any    `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Login exchanges credentials for a token and starts the session.
func (a *Auth) Login(ctx context.Context, email, password string) (Profile, error) {
	return a.issue(ctx, "/auth/login", credentials{Email: email, Password: password})
}

// Signup registers a new account and starts the session.
func (a *Auth) Signup(ctx context.Context, name, email, password string) (Profile, error) {
	return a.issue(ctx, "/auth/signup", credentials{Name: name, Email: email, Password: password})
}

// Logout revokes the token server-side and tears the session down. The local
// teardown happens even when the server call fails.
func (a *Auth) Logout(ctx context.Context) error {
	if a.session.Authenticated() {
		if err := a.client.SendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
			a.logger.Warn("Server-side logout failed", zap.Error(err))
		}
	}
	return a.session.Teardown(ctx)
}

func (a *Auth) issue(ctx context.Context, path string, creds credentials) (Profile, error) {
	var resp authResponse
	if err := a.client.SendAnonymousJSON(ctx, http.MethodPost, path, creds, &resp); err != nil {
		return Profile{}, fmt.Errorf("authentication failed: %s", apiclient.Message(err))
	}
	if resp.Token == "" {
		return Profile{}, fmt.Errorf("authentication failed: no token in response")
	}

	profile := Profile{
		ID:    utils.ToString(resp.User.ID),
		Name:  resp.User.Name,
		Email: resp.User.Email,
		Role:  resp.User.Role,
	}

	if err := a.session.Begin(ctx, resp.Token, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}
