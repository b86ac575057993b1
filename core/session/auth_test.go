package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-console/core/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture(t *testing.T, handler http.HandlerFunc) (*Auth, *Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	srv.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(srv.Close)

	s := New(NewMemoryStore(), "tab", zap.NewNop())
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, TimeoutSeconds: 5}, s, zap.NewNop())
	require.NoError(t, err)
	return NewAuth(client, s, zap.NewNop()), s
}

func TestAuth_Login(t *testing.T) {
	var got credentials
	auth, s := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"issued","user":{"id":12,"name":"Ada","email":"ada@example.com","role":"admin"}}`))
	})

	profile, err := auth.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "secret", got.Password)
	assert.Equal(t, Profile{ID: "12", Name: "Ada", Email: "ada@example.com", Role: "admin"}, profile)
	assert.True(t, s.Authenticated())
	assert.True(t, s.CanViewAudit())
}

func TestAuth_LoginRejected(t *testing.T) {
	auth, s := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	_, err := auth.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, s.Authenticated())
}

func TestAuth_SignupWithoutToken(t *testing.T) {
	auth, s := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"id":"u-1"}}`))
	})

	_, err := auth.Signup(context.Background(), "Ada", "a@b.c", "pw")
	assert.Error(t, err)
	assert.False(t, s.Authenticated())
}

func TestAuth_LogoutTearsDownEvenOnServerFailure(t *testing.T) {
	var authHeader string
	auth, s := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.NoError(t, s.Begin(context.Background(), "tok", Profile{}))

	hooked := false
	s.OnTeardown(func() { hooked = true })

	require.NoError(t, auth.Logout(context.Background()))
	assert.Equal(t, "Bearer tok", authHeader)
	assert.True(t, hooked)
	assert.False(t, s.Authenticated())
}
