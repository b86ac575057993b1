package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestSession_NoTokenBeforeLogin(t *testing.T) {
	s := New(nil, "tab-1", zap.NewNop())
	require.NoError(t, s.Init(context.Background()))

	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, s.Authenticated())
	assert.True(t, IsSessionError(err))
}

func TestSession_BeginPersistsAndInitRestores(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := New(store, "tab-1", zap.NewNop())
	require.NoError(t, first.Begin(ctx, "opaque-token", Profile{ID: "1", Email: "a@b.c", Role: RoleAdmin}))

	tok, err := first.Token()
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)

	second := New(store, "tab-1", zap.NewNop())
	require.NoError(t, second.Init(ctx))
	assert.True(t, second.Authenticated())
	assert.True(t, second.CanViewAudit())
	assert.Equal(t, "a@b.c", second.Profile().Email)

	other := New(store, "tab-2", zap.NewNop())
	require.NoError(t, other.Init(ctx))
	assert.False(t, other.Authenticated())
}

func TestSession_BeginRejectsEmptyToken(t *testing.T) {
	s := New(nil, "tab", nil)
	assert.Error(t, s.Begin(context.Background(), "", Profile{}))
}

func TestSession_TeardownClearsStateAndRunsHooks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, "tab-1", zap.NewNop())
	require.NoError(t, s.Begin(ctx, "tok", Profile{Role: RoleAdmin}))

	calls := 0
	s.OnTeardown(func() { calls++ })
	s.OnTeardown(func() { calls++ })

	require.NoError(t, s.Teardown(ctx))
	assert.Equal(t, 2, calls)
	assert.False(t, s.Authenticated())
	assert.False(t, s.CanViewAudit())

	state, err := store.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSession_JWTExpiry(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	s := New(nil, "tab", zap.NewNop(), WithClock(func() time.Time { return now }))

	require.NoError(t, s.Begin(context.Background(), signedToken(t, issued.Add(time.Hour)), Profile{}))

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), tok.Expiry.Unix())

	now = issued.Add(time.Hour)
	_, err = s.Token()
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, IsSessionError(err))
}

type brokenStore struct{ *MemoryStore }

func (brokenStore) Clear(context.Context, string) error { return errors.New("disk full") }

func TestSession_TeardownRunsHooksWhenStoreFails(t *testing.T) {
	s := New(brokenStore{NewMemoryStore()}, "tab", zap.NewNop())
	require.NoError(t, s.Begin(context.Background(), "tok", Profile{}))

	ran := false
	s.OnTeardown(func() { ran = true })

	err := s.Teardown(context.Background())
	assert.Error(t, err)
	assert.True(t, ran)
	assert.False(t, s.Authenticated())
}

func TestTokenExpiry(t *testing.T) {
	assert.True(t, tokenExpiry("not-a-jwt").IsZero())

	exp := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, exp.Unix(), tokenExpiry(signedToken(t, exp)).Unix())
}
