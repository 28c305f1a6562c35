package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedcon/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	s := NewService(database)
	require.NoError(t, s.EnsureDefaultUser(context.Background(), "admin", "hunter2"))
	return s
}

func TestLoginValidateLogout(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	token, err := s.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)
	assert.Len(t, token, 64)

	user, err := s.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	require.NoError(t, s.Logout(ctx, token))
	_, err = s.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureDefaultUser_OnlyOnce(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureDefaultUser(ctx, "admin", "changed"))
	_, err := s.Login(ctx, "admin", "hunter2")
	assert.NoError(t, err)
}

func TestValidateSession_Expired(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	token, err := s.Login(ctx, "admin", "hunter2")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(sessionTTL + time.Hour) }
	_, err = s.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestUserContext(t *testing.T) {
	assert.Nil(t, UserFrom(context.Background()))
	ctx := WithUser(context.Background(), &User{ID: 1, Username: "admin"})
	assert.Equal(t, "admin", UserFrom(ctx).Username)
}
