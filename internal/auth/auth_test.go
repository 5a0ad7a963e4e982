package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	sess, err := s.Signup(ctx, "User@Example.com", "correct-horse", "")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", sess.Email)
	assert.NotEmpty(t, sess.Token)

	sess2, err := s.Login(ctx, "user@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, sess2.Token)
}

func TestSignup_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "not-an-email", "longenough", "")
	assert.Error(t, err)

	_, err = s.Signup(ctx, "a@example.com", "short", "")
	assert.Error(t, err)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "dup@example.com", "password-one", "")
	require.NoError(t, err)

	_, err = s.Signup(ctx, "dup@example.com", "password-two", "")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestSignup_PlanLimits(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	sess, err := s.Signup(ctx, "pro@example.com", "longenough", model.PlanPro)
	require.NoError(t, err)

	u, err := s.Validate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, u.Plan)
	assert.Equal(t, model.DefaultLimits(model.PlanPro), u.Limits)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Signup(ctx, "w@example.com", "the-real-one", "")
	require.NoError(t, err)

	_, err = s.Login(ctx, "w@example.com", "not-the-one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := newTestService(t)

	_, err := s.Login(context.Background(), "ghost@example.com", "whatever-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateAndLogout(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	sess, err := s.Signup(ctx, "v@example.com", "longenough", "")
	require.NoError(t, err)

	u, err := s.Validate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "v@example.com", u.Email)

	require.NoError(t, s.Logout(ctx, sess.Token))

	_, err = s.Validate(ctx, sess.Token)
	assert.Error(t, err)

	// Logging out twice is fine.
	assert.NoError(t, s.Logout(ctx, sess.Token))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword("not-a-hash", "hunter2hunter2"))
}
