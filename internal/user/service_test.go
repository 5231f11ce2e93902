package user

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/macro-tracker-backend/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := dbtest.Open(t, &User{})
	issuer, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(NewRepository(db), issuer, NewMemorySessionStore())
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice@Example.com ", "correct horse", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = svc.Register(ctx, "alice@example.com", "another password", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "bob@example.com", "short", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Register(ctx, "not-an-email", "long enough", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "carol@example.com", "password123", "Carol")
	require.NoError(t, err)

	u, session, err := svc.Authenticate(ctx, "CAROL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.Subject)

	_, _, err = svc.Authenticate(ctx, "carol@example.com", "wrong password")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave@example.com", "password123", "")
	require.NoError(t, err)
	_, session, err := svc.Authenticate(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = svc.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestMemorySessionStoreExpires(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
