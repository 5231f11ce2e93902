package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	raw, issued, err := issuer.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestParse_RejectsForeignSecret(t *testing.T) {
	a, err := NewIssuer("secret-a", time.Hour)
	require.NoError(t, err)
	b, err := NewIssuer("secret-b", time.Hour)
	require.NoError(t, err)

	raw, _, err := a.Issue("user-1")
	require.NoError(t, err)

	_, err = b.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Minute)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return base }
	raw, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParse_Garbage(t *testing.T) {
	issuer, err := NewIssuer("", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
