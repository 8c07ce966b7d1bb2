package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("super-secret", 0)
	tok, err := svc.Issue("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), tok.Exp, 5*time.Second)

	sub, err := svc.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issuedAt}
	svc := NewTokenService("k", 24*time.Hour).WithClock(clock.Now)

	tok, err := svc.Issue("admin")
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, time.Hour, 23 * time.Hour, 24*time.Hour - time.Second} {
		clock.t = issuedAt.Add(offset)
		_, err := svc.Verify(tok.Token)
		assert.NoError(t, err, "offset %s", offset)
	}
	for _, offset := range []time.Duration{24*time.Hour + time.Second, 25 * time.Hour, 30 * 24 * time.Hour} {
		clock.t = issuedAt.Add(offset)
		_, err := svc.Verify(tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken, "offset %s", offset)
	}
}

func TestTokenService_SubSecondIssue(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 900_000_000, time.UTC)
	clock := &fakeClock{t: issuedAt}
	svc := NewTokenService("k", 24*time.Hour).WithClock(clock.Now)

	tok, err := svc.Issue("admin")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 12, 0, 1, 0, time.UTC), tok.Exp)

	for _, offset := range []time.Duration{24*time.Hour - 500*time.Millisecond, 24*time.Hour - time.Nanosecond} {
		clock.t = issuedAt.Add(offset)
		_, err := svc.Verify(tok.Token)
		assert.NoError(t, err, "offset %s", offset)
	}

	clock.t = issuedAt.Add(24*time.Hour + time.Second)
	_, err = svc.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the reported expiry is the signed one
	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok.Token, claims)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(tok.Exp))
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenService("right-secret", time.Hour).Issue("admin")
	require.NoError(t, err)

	_, err = NewTokenService("wrong-secret", time.Hour).Verify(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("k", time.Hour)
	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestTokenService_RejectsNoneAndMissingSubject(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("k", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err = noSub.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"})
	raw, err = noExp.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
