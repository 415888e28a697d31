package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret-key", Issuer: "maxflow", TTL: 15 * time.Minute})
	require.NoError(t, err)
	return m
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager(Config{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestManager_IssueValidate(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("flowctl", "operator", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "flowctl", claims.Subject)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "maxflow", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestManager_Expired(t *testing.T) {
	m := newTestManager(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Issue("old", "", time.Minute)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestManager_WrongSecretOrIssuer(t *testing.T) {
	m := newTestManager(t)
	token, err := m.Issue("svc", "", 0)
	require.NoError(t, err)

	other, err := NewManager(Config{Secret: "another", Issuer: "maxflow"})
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewManager(Config{Secret: "test-secret-key", Issuer: "someone-else"})
	require.NoError(t, err)
	_, err = foreign.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsNoneAlg(t *testing.T) {
	m := newTestManager(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "maxflow"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromContext(t *testing.T) {
	_, err := TokenFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, "Bearer abc.def.ghi"))
	tok, err := TokenFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, "Basic Zm9v"))
	_, err = TokenFromContext(ctx)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestWithToken(t *testing.T) {
	ctx := WithToken(context.Background(), "tok")
	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Bearer tok"}, md.Get(MetadataKey))

	assert.Equal(t, context.Background(), WithToken(context.Background(), ""))
}

func TestClaimsContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	c := &Claims{Role: "admin"}
	got, ok := FromContext(IntoContext(context.Background(), c))
	require.True(t, ok)
	assert.Same(t, c, got)
}
