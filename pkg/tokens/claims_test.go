package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func TestAccessClaimsFromToken_RoundTrip(t *testing.T) {
	t.Parallel()

	sub := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute).UTC()
	token, err := SignAccessToken(AccessClaims{
		Role: RoleTutor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, testSecret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, RoleTutor, claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(AccessClaims{
		Role: RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, testSecret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, testSecret)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestAccessClaimsFromToken_WrongSecretOrAlg(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(AccessClaims{Role: RoleStudent}, []byte("other"))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(token, testSecret)
	require.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(none, testSecret)
	require.Error(t, err)
}

func TestDeleteCookie_Expires(t *testing.T) {
	t.Parallel()

	ck := DeleteCookie(AccessCookie, "/")
	assert.Equal(t, -1, ck.MaxAge)
	assert.Empty(t, ck.Value)
	assert.True(t, ck.HttpOnly)
}
