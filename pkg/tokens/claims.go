package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

var ErrUnexpectedSignMethod = errors.New("unexpected sign method")

func hs256Key(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedSignMethod
		}
		return secret, nil
	}
}

// AccessClaimsFromToken verifies an HS256 access token. Expired tokens
// return an error wrapping jwt.ErrTokenExpired so callers can try a refresh.
func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, hs256Key(accessSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, hs256Key(refreshSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}

// SignAccessToken is used by tests and tooling that need a token for a
// known subject; issuing tokens to end users belongs to the auth service.
func SignAccessToken(claims AccessClaims, accessSecret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(accessSecret)
}
