package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/pkg/authclient"
	"github.com/Skotchmaster/online_school/pkg/logging"
	"github.com/Skotchmaster/online_school/pkg/tokens"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

var ErrUnauthorized = errors.New("unauthorized")

type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

// AutoRefreshMiddleware authenticates requests by the access-token cookie
// and transparently rotates an expired pair through the auth service.
type AutoRefreshMiddleware struct {
	JWTSecret  []byte
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(tokens.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			return m.admit(c, next, claims, validator)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) || m.AuthClient == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		refreshResp, refErr := m.AuthClient.RefreshTokens(c.Request().Context(), refreshCookie.Value, accessCookie.Value)
		if refErr != nil {
			logging.FromContext(c.Request().Context()).Warn("token_refresh_failed", "error", refErr)
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}

		newClaims, pErr := tokens.AccessClaimsFromToken(refreshResp.AccessToken, m.JWTSecret)
		if pErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, refreshResp.AccessToken, "/", time.Unix(refreshResp.AccessExp, 0)))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, refreshResp.RefreshToken, "/", time.Unix(refreshResp.RefreshExp, 0)))

		return m.admit(c, next, newClaims, validator)
	}
}

func (m *AutoRefreshMiddleware) admit(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims, validator ValidatorFunc) error {
	if _, err := uuid.Parse(claims.Subject); err != nil {
		clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	if validator != nil {
		if err := validator(claims); err != nil {
			return err
		}
	}

	c.Set(UserIDKey, claims.Subject)
	c.Set(RoleKey, claims.Role)

	req := c.Request()
	c.SetRequest(req.WithContext(logging.With(req.Context(), "user_id", claims.Subject)))

	return next(c)
}

// CurrentUser returns the user id placed on the context by RequireAuth or
// RequireAdmin.
func CurrentUser(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(UserIDKey).(string)
	if !ok || s == "" {
		return uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}

	return userID, nil
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}
