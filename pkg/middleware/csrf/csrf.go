package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const ContextKey = "csrf_token"

type Config struct {
	CookieName string
	HeaderName string
	FormField  string

	CookiePath string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	EnforceSameOrigin bool

	// SkipPrefixes bypass the check entirely, e.g. health probes and the
	// payment gateway redirect callback.
	SkipPrefixes []string
}

func DefaultConfig() Config {
	return Config{
		CookieName:        "XSRF-TOKEN",
		HeaderName:        "X-CSRF-Token",
		FormField:         "csrf_token",
		CookiePath:        "/",
		Secure:            true,
		SameSite:          http.SameSiteLaxMode,
		MaxAge:            24 * time.Hour,
		EnforceSameOrigin: true,
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.FormField == "" {
		cfg.FormField = def.FormField
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}
	return cfg
}

// Middleware implements the double-submit cookie pattern: safe methods get a
// token cookie and header, unsafe methods must echo it back.
func Middleware(cfg Config) echo.MiddlewareFunc {
	cfg = cfg.withDefaults()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if skipped(req.URL.Path, cfg.SkipPrefixes) {
				return next(c)
			}

			token := readCookie(req, cfg.CookieName)
			if token == "" {
				var err error
				token, err = newToken(32)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
				}
			}
			setCSRFCookie(c, cfg, token)

			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				c.Response().Header().Set(cfg.HeaderName, token)
				c.Set(ContextKey, token)
				return next(c)
			}

			if cfg.EnforceSameOrigin && !sameOrigin(req) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid origin")
			}

			provided := req.Header.Get(cfg.HeaderName)
			if provided == "" {
				provided = req.FormValue(cfg.FormField)
			}
			if provided == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}

			c.Set(ContextKey, token)
			return next(c)
		}
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCSRFCookie(c echo.Context, cfg Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})
}

func readCookie(req *http.Request, name string) string {
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, schemeOf(r)) && strings.EqualFold(u.Host, r.Host)
}

func schemeOf(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
