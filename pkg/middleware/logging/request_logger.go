package loggingmw

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/pkg/logging"
)

// RequestLogger attaches a request-scoped logger to the request context and
// emits one line per completed request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			l := base.With(
				"request_id", rid,
				"method", req.Method,
				"route", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			dur := time.Since(start).Milliseconds()

			switch {
			case status >= 500:
				l.Error("request_completed", "status", status, "duration_ms", dur, "error", err)
			case status >= 400:
				l.Warn("request_completed", "status", status, "duration_ms", dur)
			default:
				l.Info("request_completed", "status", status, "duration_ms", dur, "bytes", c.Response().Size)
			}
			return nil
		}
	}
}
