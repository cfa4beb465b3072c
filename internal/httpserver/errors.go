package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(status int, err error) transport.ErrorResponse {
	switch status {
	case http.StatusBadGateway:
		return transport.ErrorResponse{Message: "payment provider unavailable, try again later"}
	case http.StatusInternalServerError:
		return transport.ErrorResponse{Message: "internal error"}
	}

	var fe service.FieldErrors
	if errors.As(err, &fe) {
		out := transport.ErrorResponse{Message: "invalid body", Fields: make([]transport.FieldError, 0, len(fe))}
		for _, f := range fe {
			out.Fields = append(out.Fields, transport.FieldError{Field: f.Field, Message: f.Message})
		}
		return out
	}

	var de *service.DomainError
	if errors.As(err, &de) {
		return transport.ErrorResponse{Message: de.Msg}
	}
	return transport.ErrorResponse{Message: http.StatusText(status)}
}

// fail logs err under msg and converts it into the HTTP error for its
// category. Gateway and internal details stay in the log.
func fail(l *slog.Logger, msg string, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		l.Error(msg, "status", status, "error", err)
	} else {
		l.Warn(msg, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, errorBody(status, err))
}

func badRequest(l *slog.Logger, msg, reason string, err error) error {
	l.Warn(msg, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Message: reason})
}
