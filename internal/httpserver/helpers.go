package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/online_school/pkg/middleware/auth"
)

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := authmw.CurrentUser(c)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func uintParam(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
