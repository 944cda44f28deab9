package mockbackend

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ValidateContentType rejects request bodies that are not JSON.
func ValidateContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			return next(c)
		}

		if c.Request().ContentLength == 0 {
			return next(c)
		}

		contentType := c.Request().Header.Get(echo.HeaderContentType)
		if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
			return badRequest(
				"Invalid Content-Type",
				"Content-Type must be 'application/json'. Got: "+contentType,
			)
		}
		return next(c)
	}
}
