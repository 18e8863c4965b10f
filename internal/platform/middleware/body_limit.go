package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// DefaultBodyLimit covers the largest handover note with room to spare.
const DefaultBodyLimit = "1M"

// BodyLimit rejects write requests whose body exceeds limit with 413. limit
// is a size string such as "512K" or "2M"; an empty value uses
// DefaultBodyLimit. Reads and deletes carry no body and are not checked.
func BodyLimit(limit string) echo.MiddlewareFunc {
	limit = strings.TrimSpace(limit)
	if limit == "" {
		limit = DefaultBodyLimit
	}
	return echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: limit,
		Skipper: func(c echo.Context) bool {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
				return true
			}
			return false
		},
	})
}
