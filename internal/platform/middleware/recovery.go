package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/HutchE92/handover/internal/platform/auth"
)

// Recovery turns a handler panic into a 500. The panic is logged through the
// request-scoped logger when one is on the context, so it carries the
// request id.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				req := c.Request()
				log := zerolog.Ctx(req.Context())
				if log.GetLevel() == zerolog.Disabled {
					log = &logger
				}
				log.Error().
					Str("method", req.Method).
					Str("route", c.Path()).
					Str("user_id", auth.UserIDFromContext(req.Context())).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				he := echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				he.Internal = fmt.Errorf("panic: %v", r)
				err = he
			}()
			return next(c)
		}
	}
}
