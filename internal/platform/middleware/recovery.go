package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/tenant"
)

// Recovery turns a handler panic into a 500 answered through the error
// handler and logs the stack. http.ErrAbortHandler is re-raised so net/http
// can drop the connection.
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

				stack := make([]byte, 8<<10)
				stack = stack[:runtime.Stack(stack, false)]
				logger.Error().
					Str("request_id", RequestIDFrom(c)).
					Str("tenant", tenant.FromContext(c.Request().Context())).
					Str("route", c.Path()).
					Interface("panic", r).
					Bytes("stack", stack).
					Msg("handler panicked")

				err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error").
					SetInternal(fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
