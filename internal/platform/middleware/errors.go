package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the error envelope the storefront API answers with.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// ErrorHandler renders every handler error as {"detail": "..."}. Internal
// errors are logged and reported with a generic message.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		detail := http.StatusText(status)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			detail = fmt.Sprint(he.Message)
			if he.Internal != nil {
				logger.Debug().Err(he.Internal).Int("status", status).Msg("http error")
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorBody{Detail: detail})
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
