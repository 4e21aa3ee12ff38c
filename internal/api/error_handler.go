package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps checkout errors and Evanio API failures to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrCheckoutNotFound):
		return http.StatusNotFound, "checkout not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrSubmitInProgress):
		return http.StatusConflict, domain.ErrSubmitInProgress.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "this checkout cannot do that at its current step"
	}

	// Classified failures carry a message that is safe to show.
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity, domain.UserMessage(err)
	case domain.KindAuth:
		return http.StatusUnauthorized, domain.UserMessage(err)
	case domain.KindNetwork:
		log.Warn().Err(err).Str("path", c.Path()).Msg("evanio api unreachable")
		return http.StatusServiceUnavailable, domain.UserMessage(err)
	case domain.KindServer:
		log.Warn().Err(err).Str("path", c.Path()).Msg("evanio api error")
		return http.StatusBadGateway, domain.UserMessage(err)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
