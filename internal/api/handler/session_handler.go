package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/api/metrics"
	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// SessionHandler exposes the session lifecycle of the calling device.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Restore handles GET /v1/session.
//
// @Summary      Restore the device session
// @Description  Reloads the persisted session and revalidates it. Any revalidation failure signs the device out.
// @Tags         session
// @Produce      json
// @Security     DeviceToken
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Restore(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	session, err := h.sessions.Restore(c.Request().Context(), deviceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Login handles POST /v1/session/login.
//
// @Summary      Sign in
// @Description  Answers 202 when the account needs a one-time code; repeat the call with code set.
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     DeviceToken
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Success      202   {object}  secondFactorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	session, err := h.sessions.Login(c.Request().Context(), deviceID, req.Email, req.Password, req.Code)
	metrics.SessionLoginsTotal.WithLabelValues("login", resultLabel(err)).Inc()
	if errors.Is(err, domain.ErrSecondFactorRequired) {
		return c.JSON(http.StatusAccepted, secondFactorResponse{
			RequiresSecondFactor: true,
			Message:              "enter the code from your authenticator app",
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Register handles POST /v1/session/register.
//
// @Summary      Create an account and sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     DeviceToken
// @Param        body  body      registerRequest  true  "Sign-up form"
// @Success      201   {object}  sessionResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	session, err := h.sessions.Register(c.Request().Context(), deviceID, toRegisterInput(req))
	metrics.SessionLoginsTotal.WithLabelValues("register", resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

// Logout handles DELETE /v1/session.
//
// @Summary      Sign out
// @Tags         session
// @Security     DeviceToken
// @Success      204
// @Router       /v1/session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	h.sessions.Logout(c.Request().Context(), deviceID)
	return c.NoContent(http.StatusNoContent)
}
