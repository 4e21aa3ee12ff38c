package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/api/metrics"
	"github.com/evanio/checkout-service/internal/api/middleware"
)

// DeviceHandler bootstraps anonymous devices.
type DeviceHandler struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewDeviceHandler(secret []byte, ttl time.Duration) *DeviceHandler {
	return &DeviceHandler{secret: secret, ttl: ttl, now: time.Now}
}

// Issue handles POST /v1/devices.
//
// @Summary      Issue a device token
// @Description  Every other /v1 route needs the returned token in Authorization or X-Device-Token.
// @Tags         devices
// @Produce      json
// @Success      201  {object}  deviceResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/devices [post]
func (h *DeviceHandler) Issue(c echo.Context) error {
	deviceID, token, expiresAt, err := middleware.IssueDeviceToken(h.secret, h.ttl, h.now())
	if err != nil {
		return err
	}

	metrics.DevicesIssuedTotal.Inc()
	return c.JSON(http.StatusCreated, deviceResponse{
		DeviceID:  deviceID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
