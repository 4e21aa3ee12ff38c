package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// ctxDevice extracts the device id injected by the Device middleware. An empty
// id means the route was registered without the middleware.
func ctxDevice(c echo.Context) (string, error) {
	deviceID, _ := c.Get("device_id").(string)
	if deviceID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing device token")
	}
	return deviceID, nil
}

// methodLabel keeps unsupported payment methods out of metric labels.
func methodLabel(m string) string {
	if domain.PaymentMethod(m).Valid() {
		return m
	}
	return ""
}

// resultLabel turns an operation outcome into a metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrSubmitInProgress):
		return "busy"
	case errors.Is(err, domain.ErrSecondFactorRequired):
		return "second_factor"
	}
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	return "internal"
}
