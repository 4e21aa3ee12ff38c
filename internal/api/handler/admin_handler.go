package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/core/ports"
)

// AdminHandler is the back-office view of checkout flows.
type AdminHandler struct {
	checkouts ports.CheckoutService
}

func NewAdminHandler(checkouts ports.CheckoutService) *AdminHandler {
	return &AdminHandler{checkouts: checkouts}
}

// Inspect handles GET /v1/admin/checkouts/:id.
//
// @Summary      Inspect a checkout and its audit trail
// @Tags         admin
// @Produce      json
// @Security     DeviceToken
// @Param        id   path      string  true  "Checkout id"
// @Success      200  {object}  adminCheckoutResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/checkouts/{id} [get]
func (h *AdminHandler) Inspect(c echo.Context) error {
	flow, events, err := h.checkouts.Inspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, adminCheckoutResponse{
		Checkout: toCheckoutResponse(flow),
		Events:   toEventResponses(events),
	})
}
