package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/core/ports"
)

// OrderHandler serves the order status view a confirmed checkout links to.
type OrderHandler struct {
	checkouts ports.CheckoutService
}

func NewOrderHandler(checkouts ports.CheckoutService) *OrderHandler {
	return &OrderHandler{checkouts: checkouts}
}

// Get handles GET /v1/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     DeviceToken
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	order, err := h.checkouts.OrderStatus(c.Request().Context(), deviceID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}
