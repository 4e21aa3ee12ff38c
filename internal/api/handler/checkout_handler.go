package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/api/metrics"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// CheckoutHandler drives the checkout flows of the calling device.
type CheckoutHandler struct {
	checkouts ports.CheckoutService
}

func NewCheckoutHandler(checkouts ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts}
}

// Start handles POST /v1/checkouts.
//
// @Summary      Start a checkout
// @Description  The draft is read from the query string of the catalog checkout link.
// @Tags         checkouts
// @Produce      json
// @Security     DeviceToken
// @Param        service       query     string  false  "Service name"
// @Param        serviceSlug   query     string  false  "Service slug"
// @Param        package       query     string  false  "Package name"
// @Param        packagePrice  query     string  false  "Package price, e.g. $79 – $149"
// @Param        addons        query     string  false  "URL-encoded JSON array of {name, price}"
// @Success      201           {object}  checkoutResponse
// @Failure      401           {object}  errorResponse
// @Router       /v1/checkouts [post]
func (h *CheckoutHandler) Start(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	q := c.QueryParams()
	input := make(map[string]string, len(q))
	for k := range q {
		input[k] = q.Get(k)
	}

	flow, err := h.checkouts.Start(c.Request().Context(), deviceID, input)
	if err != nil {
		return err
	}

	metrics.CheckoutsStartedTotal.WithLabelValues(flow.Step.String()).Inc()
	return c.JSON(http.StatusCreated, toCheckoutResponse(flow))
}

// Get handles GET /v1/checkouts/:id.
//
// @Summary      Get a checkout
// @Tags         checkouts
// @Produce      json
// @Security     DeviceToken
// @Param        id   path      string  true  "Checkout id"
// @Success      200  {object}  checkoutResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/checkouts/{id} [get]
func (h *CheckoutHandler) Get(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	flow, err := h.checkouts.Get(c.Request().Context(), deviceID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(flow))
}

// Authenticate handles POST /v1/checkouts/:id/authenticate.
//
// @Summary      Continue a checkout after signing in
// @Tags         checkouts
// @Produce      json
// @Security     DeviceToken
// @Param        id   path      string  true  "Checkout id"
// @Success      200  {object}  checkoutResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/checkouts/{id}/authenticate [post]
func (h *CheckoutHandler) Authenticate(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	before, err := h.checkouts.Get(c.Request().Context(), deviceID, c.Param("id"))
	if err != nil {
		return err
	}
	flow, err := h.checkouts.Authenticate(c.Request().Context(), deviceID, before.ID)
	if err != nil {
		return err
	}

	if flow.Step != before.Step {
		metrics.CheckoutStepsTotal.WithLabelValues(flow.Step.String()).Inc()
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(flow))
}

// SubmitOrder handles POST /v1/checkouts/:id/orders.
//
// @Summary      Place the order
// @Description  Hosted card payments answer with redirect_url; bank transfers move to the bank_transfer step.
// @Tags         checkouts
// @Accept       json
// @Produce      json
// @Security     DeviceToken
// @Param        id    path      string              true  "Checkout id"
// @Param        body  body      submitOrderRequest  true  "Payment step form"
// @Success      200   {object}  checkoutResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/checkouts/{id}/orders [post]
func (h *CheckoutHandler) SubmitOrder(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	var req submitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	flow, err := h.checkouts.SubmitOrder(c.Request().Context(), deviceID, c.Param("id"), toSubmitOrderInput(req))
	metrics.OrdersSubmittedTotal.WithLabelValues(methodLabel(req.PaymentMethod), resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	metrics.OrderSubmitDuration.WithLabelValues(methodLabel(req.PaymentMethod)).Observe(time.Since(start).Seconds())
	metrics.CheckoutStepsTotal.WithLabelValues(flow.Step.String()).Inc()
	return c.JSON(http.StatusOK, toCheckoutResponse(flow))
}

// SubmitBankTransfer handles POST /v1/checkouts/:id/bank-transfer.
//
// @Summary      Submit bank transfer proof
// @Description  On success status_url points at the order status page.
// @Tags         checkouts
// @Accept       json
// @Produce      json
// @Security     DeviceToken
// @Param        id    path      string               true  "Checkout id"
// @Param        body  body      bankTransferRequest  true  "Transfer details"
// @Success      200   {object}  checkoutResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/checkouts/{id}/bank-transfer [post]
func (h *CheckoutHandler) SubmitBankTransfer(c echo.Context) error {
	deviceID, err := ctxDevice(c)
	if err != nil {
		return err
	}

	var req bankTransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	flow, err := h.checkouts.SubmitBankTransfer(c.Request().Context(), deviceID, c.Param("id"), toBankTransferProof(req))
	metrics.BankTransfersSubmittedTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	metrics.CheckoutStepsTotal.WithLabelValues(flow.Step.String()).Inc()
	return c.JSON(http.StatusOK, toCheckoutResponse(flow))
}
