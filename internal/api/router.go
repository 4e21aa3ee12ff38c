package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/evanio/checkout-service/docs"
	"github.com/evanio/checkout-service/internal/api/handler"
	"github.com/evanio/checkout-service/internal/api/middleware"
	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Sessions       ports.SessionService
	Checkouts      ports.CheckoutService
	Health         map[string]handler.DependencyCheck
	DeviceSecret   []byte
	DeviceTokenTTL time.Duration
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderDeviceToken},
	}))
	e.Use(echoprometheus.NewMiddleware("checkout"))

	// --- Dependencies ---
	deviceHandler := handler.NewDeviceHandler(d.DeviceSecret, d.DeviceTokenTTL)
	sessionHandler := handler.NewSessionHandler(d.Sessions)
	checkoutHandler := handler.NewCheckoutHandler(d.Checkouts)
	orderHandler := handler.NewOrderHandler(d.Checkouts)
	adminHandler := handler.NewAdminHandler(d.Checkouts)
	healthHandler := handler.NewHealthHandler(d.Health)

	// --- Health, metrics and docs (no device token) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	v1.POST("/devices", deviceHandler.Issue)

	device := v1.Group("", middleware.Device(d.DeviceSecret))

	device.GET("/session", sessionHandler.Restore)
	device.POST("/session/login", sessionHandler.Login)
	device.POST("/session/register", sessionHandler.Register)
	device.DELETE("/session", sessionHandler.Logout)

	device.POST("/checkouts", checkoutHandler.Start)
	device.GET("/checkouts/:id", checkoutHandler.Get)
	device.POST("/checkouts/:id/authenticate", checkoutHandler.Authenticate)
	device.POST("/checkouts/:id/orders", checkoutHandler.SubmitOrder)
	device.POST("/checkouts/:id/bank-transfer", checkoutHandler.SubmitBankTransfer)

	device.GET("/orders/:id", orderHandler.Get)

	admin := device.Group("/admin", middleware.RBAC(d.Sessions, domain.RoleAdmin))
	admin.GET("/checkouts/:id", adminHandler.Inspect)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
