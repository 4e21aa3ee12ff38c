package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// SessionRestorer resolves the signed-in account of a device.
type SessionRestorer interface {
	Restore(ctx context.Context, deviceID string) (domain.Session, error)
}

// RBAC enforces role-based access control on the account signed in on the
// device. The role is re-read from the Evanio API on every request.
func RBAC(sessions SessionRestorer, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deviceID, _ := c.Get("device_id").(string)
			if deviceID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing device token")
			}

			session, err := sessions.Restore(c.Request().Context(), deviceID)
			if err != nil {
				return err
			}
			if !session.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrNoSession.Error())
			}
			if _, ok := allowed[session.Identity.Role]; !ok {
				return domain.ErrForbidden
			}

			c.Set("identity", session.Identity)
			return next(c)
		}
	}
}
