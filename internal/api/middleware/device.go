package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderDeviceToken carries the device token when Authorization is taken.
	HeaderDeviceToken = "X-Device-Token"

	deviceIssuer = "evanio-checkout"
)

// IssueDeviceToken mints an HS256 token that identifies a new device.
func IssueDeviceToken(secret []byte, ttl time.Duration, now time.Time) (deviceID, token string, expiresAt time.Time, err error) {
	deviceID = uuid.NewString()
	expiresAt = now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    deviceIssuer,
		Subject:   deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return deviceID, token, expiresAt, nil
}

// Device validates the device token and injects the device id into the context.
func Device(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := deviceToken(c.Request())
			if err != nil {
				return err
			}

			claims := &jwt.RegisteredClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return secret, nil
			}, jwt.WithIssuer(deviceIssuer))
			if err != nil || !tkn.Valid || claims.Subject == "" {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "device token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid device token")
			}

			c.Set("device_id", claims.Subject)
			return next(c)
		}
	}
}

func deviceToken(r *http.Request) (string, error) {
	if v := strings.TrimSpace(r.Header.Get(HeaderDeviceToken)); v != "" {
		return v, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing device token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
