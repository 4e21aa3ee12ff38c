package ports

import (
	"context"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// SessionService exposes the session lifecycle of a device.
type SessionService interface {
	// Restore rehydrates the persisted session and revalidates it against the Evanio API.
	Restore(ctx context.Context, deviceID string) (domain.Session, error)
	// Current rehydrates the persisted session without contacting the Evanio API.
	Current(ctx context.Context, deviceID string) (domain.Session, error)
	Login(ctx context.Context, deviceID, email, password, code string) (domain.Session, error)
	Register(ctx context.Context, deviceID string, input RegisterInput) (domain.Session, error)
	Logout(ctx context.Context, deviceID string)
}
