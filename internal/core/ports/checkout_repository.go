package ports

import (
	"context"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// CheckoutRepository persists checkout flows between requests.
type CheckoutRepository interface {
	Create(ctx context.Context, flow *domain.CheckoutFlow) error
	// FindByID returns domain.ErrCheckoutNotFound when no flow has the id.
	FindByID(ctx context.Context, id string) (*domain.CheckoutFlow, error)
	Update(ctx context.Context, flow *domain.CheckoutFlow) error
}

// SubmitGuard keeps a single submission in flight per key.
// Acquire reports ok=false when another submission already holds the key.
// The returned token identifies the holder; Release frees the key only while
// that token still holds it.
type SubmitGuard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}
