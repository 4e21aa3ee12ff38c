package ports

import (
	"context"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// EventRepository persists the checkout audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.CheckoutEvent) error
	// ListByFlow returns the flow's events oldest first.
	ListByFlow(ctx context.Context, flowID string) ([]domain.CheckoutEvent, error)
}

// EventRecorder accepts audit events without blocking the caller on persistence.
type EventRecorder interface {
	Record(event domain.CheckoutEvent)
}
