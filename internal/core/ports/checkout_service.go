package ports

import (
	"context"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// SubmitOrderInput is the payment step form.
type SubmitOrderInput struct {
	Customer      domain.CustomerDetails
	PaymentMethod domain.PaymentMethod
}

// CheckoutService drives checkout flows through their steps.
// Every flow is scoped to the device that started it.
type CheckoutService interface {
	Start(ctx context.Context, deviceID string, input map[string]string) (*domain.CheckoutFlow, error)
	Get(ctx context.Context, deviceID, flowID string) (*domain.CheckoutFlow, error)
	Authenticate(ctx context.Context, deviceID, flowID string) (*domain.CheckoutFlow, error)
	SubmitOrder(ctx context.Context, deviceID, flowID string, input SubmitOrderInput) (*domain.CheckoutFlow, error)
	SubmitBankTransfer(ctx context.Context, deviceID, flowID string, proof domain.BankTransferProof) (*domain.CheckoutFlow, error)
	OrderStatus(ctx context.Context, deviceID, orderID string) (*domain.OrderRecord, error)
	// Inspect is the back-office view of a flow and its audit trail.
	Inspect(ctx context.Context, flowID string) (*domain.CheckoutFlow, []domain.CheckoutEvent, error)
}
