package ports

import (
	"context"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// LoginResult is the outcome of a login attempt that did not fail.
// Exactly one of Session and RequiresSecondFactor is set.
type LoginResult struct {
	Session              *domain.Session
	RequiresSecondFactor bool
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// AuthGateway is the authentication half of the Evanio API.
// Failures are *domain.Error values classified by kind.
type AuthGateway interface {
	Login(ctx context.Context, email, password, code string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*domain.Session, error)
	CurrentIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

// CreateOrderInput is everything the Evanio API needs to persist an order.
type CreateOrderInput struct {
	Draft         domain.OrderDraft
	Customer      domain.CustomerDetails
	PaymentMethod domain.PaymentMethod
}

// OrderGateway is the order half of the Evanio API.
// Failures are *domain.Error values classified by kind.
type OrderGateway interface {
	CreateOrder(ctx context.Context, token string, input CreateOrderInput) (*domain.OrderRecord, error)
	CreateHostedPaymentSession(ctx context.Context, token, orderID string) (string, error)
	SubmitBankTransferProof(ctx context.Context, token, orderID string, proof domain.BankTransferProof) error
	GetOrder(ctx context.Context, token, orderID string) (*domain.OrderRecord, error)
}
