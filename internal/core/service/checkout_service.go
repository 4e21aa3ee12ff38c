package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// SessionProvider is the part of the session lifecycle the checkout depends on.
type SessionProvider interface {
	Current(ctx context.Context, deviceID string) (domain.Session, error)
	Invalidate(ctx context.Context, deviceID string)
}

// CheckoutService is the checkout state machine:
// auth -> payment -> (redirected | bank_transfer -> confirmed).
type CheckoutService struct {
	repo     ports.CheckoutRepository
	events   ports.EventRepository
	recorder ports.EventRecorder
	orders   ports.OrderGateway
	sessions SessionProvider
	guard    ports.SubmitGuard
	log      zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewCheckoutService wires the state machine to its collaborators.
func NewCheckoutService(
	repo ports.CheckoutRepository,
	events ports.EventRepository,
	recorder ports.EventRecorder,
	orders ports.OrderGateway,
	sessions SessionProvider,
	guard ports.SubmitGuard,
	log zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		events:   events,
		recorder: recorder,
		orders:   orders,
		sessions: sessions,
		guard:    guard,
		log:      log.With().Str("component", "checkout").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Start opens a checkout for the draft described by input. The flow starts on
// the payment step when the device is already signed in, on the auth step otherwise.
func (s *CheckoutService) Start(ctx context.Context, deviceID string, input map[string]string) (*domain.CheckoutFlow, error) {
	session, err := s.sessions.Current(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("start checkout: %w", err)
	}

	now := s.now()
	flow := &domain.CheckoutFlow{
		ID:        s.newID(),
		DeviceID:  deviceID,
		Step:      domain.StepAuth,
		Draft:     BuildOrderDraft(input),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if session.Valid() {
		flow.Step = domain.StepPayment
		prefillCustomer(flow, session.Identity)
	}

	if err := s.repo.Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("start checkout: %w", err)
	}

	s.record(flow, domain.EventStarted, "")
	s.log.Info().
		Str("flow_id", flow.ID).
		Str("service", flow.Draft.ServiceSlug).
		Str("step", flow.Step.String()).
		Float64("total", flow.Draft.DerivedTotal).
		Msg("checkout started")

	return flow, nil
}

// Get returns the device's flow.
func (s *CheckoutService) Get(ctx context.Context, deviceID, flowID string) (*domain.CheckoutFlow, error) {
	return s.load(ctx, deviceID, flowID)
}

// Authenticate moves a flow from auth to payment once the device has a session.
// A flow already on the payment step is returned unchanged.
func (s *CheckoutService) Authenticate(ctx context.Context, deviceID, flowID string) (*domain.CheckoutFlow, error) {
	flow, err := s.load(ctx, deviceID, flowID)
	if err != nil {
		return nil, err
	}
	if flow.Step == domain.StepPayment {
		return flow, nil
	}

	session, err := s.sessions.Current(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("authenticate checkout: %w", err)
	}
	if !session.Valid() {
		return nil, noSession()
	}

	if err := flow.Advance(domain.StepPayment, s.now()); err != nil {
		return nil, fmt.Errorf("authenticate checkout: %w", err)
	}
	prefillCustomer(flow, session.Identity)

	if err := s.repo.Update(ctx, flow); err != nil {
		return nil, fmt.Errorf("authenticate checkout: %w", err)
	}
	s.record(flow, domain.EventTransition, "signed in")
	return flow, nil
}

// SubmitOrder creates the order for a flow on the payment step. Hosted card
// payments end on the redirected step with the payment page URL; bank transfers
// move to the bank_transfer step. A failed gateway call leaves the flow where it was.
func (s *CheckoutService) SubmitOrder(ctx context.Context, deviceID, flowID string, input ports.SubmitOrderInput) (*domain.CheckoutFlow, error) {
	release, err := s.acquire(ctx, flowID)
	if err != nil {
		return nil, err
	}
	defer release()

	flow, err := s.load(ctx, deviceID, flowID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Current(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	if err := checkOrderPreconditions(session, flow.Draft, input); err != nil {
		s.record(flow, domain.EventRejected, domain.UserMessage(err))
		return nil, err
	}
	if flow.Step != domain.StepPayment {
		return nil, fmt.Errorf("submit order: %w (step %s)", domain.ErrInvalidTransition, flow.Step)
	}

	// A pending order is reused while it was created with the same payment
	// method and contact details. Changed details get a new order so the flow
	// never disagrees with the order it points at.
	orderID := flow.OrderID
	if orderID == "" || flow.PaymentMethod != input.PaymentMethod || flow.Customer != input.Customer {
		order, err := s.orders.CreateOrder(ctx, session.Token, ports.CreateOrderInput{
			Draft:         flow.Draft,
			Customer:      input.Customer,
			PaymentMethod: input.PaymentMethod,
		})
		if err != nil {
			return nil, s.gatewayFailure(ctx, flow, "create order", err)
		}
		orderID = order.ID
		s.log.Info().Str("flow_id", flow.ID).Str("order_id", orderID).Str("payment_method", string(input.PaymentMethod)).Msg("order created")

		flow.Customer = input.Customer
		flow.PaymentMethod = input.PaymentMethod
		flow.OrderID = orderID
		s.keepPendingOrder(ctx, flow)
	}

	switch input.PaymentMethod {
	case domain.PaymentHostedCard:
		redirectURL, err := s.orders.CreateHostedPaymentSession(ctx, session.Token, orderID)
		if err != nil {
			return nil, s.gatewayFailure(ctx, flow, "create payment session", err)
		}
		flow.RedirectURL = redirectURL
		if err := flow.Advance(domain.StepRedirected, s.now()); err != nil {
			return nil, fmt.Errorf("submit order: %w", err)
		}
	case domain.PaymentBankTransfer:
		if err := flow.Advance(domain.StepBankTransfer, s.now()); err != nil {
			return nil, fmt.Errorf("submit order: %w", err)
		}
	}

	if err := s.repo.Update(ctx, flow); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	s.record(flow, domain.EventTransition, "order "+orderID)
	return flow, nil
}

// SubmitBankTransfer attaches the transfer proof to the flow's order and
// confirms the flow. On failure the flow stays on bank_transfer.
func (s *CheckoutService) SubmitBankTransfer(ctx context.Context, deviceID, flowID string, proof domain.BankTransferProof) (*domain.CheckoutFlow, error) {
	release, err := s.acquire(ctx, flowID)
	if err != nil {
		return nil, err
	}
	defer release()

	flow, err := s.load(ctx, deviceID, flowID)
	if err != nil {
		return nil, err
	}

	if flow.OrderID == "" {
		err := domain.Validation(domain.ErrMissingOrder.Error(), domain.ErrMissingOrder)
		s.record(flow, domain.EventRejected, err.Message)
		return nil, err
	}
	if flow.Step != domain.StepBankTransfer {
		return nil, fmt.Errorf("submit bank transfer: %w (step %s)", domain.ErrInvalidTransition, flow.Step)
	}

	proof = proof.Trimmed()
	if err := proof.Validate(); err != nil {
		s.record(flow, domain.EventRejected, domain.UserMessage(err))
		return nil, err
	}

	session, err := s.sessions.Current(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("submit bank transfer: %w", err)
	}
	if !session.Valid() {
		return nil, noSession()
	}

	if err := s.orders.SubmitBankTransferProof(ctx, session.Token, flow.OrderID, proof); err != nil {
		return nil, s.gatewayFailure(ctx, flow, "submit bank transfer", err)
	}

	flow.StatusURL = "/dashboard/orders/" + url.PathEscape(flow.OrderID) + "?submitted=1"
	if err := flow.Advance(domain.StepConfirmed, s.now()); err != nil {
		return nil, fmt.Errorf("submit bank transfer: %w", err)
	}
	if err := s.repo.Update(ctx, flow); err != nil {
		return nil, fmt.Errorf("submit bank transfer: %w", err)
	}

	s.record(flow, domain.EventTransition, "transfer "+proof.TransactionID)
	s.log.Info().Str("flow_id", flow.ID).Str("order_id", flow.OrderID).Msg("bank transfer submitted")
	return flow, nil
}

// OrderStatus fetches an order for the status view the checkout lands on.
func (s *CheckoutService) OrderStatus(ctx context.Context, deviceID, orderID string) (*domain.OrderRecord, error) {
	session, err := s.sessions.Current(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("order status: %w", err)
	}
	if !session.Valid() {
		return nil, noSession()
	}

	order, err := s.orders.GetOrder(ctx, session.Token, orderID)
	if err != nil {
		if domain.KindOf(err) == domain.KindAuth {
			s.sessions.Invalidate(ctx, deviceID)
		}
		return nil, err
	}
	return order, nil
}

// Inspect returns a flow and its audit trail regardless of the device that owns it.
func (s *CheckoutService) Inspect(ctx context.Context, flowID string) (*domain.CheckoutFlow, []domain.CheckoutEvent, error) {
	flow, err := s.repo.FindByID(ctx, flowID)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.events.ListByFlow(ctx, flowID)
	if err != nil {
		return nil, nil, fmt.Errorf("inspect checkout: %w", err)
	}
	return flow, events, nil
}

var customerValidate = validator.New()

// checkOrderPreconditions runs the order checks in a fixed order and stops at the first failure.
func checkOrderPreconditions(session domain.Session, draft domain.OrderDraft, input ports.SubmitOrderInput) error {
	if !session.Valid() {
		return noSession()
	}
	if !draft.HasService() {
		return domain.Validation("no service selected, go back to the catalog and pick a service", nil)
	}
	if err := input.Customer.Validate(); err != nil {
		return err
	}
	if err := customerValidate.Var(strings.TrimSpace(input.Customer.Email), "email"); err != nil {
		return domain.Validation("enter a valid email address", nil)
	}
	if draft.DerivedTotal <= 0 {
		return domain.Validation("order total must be greater than zero", nil)
	}
	if !input.PaymentMethod.Valid() {
		return domain.Validation("choose a payment method", nil)
	}
	return nil
}

func (s *CheckoutService) load(ctx context.Context, deviceID, flowID string) (*domain.CheckoutFlow, error) {
	flow, err := s.repo.FindByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow.DeviceID != deviceID {
		return nil, domain.ErrCheckoutNotFound
	}
	return flow, nil
}

func (s *CheckoutService) acquire(ctx context.Context, flowID string) (func(), error) {
	key := "submit:" + flowID
	token, ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire submit guard: %w", err)
	}
	if !ok {
		s.log.Debug().Str("flow_id", flowID).Msg("submission already in progress")
		return nil, domain.ErrSubmitInProgress
	}

	return func() {
		// the request context may already be cancelled
		if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Error().Err(err).Str("flow_id", flowID).Msg("failed to release submit guard")
		}
	}, nil
}

// gatewayFailure records a failed gateway call. An auth failure means the token
// expired: the device is signed out and the flow goes back to the auth step.
func (s *CheckoutService) gatewayFailure(ctx context.Context, flow *domain.CheckoutFlow, op string, err error) error {
	s.log.Warn().Err(err).Str("flow_id", flow.ID).Str("op", op).Msg("gateway call failed")
	s.record(flow, domain.EventFailed, op+": "+domain.UserMessage(err))

	if domain.KindOf(err) != domain.KindAuth {
		return err
	}

	s.sessions.Invalidate(ctx, flow.DeviceID)
	if advErr := flow.Advance(domain.StepAuth, s.now()); advErr != nil {
		return errors.Join(err, advErr)
	}
	if upErr := s.repo.Update(ctx, flow); upErr != nil {
		return errors.Join(err, upErr)
	}
	s.record(flow, domain.EventTransition, "session expired")
	return err
}

// keepPendingOrder saves a freshly created order id before any further call,
// so a resubmit after a later failure reuses the order.
func (s *CheckoutService) keepPendingOrder(ctx context.Context, flow *domain.CheckoutFlow) {
	flow.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, flow); err != nil {
		s.log.Error().Err(err).Str("flow_id", flow.ID).Str("order_id", flow.OrderID).Msg("failed to keep pending order")
	}
}

func (s *CheckoutService) record(flow *domain.CheckoutFlow, kind domain.CheckoutEventKind, msg string) {
	s.recorder.Record(domain.CheckoutEvent{
		FlowID:  flow.ID,
		Step:    flow.Step,
		Kind:    kind,
		Message: msg,
		At:      s.now(),
	})
}

func prefillCustomer(flow *domain.CheckoutFlow, identity *domain.Identity) {
	if identity == nil {
		return
	}
	if flow.Customer.Name == "" {
		flow.Customer.Name = identity.Name
	}
	if flow.Customer.Email == "" {
		flow.Customer.Email = identity.Email
	}
}

func noSession() *domain.Error {
	return domain.Auth(domain.ErrNoSession.Error(), domain.ErrNoSession)
}
