package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type memCheckoutRepo struct {
	mu        sync.Mutex
	flows     map[string]domain.CheckoutFlow
	updateErr error
	// failUpdate, when set, rejects the updates it returns an error for.
	failUpdate func(f *domain.CheckoutFlow) error
}

func newMemCheckoutRepo() *memCheckoutRepo {
	return &memCheckoutRepo{flows: make(map[string]domain.CheckoutFlow)}
}

func (r *memCheckoutRepo) Create(_ context.Context, f *domain.CheckoutFlow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.ID] = *f
	return nil
}

func (r *memCheckoutRepo) FindByID(_ context.Context, id string) (*domain.CheckoutFlow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrCheckoutNotFound
	}
	return &f, nil
}

func (r *memCheckoutRepo) Update(_ context.Context, f *domain.CheckoutFlow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.failUpdate != nil {
		if err := r.failUpdate(f); err != nil {
			return err
		}
	}
	r.flows[f.ID] = *f
	return nil
}

func (r *memCheckoutRepo) stored(id string) domain.CheckoutFlow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flows[id]
}

type memEvents struct {
	mu     sync.Mutex
	events []domain.CheckoutEvent
}

func (m *memEvents) Record(e domain.CheckoutEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *memEvents) InsertEvent(_ context.Context, e *domain.CheckoutEvent) error {
	m.Record(*e)
	return nil
}

func (m *memEvents) ListByFlow(_ context.Context, flowID string) ([]domain.CheckoutEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CheckoutEvent
	for _, e := range m.events {
		if e.FlowID == flowID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) kinds() []domain.CheckoutEventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]domain.CheckoutEventKind, 0, len(m.events))
	for _, e := range m.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type stubOrderGateway struct {
	createOrderFn   func(input ports.CreateOrderInput) (*domain.OrderRecord, error)
	hostedSessionFn func(orderID string) (string, error)
	bankTransferFn  func(orderID string, proof domain.BankTransferProof) error
	getOrderFn      func(orderID string) (*domain.OrderRecord, error)

	createOrderCalls  atomic.Int32
	hostedCalls       atomic.Int32
	bankTransferCalls atomic.Int32
}

func (g *stubOrderGateway) CreateOrder(_ context.Context, _ string, input ports.CreateOrderInput) (*domain.OrderRecord, error) {
	g.createOrderCalls.Add(1)
	if g.createOrderFn == nil {
		return &domain.OrderRecord{ID: "ord-1", PaymentMethod: input.PaymentMethod, Status: "pending", Total: input.Draft.DerivedTotal}, nil
	}
	return g.createOrderFn(input)
}

func (g *stubOrderGateway) CreateHostedPaymentSession(_ context.Context, _, orderID string) (string, error) {
	g.hostedCalls.Add(1)
	if g.hostedSessionFn == nil {
		return "https://pay.example.com/s/" + orderID, nil
	}
	return g.hostedSessionFn(orderID)
}

func (g *stubOrderGateway) SubmitBankTransferProof(_ context.Context, _, orderID string, proof domain.BankTransferProof) error {
	g.bankTransferCalls.Add(1)
	if g.bankTransferFn == nil {
		return nil
	}
	return g.bankTransferFn(orderID, proof)
}

func (g *stubOrderGateway) GetOrder(_ context.Context, _, orderID string) (*domain.OrderRecord, error) {
	return g.getOrderFn(orderID)
}

type stubSessions struct {
	mu          sync.Mutex
	sessions    map[string]domain.Session
	invalidated []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[string]domain.Session)}
}

func (s *stubSessions) signIn(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[deviceID] = domain.Session{Token: "tok-" + deviceID, Identity: testIdentity()}
}

func (s *stubSessions) Current(_ context.Context, deviceID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[deviceID], nil
}

func (s *stubSessions) Invalidate(_ context.Context, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, deviceID)
	s.invalidated = append(s.invalidated, deviceID)
}

type memGuard struct {
	mu   sync.Mutex
	held map[string]string
	next int
}

func newMemGuard() *memGuard {
	return &memGuard{held: make(map[string]string)}
}

func (g *memGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	g.next++
	token := fmt.Sprintf("token-%d", g.next)
	g.held[key] = token
	return token, true, nil
}

func (g *memGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] == token {
		delete(g.held, key)
	}
	return nil
}

func (g *memGuard) isHeld(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type checkoutFixture struct {
	svc      *CheckoutService
	repo     *memCheckoutRepo
	events   *memEvents
	orders   *stubOrderGateway
	sessions *stubSessions
	guard    *memGuard
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		repo:     newMemCheckoutRepo(),
		events:   &memEvents{},
		orders:   &stubOrderGateway{},
		sessions: newStubSessions(),
		guard:    newMemGuard(),
	}
	f.svc = NewCheckoutService(f.repo, f.events, f.events, f.orders, f.sessions, f.guard, zerolog.Nop())
	f.svc.newID = func() string { return "flow-1" }
	return f
}

func validDraftInput() map[string]string {
	return map[string]string{
		DraftKeyService:      "Web Design",
		DraftKeyServiceSlug:  "web-design",
		DraftKeyPackage:      "Starter",
		DraftKeyPackagePrice: "$499",
	}
}

func validOrderInput(method domain.PaymentMethod) ports.SubmitOrderInput {
	return ports.SubmitOrderInput{
		Customer:      domain.CustomerDetails{Name: "Ada", Email: "ada@example.com", Phone: "+1 555 0100"},
		PaymentMethod: method,
	}
}

// startPaying opens a signed-in flow sitting on the payment step.
func (f *checkoutFixture) startPaying(t *testing.T) *domain.CheckoutFlow {
	t.Helper()
	f.sessions.signIn("dev-1")
	flow, err := f.svc.Start(context.Background(), "dev-1", validDraftInput())
	require.NoError(t, err)
	require.Equal(t, domain.StepPayment, flow.Step)
	return flow
}

// ---------------------------------------------------------------------------
// Start / Authenticate
// ---------------------------------------------------------------------------

func TestCheckoutService_StartSignedOutBeginsAtAuth(t *testing.T) {
	f := newCheckoutFixture()

	flow, err := f.svc.Start(context.Background(), "dev-1", validDraftInput())
	require.NoError(t, err)

	assert.Equal(t, domain.StepAuth, flow.Step)
	assert.Equal(t, 499.0, flow.Draft.DerivedTotal)
	assert.Equal(t, "dev-1", f.repo.stored("flow-1").DeviceID)
	assert.Equal(t, []domain.CheckoutEventKind{domain.EventStarted}, f.events.kinds())
}

func TestCheckoutService_StartSignedInPrefillsCustomer(t *testing.T) {
	f := newCheckoutFixture()
	flow := f.startPaying(t)

	assert.Equal(t, "Ada Lovelace", flow.Customer.Name)
	assert.Equal(t, "ada@example.com", flow.Customer.Email)
}

func TestCheckoutService_Authenticate(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.svc.Start(context.Background(), "dev-1", validDraftInput())
	require.NoError(t, err)

	_, err = f.svc.Authenticate(context.Background(), "dev-1", "flow-1")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	assert.Equal(t, domain.StepAuth, f.repo.stored("flow-1").Step)

	f.sessions.signIn("dev-1")
	flow, err := f.svc.Authenticate(context.Background(), "dev-1", "flow-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, flow.Step)

	// repeating it is a no-op
	again, err := f.svc.Authenticate(context.Background(), "dev-1", "flow-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, again.Step)
}

func TestCheckoutService_FlowsAreScopedToDevice(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	_, err := f.svc.Get(context.Background(), "dev-2", "flow-1")
	assert.ErrorIs(t, err, domain.ErrCheckoutNotFound)

	_, err = f.svc.SubmitOrder(context.Background(), "dev-2", "flow-1", validOrderInput(domain.PaymentHostedCard))
	assert.ErrorIs(t, err, domain.ErrCheckoutNotFound)
	assert.Zero(t, f.orders.createOrderCalls.Load())
}

// ---------------------------------------------------------------------------
// SubmitOrder
// ---------------------------------------------------------------------------

func TestCheckoutService_SubmitOrderPreconditionOrder(t *testing.T) {
	cases := []struct {
		name     string
		signedIn bool
		draft    map[string]string
		input    ports.SubmitOrderInput
		wantKind domain.ErrorKind
		wantMsg  string
	}{
		{
			name:     "session checked first",
			signedIn: false,
			draft:    map[string]string{},
			input:    ports.SubmitOrderInput{},
			wantKind: domain.KindAuth,
			wantMsg:  domain.ErrNoSession.Error(),
		},
		{
			name:     "service before customer details",
			signedIn: true,
			draft:    map[string]string{DraftKeyPackagePrice: "$100"},
			input:    ports.SubmitOrderInput{},
			wantKind: domain.KindValidation,
			wantMsg:  "no service selected, go back to the catalog and pick a service",
		},
		{
			name:     "customer details before total",
			signedIn: true,
			draft:    map[string]string{DraftKeyService: "SEO", DraftKeyServiceSlug: "seo"},
			input:    ports.SubmitOrderInput{Customer: domain.CustomerDetails{Name: "Ada", Email: "ada@example.com"}},
			wantKind: domain.KindValidation,
			wantMsg:  "phone is required",
		},
		{
			name:     "session checked before email format",
			signedIn: false,
			draft:    map[string]string{DraftKeyService: "SEO", DraftKeyServiceSlug: "seo", DraftKeyPackagePrice: "$100"},
			input: ports.SubmitOrderInput{
				Customer:      domain.CustomerDetails{Name: "Ada", Email: "not-an-email", Phone: "555"},
				PaymentMethod: "cash",
			},
			wantKind: domain.KindAuth,
			wantMsg:  domain.ErrNoSession.Error(),
		},
		{
			name:     "malformed email",
			signedIn: true,
			draft:    map[string]string{DraftKeyService: "SEO", DraftKeyServiceSlug: "seo", DraftKeyPackagePrice: "$100"},
			input: ports.SubmitOrderInput{
				Customer:      domain.CustomerDetails{Name: "Ada", Email: "not-an-email", Phone: "555"},
				PaymentMethod: domain.PaymentHostedCard,
			},
			wantKind: domain.KindValidation,
			wantMsg:  "enter a valid email address",
		},
		{
			name:     "unsupported payment method",
			signedIn: true,
			draft:    map[string]string{DraftKeyService: "SEO", DraftKeyServiceSlug: "seo", DraftKeyPackagePrice: "$100"},
			input:    validOrderInput("cash"),
			wantKind: domain.KindValidation,
			wantMsg:  "choose a payment method",
		},
		{
			name:     "total must be positive",
			signedIn: true,
			draft:    map[string]string{DraftKeyService: "SEO", DraftKeyServiceSlug: "seo", DraftKeyPackagePrice: "Free"},
			input:    validOrderInput(domain.PaymentHostedCard),
			wantKind: domain.KindValidation,
			wantMsg:  "order total must be greater than zero",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture()
			if tc.signedIn {
				f.sessions.signIn("dev-1")
			}
			_, err := f.svc.Start(context.Background(), "dev-1", tc.draft)
			require.NoError(t, err)

			_, err = f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.wantKind, domain.KindOf(err))
			assert.Equal(t, tc.wantMsg, domain.UserMessage(err))
			assert.Zero(t, f.orders.createOrderCalls.Load())
		})
	}
}

func TestCheckoutService_SubmitOrderHostedCardRedirects(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	flow, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.NoError(t, err)

	assert.Equal(t, domain.StepRedirected, flow.Step)
	assert.Equal(t, "https://pay.example.com/s/ord-1", flow.RedirectURL)
	assert.Equal(t, "ord-1", flow.OrderID)
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
	assert.EqualValues(t, 1, f.orders.hostedCalls.Load())
	assert.Equal(t, domain.StepRedirected, f.repo.stored("flow-1").Step)
	assert.Empty(t, f.guard.held)
}

func TestCheckoutService_SubmitOrderBankTransferAwaitsProof(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	flow, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)

	assert.Equal(t, domain.StepBankTransfer, flow.Step)
	assert.Equal(t, "ord-1", flow.OrderID)
	assert.Zero(t, f.orders.hostedCalls.Load())
}

func TestCheckoutService_SubmitOrderRejectsWhileBusy(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.orders.createOrderFn = func(input ports.CreateOrderInput) (*domain.OrderRecord, error) {
		close(entered)
		<-proceed
		return &domain.OrderRecord{ID: "ord-1"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
		done <- err
	}()
	<-entered

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	assert.ErrorIs(t, err, domain.ErrSubmitInProgress)

	close(proceed)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
}

func TestCheckoutService_SubmitOrderGatewayFailureStaysOnPayment(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	f.orders.createOrderFn = func(ports.CreateOrderInput) (*domain.OrderRecord, error) {
		return nil, domain.Network(errors.New("connection refused"))
	}

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.Equal(t, domain.NetworkMessage, domain.UserMessage(err))

	stored := f.repo.stored("flow-1")
	assert.Equal(t, domain.StepPayment, stored.Step)
	assert.Empty(t, stored.OrderID)
	assert.Contains(t, f.events.kinds(), domain.EventFailed)
	assert.Empty(t, f.guard.held)
}

func TestCheckoutService_SubmitOrderExpiredTokenReturnsToAuth(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	f.orders.createOrderFn = func(ports.CreateOrderInput) (*domain.OrderRecord, error) {
		return nil, domain.Auth("session expired", nil)
	}

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	assert.Equal(t, domain.StepAuth, f.repo.stored("flow-1").Step)
	assert.Equal(t, []string{"dev-1"}, f.sessions.invalidated)
}

func TestCheckoutService_SubmitOrderReusesPendingHostedOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	var hostedFails atomic.Bool
	hostedFails.Store(true)
	f.orders.hostedSessionFn = func(orderID string) (string, error) {
		if hostedFails.Load() {
			return "", domain.Server("", nil)
		}
		return "https://pay.example.com/s/" + orderID, nil
	}

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.Error(t, err)
	stored := f.repo.stored("flow-1")
	assert.Equal(t, domain.StepPayment, stored.Step)
	assert.Equal(t, "ord-1", stored.OrderID)

	hostedFails.Store(false)
	flow, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.NoError(t, err)
	assert.Equal(t, domain.StepRedirected, flow.Step)
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
}

func TestCheckoutService_SubmitOrderTwiceIsInvalidTransition(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.NoError(t, err)

	_, err = f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
}

// ---------------------------------------------------------------------------
// SubmitBankTransfer
// ---------------------------------------------------------------------------

func validProof() domain.BankTransferProof {
	return domain.BankTransferProof{TransactionID: "TX-991", BankName: "First Bank", AccountNumberLast4: "4321"}
}

func TestCheckoutService_SubmitBankTransferWithoutOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	_, err := f.svc.SubmitBankTransfer(context.Background(), "dev-1", "flow-1", validProof())
	require.ErrorIs(t, err, domain.ErrMissingOrder)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Zero(t, f.orders.bankTransferCalls.Load())
}

func TestCheckoutService_SubmitBankTransferValidatesProof(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)

	proof := validProof()
	proof.BankName = "   "
	_, err = f.svc.SubmitBankTransfer(context.Background(), "dev-1", "flow-1", proof)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, "bank name is required", domain.UserMessage(err))
	assert.Zero(t, f.orders.bankTransferCalls.Load())
	assert.Equal(t, domain.StepBankTransfer, f.repo.stored("flow-1").Step)
}

func TestCheckoutService_SubmitBankTransferConfirms(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)

	var sent domain.BankTransferProof
	f.orders.bankTransferFn = func(orderID string, proof domain.BankTransferProof) error {
		assert.Equal(t, "ord-1", orderID)
		sent = proof
		return nil
	}

	proof := validProof()
	proof.TransactionID = "  TX-991 "
	flow, err := f.svc.SubmitBankTransfer(context.Background(), "dev-1", "flow-1", proof)
	require.NoError(t, err)

	assert.Equal(t, domain.StepConfirmed, flow.Step)
	assert.Equal(t, "/dashboard/orders/ord-1?submitted=1", flow.StatusURL)
	assert.Equal(t, "TX-991", sent.TransactionID)
}

func TestCheckoutService_SubmitBankTransferFailureStaysOnStep(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)
	f.orders.bankTransferFn = func(string, domain.BankTransferProof) error {
		return domain.Validation("transaction id already used", nil)
	}

	_, err = f.svc.SubmitBankTransfer(context.Background(), "dev-1", "flow-1", validProof())
	assert.Equal(t, "transaction id already used", domain.UserMessage(err))
	assert.Equal(t, domain.StepBankTransfer, f.repo.stored("flow-1").Step)
}

// ---------------------------------------------------------------------------
// OrderStatus / Inspect
// ---------------------------------------------------------------------------

func TestCheckoutService_OrderStatus(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.getOrderFn = func(orderID string) (*domain.OrderRecord, error) {
		return &domain.OrderRecord{ID: orderID, Status: "pending_review"}, nil
	}

	_, err := f.svc.OrderStatus(context.Background(), "dev-1", "ord-1")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	f.sessions.signIn("dev-1")
	order, err := f.svc.OrderStatus(context.Background(), "dev-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "pending_review", order.Status)
}

func TestCheckoutService_InspectReturnsAuditTrail(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.NoError(t, err)

	flow, events, err := f.svc.Inspect(context.Background(), "flow-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepRedirected, flow.Step)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventStarted, events[0].Kind)
	assert.Equal(t, domain.EventTransition, events[1].Kind)

	_, _, err = f.svc.Inspect(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCheckoutNotFound)
}

func TestCheckoutService_SubmitOrderChangedDetailsGetNewOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	var created atomic.Int32
	f.orders.createOrderFn = func(input ports.CreateOrderInput) (*domain.OrderRecord, error) {
		n := created.Add(1)
		return &domain.OrderRecord{ID: fmt.Sprintf("ord-%d", n), PaymentMethod: input.PaymentMethod}, nil
	}
	var hostedFails atomic.Bool
	hostedFails.Store(true)
	f.orders.hostedSessionFn = func(orderID string) (string, error) {
		if hostedFails.Load() {
			return "", domain.Server("", nil)
		}
		return "https://pay.example.com/s/" + orderID, nil
	}

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentHostedCard))
	require.Error(t, err)

	hostedFails.Store(false)
	changed := validOrderInput(domain.PaymentHostedCard)
	changed.Customer.Email = "ada@work.example.com"

	flow, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", changed)
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.orders.createOrderCalls.Load())
	assert.Equal(t, "ord-2", flow.OrderID)
	assert.Equal(t, "https://pay.example.com/s/ord-2", flow.RedirectURL)

	stored := f.repo.stored("flow-1")
	assert.Equal(t, "ord-2", stored.OrderID)
	assert.Equal(t, "ada@work.example.com", stored.Customer.Email)
}

func TestCheckoutService_SubmitOrderKeepsOrderWhenSaveFails(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)

	saveErr := errors.New("mongo unavailable")
	f.repo.failUpdate = func(fl *domain.CheckoutFlow) error {
		if fl.Step == domain.StepBankTransfer {
			return saveErr
		}
		return nil
	}

	_, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.ErrorIs(t, err, saveErr)

	stored := f.repo.stored("flow-1")
	assert.Equal(t, domain.StepPayment, stored.Step)
	assert.Equal(t, "ord-1", stored.OrderID)
	assert.False(t, f.guard.isHeld("submit:flow-1"))

	f.repo.failUpdate = nil
	flow, err := f.svc.SubmitOrder(context.Background(), "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)
	assert.Equal(t, domain.StepBankTransfer, flow.Step)
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
}

// ---------------------------------------------------------------------------
// End-to-end flows
// ---------------------------------------------------------------------------

func TestCheckoutService_SignedOutCustomerRegistersThenPays(t *testing.T) {
	storage := newMemStorage()
	auth := &stubAuthGateway{
		registerFn: func(in ports.RegisterInput) (*domain.Session, error) {
			return &domain.Session{
				Token:    "tok-new",
				Identity: &domain.Identity{ID: "u-7", Name: in.Name, Email: in.Email, Role: domain.RoleCustomer},
			}, nil
		},
	}
	sessions := NewSessionManager(auth, storage, zerolog.Nop())

	f := newCheckoutFixture()
	f.svc.sessions = sessions
	ctx := context.Background()

	flow, err := f.svc.Start(ctx, "dev-1", map[string]string{
		DraftKeyService:      "Website Development",
		DraftKeyServiceSlug:  "website-development",
		DraftKeyPackagePrice: "$999",
		DraftKeyAddOns:       "[]",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StepAuth, flow.Step)

	_, err = f.svc.Authenticate(ctx, "dev-1", flow.ID)
	require.Equal(t, domain.KindAuth, domain.KindOf(err))

	_, err = sessions.Register(ctx, "dev-1", ports.RegisterInput{Name: "Grace", Email: "grace@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, storage.has(TokenKey("dev-1")))

	flow, err = f.svc.Authenticate(ctx, "dev-1", flow.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPayment, flow.Step)
	assert.Equal(t, float64(999), flow.Draft.DerivedTotal)
	assert.Empty(t, flow.Draft.AddOns)
	assert.Equal(t, "Grace", flow.Customer.Name)
	assert.Equal(t, "grace@example.com", flow.Customer.Email)
	assert.Equal(t, domain.StepPayment, f.repo.stored(flow.ID).Step)
}

func TestCheckoutService_BankTransferFromOrderToConfirmation(t *testing.T) {
	f := newCheckoutFixture()
	f.startPaying(t)
	ctx := context.Background()

	flow, err := f.svc.SubmitOrder(ctx, "dev-1", "flow-1", validOrderInput(domain.PaymentBankTransfer))
	require.NoError(t, err)
	require.Equal(t, domain.StepBankTransfer, flow.Step)
	require.Equal(t, "ord-1", flow.OrderID)
	assert.Zero(t, f.orders.hostedCalls.Load())

	blankBank := validProof()
	blankBank.BankName = "   "
	_, err = f.svc.SubmitBankTransfer(ctx, "dev-1", "flow-1", blankBank)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, "bank name is required", domain.UserMessage(err))
	assert.Zero(t, f.orders.bankTransferCalls.Load())
	assert.Equal(t, domain.StepBankTransfer, f.repo.stored("flow-1").Step)

	flow, err = f.svc.SubmitBankTransfer(ctx, "dev-1", "flow-1", validProof())
	require.NoError(t, err)
	assert.Equal(t, domain.StepConfirmed, flow.Step)
	assert.Equal(t, "/dashboard/orders/ord-1?submitted=1", flow.StatusURL)
	assert.EqualValues(t, 1, f.orders.bankTransferCalls.Load())
	assert.EqualValues(t, 1, f.orders.createOrderCalls.Load())
}
