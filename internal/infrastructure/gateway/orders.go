package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// Payment method names as the Evanio API spells them.
const (
	wireHostedCard   = "card"
	wireBankTransfer = "bank_transfer"
)

func toWireMethod(m domain.PaymentMethod) string {
	if m == domain.PaymentHostedCard {
		return wireHostedCard
	}
	return wireBankTransfer
}

func fromWireMethod(s string) domain.PaymentMethod {
	switch s {
	case wireHostedCard, string(domain.PaymentHostedCard):
		return domain.PaymentHostedCard
	default:
		return domain.PaymentBankTransfer
	}
}

type addOnDTO struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type customerDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company,omitempty"`
	Brief   string `json:"brief,omitempty"`
}

type createOrderRequest struct {
	ServiceName   string      `json:"serviceName"`
	ServiceSlug   string      `json:"serviceSlug"`
	PackageName   string      `json:"packageName,omitempty"`
	PackagePrice  float64     `json:"packagePrice"`
	AddOns        []addOnDTO  `json:"addOns"`
	Total         float64     `json:"total"`
	Customer      customerDTO `json:"customer"`
	PaymentMethod string      `json:"paymentMethod"`
}

type orderDTO struct {
	ID            string    `json:"id"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (o *orderDTO) toDomain() *domain.OrderRecord {
	if o == nil || o.ID == "" {
		return nil
	}
	return &domain.OrderRecord{
		ID:            o.ID,
		PaymentMethod: fromWireMethod(o.PaymentMethod),
		Status:        o.Status,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
}

type orderResponse struct {
	Order *orderDTO `json:"order"`
}

type checkoutSessionRequest struct {
	OrderID string `json:"orderId"`
}

type checkoutSessionResponse struct {
	URL string `json:"url"`
}

type bankTransferRequest struct {
	TransactionID      string `json:"transactionId"`
	BankName           string `json:"bankName"`
	AccountNumberLast4 string `json:"accountNumberLast4"`
	Notes              string `json:"notes,omitempty"`
	ProofFileName      string `json:"proofFileName,omitempty"`
}

// OrderClient implements ports.OrderGateway.
type OrderClient struct {
	c *Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{c: c}
}

func (o *OrderClient) CreateOrder(ctx context.Context, token string, input ports.CreateOrderInput) (*domain.OrderRecord, error) {
	var resp orderResponse
	if err := o.c.do(ctx, http.MethodPost, "/orders", token, newCreateOrderRequest(input), &resp); err != nil {
		return nil, err
	}

	order := resp.Order.toDomain()
	if order == nil {
		return nil, domain.Server("", nil)
	}
	return order, nil
}

func (o *OrderClient) CreateHostedPaymentSession(ctx context.Context, token, orderID string) (string, error) {
	var resp checkoutSessionResponse
	if err := o.c.do(ctx, http.MethodPost, "/payments/checkout-session", token, checkoutSessionRequest{OrderID: orderID}, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", domain.Server("", nil)
	}
	return resp.URL, nil
}

func (o *OrderClient) SubmitBankTransferProof(ctx context.Context, token, orderID string, proof domain.BankTransferProof) error {
	req := bankTransferRequest{
		TransactionID:      proof.TransactionID,
		BankName:           proof.BankName,
		AccountNumberLast4: proof.AccountNumberLast4,
		Notes:              proof.Notes,
		ProofFileName:      proof.ProofFileName,
	}
	return o.c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/bank-transfer", token, req, nil)
}

func (o *OrderClient) GetOrder(ctx context.Context, token, orderID string) (*domain.OrderRecord, error) {
	var resp orderResponse
	if err := o.c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), token, nil, &resp); err != nil {
		return nil, err
	}

	order := resp.Order.toDomain()
	if order == nil {
		return nil, domain.Server("", nil)
	}
	return order, nil
}

func newCreateOrderRequest(input ports.CreateOrderInput) createOrderRequest {
	addOns := make([]addOnDTO, 0, len(input.Draft.AddOns))
	for _, a := range input.Draft.AddOns {
		addOns = append(addOns, addOnDTO{Name: a.Name, Price: domain.ParsePrice(a.Price)})
	}

	return createOrderRequest{
		ServiceName:  input.Draft.ServiceName,
		ServiceSlug:  input.Draft.ServiceSlug,
		PackageName:  input.Draft.PackageName,
		PackagePrice: domain.ParsePrice(input.Draft.PackagePrice),
		AddOns:       addOns,
		Total:        input.Draft.DerivedTotal,
		Customer: customerDTO{
			Name:    input.Customer.Name,
			Email:   input.Customer.Email,
			Phone:   input.Customer.Phone,
			Company: input.Customer.Company,
			Brief:   input.Customer.Brief,
		},
		PaymentMethod: toWireMethod(input.PaymentMethod),
	}
}
