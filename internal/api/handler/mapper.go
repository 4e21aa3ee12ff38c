package handler

import (
	"github.com/evanio/checkout-service/internal/core/domain"
	"github.com/evanio/checkout-service/internal/core/ports"
)

// --- Request → Service input ---

func toSubmitOrderInput(req submitOrderRequest) ports.SubmitOrderInput {
	return ports.SubmitOrderInput{
		Customer: domain.CustomerDetails{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Company: req.Customer.Company,
			Brief:   req.Customer.Brief,
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
}

func toBankTransferProof(req bankTransferRequest) domain.BankTransferProof {
	return domain.BankTransferProof{
		TransactionID:      req.TransactionID,
		BankName:           req.BankName,
		AccountNumberLast4: req.AccountNumberLast4,
		Notes:              req.Notes,
		ProofFileName:      req.ProofFileName,
	}
}

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	}
}

// --- Domain → Response ---

func toSessionResponse(s domain.Session) sessionResponse {
	if !s.Valid() {
		return sessionResponse{Authenticated: false}
	}
	return sessionResponse{
		Authenticated: true,
		Identity: &identityResponse{
			ID:    s.Identity.ID,
			Name:  s.Identity.Name,
			Email: s.Identity.Email,
			Role:  string(s.Identity.Role),
		},
	}
}

func toCheckoutResponse(f *domain.CheckoutFlow) checkoutResponse {
	addOns := make([]addOnResponse, 0, len(f.Draft.AddOns))
	for _, a := range f.Draft.AddOns {
		addOns = append(addOns, addOnResponse{Name: a.Name, Price: a.Price})
	}

	self := "/v1/checkouts/" + f.ID
	return checkoutResponse{
		ID:   f.ID,
		Step: f.Step.String(),
		Draft: draftResponse{
			ServiceName:  f.Draft.ServiceName,
			ServiceSlug:  f.Draft.ServiceSlug,
			PackageName:  f.Draft.PackageName,
			PackagePrice: f.Draft.PackagePrice,
			AddOns:       addOns,
			Total:        f.Draft.DerivedTotal,
			TotalDisplay: "$" + domain.FormatPrice(f.Draft.DerivedTotal),
		},
		Customer: customerResponse{
			Name:    f.Customer.Name,
			Email:   f.Customer.Email,
			Phone:   f.Customer.Phone,
			Company: f.Customer.Company,
			Brief:   f.Customer.Brief,
		},
		PaymentMethod: string(f.PaymentMethod),
		OrderID:       f.OrderID,
		RedirectURL:   f.RedirectURL,
		StatusURL:     f.StatusURL,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
		Links: checkoutLinks{
			Self:   self,
			Orders: self + "/orders",
		},
	}
}

func toOrderResponse(o *domain.OrderRecord) orderResponse {
	return orderResponse{
		ID:            o.ID,
		PaymentMethod: string(o.PaymentMethod),
		Status:        o.Status,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
}

func toEventResponses(events []domain.CheckoutEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Step:    e.Step.String(),
			Kind:    string(e.Kind),
			Message: e.Message,
			At:      e.At,
		})
	}
	return out
}
