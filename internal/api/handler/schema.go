package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Requests ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code,omitempty" validate:"omitempty,max=12"`
}

type registerRequest struct {
	Name         string `json:"name"     validate:"required,max=120"`
	Email        string `json:"email"    validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=64"`
}

// customerRequest and submitOrderRequest only bound field sizes: missing or
// malformed fields are reported by the checkout in a fixed order, after the session check.
type customerRequest struct {
	Name    string `json:"name"    validate:"max=120"`
	Email   string `json:"email"   validate:"max=254"`
	Phone   string `json:"phone"   validate:"max=40"`
	Company string `json:"company" validate:"max=120"`
	Brief   string `json:"brief"   validate:"max=4000"`
}

type submitOrderRequest struct {
	Customer      customerRequest `json:"customer"`
	PaymentMethod string          `json:"payment_method" validate:"max=32"`
}

type bankTransferRequest struct {
	TransactionID      string `json:"transaction_id"       validate:"max=120"`
	BankName           string `json:"bank_name"            validate:"max=120"`
	AccountNumberLast4 string `json:"account_number_last4" validate:"omitempty,len=4,numeric"`
	Notes              string `json:"notes"                validate:"max=2000"`
	ProofFileName      string `json:"proof_file_name"      validate:"max=255"`
}

// --- Responses ---

type deviceResponse struct {
	DeviceID  string    `json:"device_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Identity      *identityResponse `json:"identity,omitempty"`
}

type secondFactorResponse struct {
	RequiresSecondFactor bool   `json:"requires_second_factor"`
	Message              string `json:"message"`
}

type addOnResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type draftResponse struct {
	ServiceName  string          `json:"service_name"`
	ServiceSlug  string          `json:"service_slug"`
	PackageName  string          `json:"package_name,omitempty"`
	PackagePrice string          `json:"package_price,omitempty"`
	AddOns       []addOnResponse `json:"add_ons"`
	Total        float64         `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

type customerResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company,omitempty"`
	Brief   string `json:"brief,omitempty"`
}

type checkoutLinks struct {
	Self   string `json:"self"`
	Orders string `json:"orders"`
}

type checkoutResponse struct {
	ID            string           `json:"id"`
	Step          string           `json:"step"`
	Draft         draftResponse    `json:"draft"`
	Customer      customerResponse `json:"customer"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	OrderID       string           `json:"order_id,omitempty"`
	RedirectURL   string           `json:"redirect_url,omitempty"`
	StatusURL     string           `json:"status_url,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Links         checkoutLinks    `json:"_links"`
}

type orderResponse struct {
	ID            string    `json:"id"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"created_at"`
}

type eventResponse struct {
	Step    string    `json:"step"`
	Kind    string    `json:"kind"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

type adminCheckoutResponse struct {
	Checkout checkoutResponse `json:"checkout"`
	Events   []eventResponse  `json:"events"`
}
