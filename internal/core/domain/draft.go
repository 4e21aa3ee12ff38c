package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AddOn is an optional extra attached to a service package.
// Price is kept in the human-readable form the catalog uses ("$50", "25").
type AddOn struct {
	Name  string `json:"name" bson:"name"`
	Price string `json:"price" bson:"price"`
}

// UnmarshalJSON accepts the price either as a JSON string or a JSON number.
func (a *AddOn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Name = raw.Name
	a.Price = priceText(raw.Price)
	return nil
}

func priceText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return trimmed
}

// OrderDraft is the priced order a customer is about to buy.
// It is built once when a checkout starts and never mutated afterwards.
type OrderDraft struct {
	ServiceName  string  `json:"service_name" bson:"service_name"`
	ServiceSlug  string  `json:"service_slug" bson:"service_slug"`
	PackageName  string  `json:"package_name,omitempty" bson:"package_name,omitempty"`
	PackagePrice string  `json:"package_price,omitempty" bson:"package_price,omitempty"`
	AddOns       []AddOn `json:"add_ons" bson:"add_ons"`
	DerivedTotal float64 `json:"derived_total" bson:"derived_total"`
}

// NewOrderDraft assembles a draft and computes its total.
func NewOrderDraft(serviceName, serviceSlug, packageName, packagePrice string, addOns []AddOn) OrderDraft {
	if addOns == nil {
		addOns = []AddOn{}
	}
	d := OrderDraft{
		ServiceName:  serviceName,
		ServiceSlug:  serviceSlug,
		PackageName:  packageName,
		PackagePrice: packagePrice,
		AddOns:       addOns,
	}
	d.DerivedTotal = d.computeTotal()
	return d
}

func (d OrderDraft) computeTotal() float64 {
	total := ParsePrice(d.PackagePrice)
	for _, a := range d.AddOns {
		total += ParsePrice(a.Price)
	}
	return total
}

// HasService reports whether the draft names the service being bought.
func (d OrderDraft) HasService() bool {
	return strings.TrimSpace(d.ServiceName) != "" && strings.TrimSpace(d.ServiceSlug) != ""
}

// Validate checks that the draft can be turned into an order.
func (d OrderDraft) Validate() error {
	if !d.HasService() {
		return Validation("no service selected, go back to the catalog and pick a service", nil)
	}
	if d.DerivedTotal <= 0 {
		return Validation("order total must be greater than zero", nil)
	}
	return nil
}

// ParsePrice extracts the first number found in a price string.
// "$79 – $149" is 79, "$1,299" is 1299, and a string without digits is 0.
func ParsePrice(s string) float64 {
	start := -1
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) || (s[i] == '.' && i+1 < len(s) && isDigit(s[i+1])) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}

	var b strings.Builder
	seenDot := false
scan:
	for i := start; i < len(s); i++ {
		c := s[i]
		nextIsDigit := i+1 < len(s) && isDigit(s[i+1])
		switch {
		case isDigit(c):
			b.WriteByte(c)
		case c == '.' && !seenDot && nextIsDigit:
			seenDot = true
			b.WriteByte(c)
		case c == ',' && !seenDot && b.Len() > 0 && nextIsDigit:
			// thousands separator
		default:
			break scan
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatPrice renders a parsed price without exponent or trailing zeros.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
