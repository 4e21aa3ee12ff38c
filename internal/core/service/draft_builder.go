package service

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/evanio/checkout-service/internal/core/domain"
)

// Draft input keys, as the catalog pages put them in the checkout link.
const (
	DraftKeyService      = "service"
	DraftKeyServiceSlug  = "serviceSlug"
	DraftKeyPackage      = "package"
	DraftKeyPackagePrice = "packagePrice"
	DraftKeyAddOns       = "addons"
)

// BuildOrderDraft turns checkout link parameters into a priced draft.
// It has no side effects; add-ons that fail to decode are dropped rather than reported.
func BuildOrderDraft(input map[string]string) domain.OrderDraft {
	return domain.NewOrderDraft(
		strings.TrimSpace(input[DraftKeyService]),
		strings.TrimSpace(input[DraftKeyServiceSlug]),
		strings.TrimSpace(input[DraftKeyPackage]),
		strings.TrimSpace(input[DraftKeyPackagePrice]),
		decodeAddOns(input[DraftKeyAddOns]),
	)
}

func decodeAddOns(raw string) []domain.AddOn {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}

	var addOns []domain.AddOn
	if err := json.Unmarshal([]byte(decoded), &addOns); err != nil {
		return nil
	}
	return addOns
}
