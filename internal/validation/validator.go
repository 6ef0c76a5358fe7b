package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/ordersheet/backend/internal/shopify"
)

// New returns a configured validator with the shop-domain check registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	_ = v.RegisterValidation("shop_domain", func(fl validatorv10.FieldLevel) bool {
		return shopify.IsValidShopDomain(fl.Field().String())
	})

	v.RegisterStructValidation(registerShopStructValidation, RegisterShopRequest{})

	return v
}

// registerShopStructValidation rejects tokens that are obviously not Shopify
// Admin API tokens before they reach the encryptor.
func registerShopStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(RegisterShopRequest)

	if len(req.AccessToken) < 10 {
		sl.ReportError(req.AccessToken, "access_token", "AccessToken", "token_too_short", "")
	}
}
