package models

import "github.com/go-playground/validator/v10"

// NewValidator returns a validator with the product_id tag registered.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// RegisterValidation only fails on an empty tag or nil func.
	_ = validate.RegisterValidation("product_id", func(fl validator.FieldLevel) bool {
		return ValidateProductID(fl.Field().String()) == nil
	})

	return validate
}
