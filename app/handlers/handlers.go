// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// newValidator builds the request validator with the custom rules the DTOs use
func newValidator() *validator.Validate {
	v := validator.New()

	// Brazilian phone numbers: 10 or 11 digits after normalization
	_ = v.RegisterValidation("phone_digits", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		digits := 0
		for _, char := range value {
			if char >= '0' && char <= '9' {
				digits++
			} else if char != ' ' && char != '-' && char != '(' && char != ')' && char != '+' {
				return false
			}
		}
		return digits >= 10 && digits <= 11
	})

	return v
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "eqfield":
		return err.Field() + " must match " + err.Param()
	case "alphanum":
		return err.Field() + " must contain only letters and numbers"
	case "phone_digits":
		return "Phone number must have 10 or 11 digits"
	case "datetime":
		return err.Field() + " must be a date in format YYYY-MM-DD"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
