package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// NewValidator builds the shared validator with the custom password rule.
// Passwords need at least 8 characters with one upper, one lower, one digit
// and one special character.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("password", validPassword)
	return validate
}

func validPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}
