package account

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core"
)

var (
	phoneTag  = "phone"
	phoneText = "enter a valid phone number"

	passwordTag  = "password"
	passwordText = "password must be at least 8 characters and contain an uppercase letter, a digit and a special character"
)

// InitValidators registers account-specific validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(passwordTag, passwordValidation)
	core.RegisterCustomTranslation(validate, translator, passwordTag, passwordText)
}

// phoneValidation checks the fixed-length digit pattern for the number's country prefix.
func phoneValidation(fl validator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

// passwordValidation enforces the 4-predicate password policy.
func passwordValidation(fl validator.FieldLevel) bool {
	return CheckPassword(fl.Field().String()).OK()
}
