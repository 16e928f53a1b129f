package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/tkamau/tunza/core"
)

type (
	TokenResponse struct {
		Token string `json:"token"`
		ID    string `json:"id,omitempty"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	PhoneRequest struct {
		Phone string `json:"phoneNumber" validate:"required,phone"`
	}
)

func (pr *PhoneRequest) Validate(validate *validator.Validate) error {
	pr.Phone = core.CleanString(pr.Phone)
	return validate.Struct(pr)
}
