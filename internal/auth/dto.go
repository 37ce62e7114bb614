package auth

import (
	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
)

// RequestOTPInput carries an OTP issue request.
type RequestOTPInput struct {
	Phone    string `json:"phone" validate:"required"`
	ClientIP string `json:"-"`
}

// RequestOTPResponse acknowledges an issued code. DevCode is only populated
// when the dev echo flag is on; production builds never return the code.
type RequestOTPResponse struct {
	Phone     string `json:"phone"`
	ExpiresIn int    `json:"expires_in_seconds"`
	DevCode   string `json:"dev_code,omitempty"`
}

// VerifyOTPInput carries a code verification request.
type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
	Name  string `json:"name"`
}

// RefreshInput rotates a refresh session.
type RefreshInput struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthTokens is returned on successful login or refresh.
type AuthTokens struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
	VendorID     *uuid.UUID   `json:"vendor_id,omitempty"`
}
