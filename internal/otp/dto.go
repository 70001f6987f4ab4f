package otp

import "github.com/freshoils/freshoils-backend/internal/accounts"

// SendRequest asks for a one-time code to be delivered to the phone number.
type SendRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// SendResponse acknowledges the dispatch. Delivery problems are never
// surfaced to the caller.
type SendResponse struct {
	Message string `json:"message"`
}

// VerifyRequest carries the phone number and the code to redeem.
type VerifyRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Code        string `json:"otp" validate:"required,len=4,numeric"`
}

// VerifyResponse contains the token pair and user for a redeemed code.
type VerifyResponse struct {
	AccessToken  string            `json:"access"`
	RefreshToken string            `json:"refresh"`
	User         *accounts.UserDTO `json:"user"`
}
