package auth

import "github.com/freshoils/freshoils-backend/internal/accounts"

// CheckUserRequest asks whether an account exists for the phone number.
type CheckUserRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// CheckUserResponse reports account existence for the phone number.
type CheckUserResponse struct {
	Exists bool `json:"exists"`
}

// LoginRequest captures the credentials sent to the password login endpoint.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string            `json:"access"`
	RefreshToken string            `json:"refresh"`
	User         *accounts.UserDTO `json:"user"`
}

// RegisterRequest carries the verified-phone registration payload. The
// identity token proves phone ownership.
type RegisterRequest struct {
	IdentityToken string `json:"id_token" validate:"required"`
	Name          string `json:"name" validate:"required,max=120"`
	Password      string `json:"password" validate:"required,min=8,max=128"`
}

// ResetPasswordRequest carries the verified-phone credential reset payload.
type ResetPasswordRequest struct {
	IdentityToken string `json:"id_token" validate:"required"`
	NewPassword   string `json:"new_password" validate:"required,min=8,max=128"`
}

// RefreshRequest carries the opaque refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh" validate:"required"`
}

// RefreshResponse contains the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}
