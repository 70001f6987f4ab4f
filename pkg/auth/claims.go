package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uint
	Phone   string
	IsStaff bool
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  uint   `json:"user_id"`
	Phone   string `json:"phone_number"`
	IsStaff bool   `json:"is_staff"`
	jwt.RegisteredClaims
}
