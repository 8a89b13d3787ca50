package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access-token payload. Users are provisioned by the
// identity provider, so the token is the only source of the caller's identity.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
