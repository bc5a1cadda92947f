package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in a JWT token. RegisteredClaims.ID is
// the token id used for revocation.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`

	// Admin is resolved from the database on every request, never signed.
	Admin bool `json:"-"`
}

// LoginRequest is the body of POST /auth/token/login/.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}
