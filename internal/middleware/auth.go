package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

// Context keys set by the auth middleware.
const (
	UserIDKey      = "user_id"
	IsAdminKey     = "is_admin"
	TokenClaimsKey = "token_claims"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// bearerToken extracts the token from "Token <t>" or "Bearer <t>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the Authorization header. found is false when no
// header was sent.
func authenticate(c *gin.Context, validator TokenValidator) (found bool, ok bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return false, true
	}

	token, valid := bearerToken(header)
	if !valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid authorization header format"})
		return true, false
	}

	claims, err := validator.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
		return true, false
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(IsAdminKey, claims.Admin)
	c.Set(TokenClaimsKey, claims)
	return true, true
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, ok := authenticate(c, validator)
		if !ok {
			return
		}
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent and lets
// anonymous requests through. A token that fails validation is still
// rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, validator); !ok {
			return
		}
		c.Next()
	}
}

// Claims returns the validated token claims of the request, if any.
func Claims(c *gin.Context) (*types.TokenClaims, bool) {
	v, ok := c.Get(TokenClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*types.TokenClaims)
	return claims, ok
}
