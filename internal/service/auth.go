package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "foodgram"

type AuthService struct {
	db        *gorm.DB
	authz     *authz.Enforcer
	tokens    TokenStore
	jwtSecret []byte
	ttl       time.Duration
}

func NewAuthService(db *gorm.DB, enforcer *authz.Enforcer, tokens TokenStore, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		db:        db,
		authz:     enforcer,
		tokens:    tokens,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
	}
}

// Login exchanges an email and password for a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if err := authorize(s.authz, Actor{}, authz.Token, authz.Login, 0); err != nil {
		return "", err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, _, err := s.GenerateToken(&user)
	return token, err
}

// GenerateToken signs a new token for user.
func (s *AuthService) GenerateToken(user *models.User) (string, *types.TokenClaims, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// ValidateToken checks the signature, expiry and revocation of a token and
// resolves the current admin status of its user.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Groups").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	claims.Admin = user.IsRecipeAdmin()

	return claims, nil
}

// Logout revokes the token described by claims for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if err := authorize(s.authz, Actor{UserID: claims.UserID}, authz.Token, authz.Logout, 0); err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.tokens.Revoke(ctx, claims.ID, ttl)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
