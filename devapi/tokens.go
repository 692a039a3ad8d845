package devapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/coffee-shop-web/internal/errors"
)

// Token types carried in the "type" claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
	TokenReset   = "reset"
)

// Token lifetimes
const (
	AccessTokenTTL  = 30 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = 60 * time.Minute
)

type tokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 tokens whose subject is the account email.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

func (ti *TokenIssuer) Issue(email, tokenType string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := tokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("[TokenIssuer Issue] %w", err)
	}
	return signed, nil
}

// Verify returns the email of a valid, unexpired token of tokenType.
func (ti *TokenIssuer) Verify(raw, tokenType string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
	if claims.Type != tokenType || claims.Subject == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidToken, "want %s token, got %q", tokenType, claims.Type)
	}
	return claims.Subject, nil
}
