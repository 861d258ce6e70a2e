package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// Claims represents the JWT claims minted by the identity API.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenInspector validates access tokens against the secret shared with the
// identity API and extracts claims for audit enrichment. The route guard
// deliberately does not use it; presence checks stay signature-free.
type TokenInspector struct {
	secret []byte
}

// NewTokenInspector creates an inspector with the given shared secret.
func NewTokenInspector(secret string) *TokenInspector {
	return &TokenInspector{secret: []byte(secret)}
}

// Validate parses and validates a token, returning its claims.
func (s *TokenInspector) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Email returns the email claim of a valid token, or "" when the token
// cannot be validated. Best-effort, for audit records only.
func (s *TokenInspector) Email(tokenString string) string {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return ""
	}
	return claims.Email
}
