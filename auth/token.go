// Package auth is the interface to the external identity layer: it only
// validates the bearer tokens that layer issues. User creation, passwords
// and admin management live elsewhere.
package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatwire/errors"
)

// jwtKey is the secret shared with the identity service.
// CHATWIRE_JWT_SECRET overrides the development default.
var jwtKey = func() []byte {
	if s := os.Getenv("CHATWIRE_JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_only_chatwire_secret_2026")
}()

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user. The server itself
// never logs users in; this exists for tooling and tests.
func GenerateToken(userID, username string, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chatwire",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateToken parses and validates the signature and expiration of a JWT
// string, returning the embedded identity.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
