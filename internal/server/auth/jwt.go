// Package auth issues and checks the HS256 tokens handed out by the dev auth
// server. The operator identifier travels in a "payload" object so clients
// can read it without verifying the signature.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/socguard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Payload struct {
	Identifier string `json:"identifier"`
}

// Claims carries the registered exp/iat/jti claims next to Payload.
type Claims struct {
	jwt.RegisteredClaims
	Payload Payload `json:"payload"`
}

func GenerateToken(identifier string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Payload: Payload{Identifier: identifier},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// GetIdentifierFromToken verifies tokenString and returns the identifier it
// was issued for. Any failure is reported as common.ErrInvalidToken.
func GetIdentifierFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Payload.Identifier == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Payload.Identifier, nil
}
