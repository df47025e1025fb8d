// Package auth mints and verifies the short-lived upload tokens carried by
// form uploads and gRPC streams.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims of an upload token. Subject holds the
// ID of the file the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for fileID valid for validityDuration.
func GenerateToken(fileID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign upload token: %w", err)
	}

	return tokenString, nil
}

// GetFileIDFromToken verifies tokenString and returns its subject.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func GetFileIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
