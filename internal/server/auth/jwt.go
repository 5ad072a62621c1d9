// Package auth implements the session token service and password hashing
// used by the account and post handlers.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkuzmin/blogd/internal/common"
)

// Claims carries the identity of an authenticated account inside a session
// token: standard registered claims plus the account id, username and role.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// GenerateToken signs {accountId, username, role} with a symmetric secret
// using HS256 and the given validity duration.
func GenerateToken(accountID, username, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AccountID: accountID,
		Username:  username,
		Role:      role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the token's signature, algorithm and expiry and returns
// the decoded claims. Expired tokens yield common.ErrTokenExpired; any other
// failure yields common.ErrInvalidToken. A failure here means the request is
// unauthenticated, never a fatal condition.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
