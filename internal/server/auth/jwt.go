// Package auth issues and verifies the HS256 session tokens handed out after
// a successful credential check.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var errEmptySecret = errors.New("jwt secret must not be empty")

// Claims are the registered claims plus a snapshot of the account taken when
// the token was issued.
type Claims struct {
	jwt.RegisteredClaims
	AccountID     string        `json:"accountId"`
	AccountName   string        `json:"accountName"`
	AccountFields models.Fields `json:"accountFields"`
}

// GenerateToken signs a session token for identity, valid for validityDuration.
func GenerateToken(identity models.Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", errEmptySecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID:     identity.AccountID,
		AccountName:   identity.Name,
		AccountFields: identity.Fields,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the identity it carries.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (models.Identity, error) {
	if len(secretKey) == 0 || tokenString == "" {
		return models.Identity{}, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, common.ErrTokenExpired
		}
		return models.Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" {
		return models.Identity{}, common.ErrInvalidToken
	}

	return models.Identity{
		AccountID: claims.AccountID,
		Name:      claims.AccountName,
		Fields:    claims.AccountFields,
	}, nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
