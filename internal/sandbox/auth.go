package sandbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatex/pkg/chatex/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered claims plus the account the token acts for.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64 `json:"account_id"`
}

type tokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Issue mints an HS256 token for accountID. expires_at is truncated to whole
// seconds, like the exp claim.
func (i *tokenIssuer) Issue(accountID int64) (models.AccessToken, error) {
	now := i.now()
	exp := now.Add(i.ttl).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		AccountID: accountID,
	})

	signed, err := token.SignedString(i.key)
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return models.AccessToken{AccessToken: signed, ExpiresAt: exp.Unix()}, nil
}

// Parse validates signature, algorithm and expiry and returns the claims.
func (i *tokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
