package origin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "gragolf-storefront"

var ErrInvalidToken = errors.New("invalid token")

type TokenMaker struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenMaker(secret string, ttl time.Duration) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type Claims struct {
	OriginID string `json:"origin_id"`
	jwt.RegisteredClaims
}

// Issue mints a token for a fresh origin id.
func (t *TokenMaker) Issue() (token, originID string, err error) {
	originID = uuid.NewString()
	token, err = t.New(originID)
	return token, originID, err
}

func (t *TokenMaker) New(originID string) (string, error) {
	now := t.now()

	claims := Claims{
		OriginID: originID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   originID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid || c.OriginID == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}
