package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenCodec issues and verifies the signed auth tokens handed out on
// login. Tokens are stateless, validity is signature + expiry only
type TokenCodec struct {
	secret []byte
	expiry time.Duration
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		expiry: time.Hour * 24,
	}
}

type TokenClaims struct {
	UserID string
	Email  string
}

func (t *TokenCodec) Issue(userID, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(t.expiry).Unix(),
	})

	return token.SignedString(t.secret)
}

func (t *TokenCodec) Verify(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(tk *jwt.Token) (any, error) {
		if tk.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", tk.Method.Alg())
		}

		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	email, _ := claims["email"].(string)

	return &TokenClaims{
		UserID: userID,
		Email:  email,
	}, nil
}
