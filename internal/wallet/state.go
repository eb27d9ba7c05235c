package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var TimeNow = time.Now

var (
	ErrStateNotValid = errors.New("state token is not valid")
	ErrStateExpired  = errors.New("state token expired")
)

// StateTokens signs the round trip through the wallet so a callback can only
// complete the sign-in it was started for.
type StateTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewStateTokens(secret []byte, ttl time.Duration) *StateTokens {
	return &StateTokens{secret: secret, ttl: ttl}
}

func (s *StateTokens) Issue(sid, publicKey string) (string, error) {
	now := TimeNow()
	claims := jwt.MapClaims{
		"sub": sid,
		"pk":  publicKey,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return tok, nil
}

// Parse returns the sid and public key a state token was issued for.
func (s *StateTokens) Parse(token string) (sid, publicKey string, err error) {
	parser := jwt.Parser{SkipClaimsValidation: true}
	tok, err := parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse state: %v: %w", err, ErrStateNotValid)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", "", ErrStateNotValid
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", "", ErrStateNotValid
	}
	if int64(exp) < TimeNow().Unix() {
		return "", "", fmt.Errorf("state expired at %v: %w", time.Unix(int64(exp), 0), ErrStateExpired)
	}
	sid, _ = claims["sub"].(string)
	publicKey, _ = claims["pk"].(string)
	if sid == "" || publicKey == "" {
		return "", "", ErrStateNotValid
	}
	return sid, publicKey, nil
}
