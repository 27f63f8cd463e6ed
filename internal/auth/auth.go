// Package auth issues and verifies the signed tokens that carry a user's
// principal identifier. Verification is deliberately uniform: any malformed,
// expired or otherwise bad token yields ErrUnauthenticated, so callers never
// leak why a credential was rejected.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is the single failure value for any bad credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the payload embedded in issued tokens.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier validates tokens and issues new ones for the login flow.
type Verifier struct {
	secret   []byte
	issuer   string
	validity time.Duration
}

func NewVerifier(secret, issuer string, validity time.Duration) *Verifier {
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		validity: validity,
	}
}

// GenerateToken creates a signed HS256 token for the given principal.
func (v *Verifier) GenerateToken(userID uint) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(v.validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// VerifyToken parses and validates a token string and returns the principal
// identifier it carries. Every failure mode collapses to ErrUnauthenticated.
func (v *Verifier) VerifyToken(tokenString string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrUnauthenticated
	}
	return claims.UserID, nil
}
