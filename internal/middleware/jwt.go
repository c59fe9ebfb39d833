package middleware

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aftras/crm/internal/models"
)

// TokenIssuer identifies the identity provider that signs access tokens.
const TokenIssuer = "AFTRAS"

// Claims are the parts of a validated access token the API relies on.
type Claims struct {
	Subject string
	Role    models.UserRole
}

// ValidateToken checks the token's signature and standard claims and
// extracts subject and role. Any deviation returns a descriptive error;
// expiry is reported as jwt.ErrTokenExpired.
func ValidateToken(tokenString string, publicKey *rsa.PublicKey) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	// ─── Standard claim checks ────────────────────────────────────────────────────
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("missing expiration claim")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, jwt.ErrTokenExpired
	}

	iss, ok := claims["iss"].(string)
	if !ok {
		return nil, errors.New("missing issuer claim")
	}
	if iss != TokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	// ─── Identity ────────────────────────────────────────────────────────────────
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing subject")
	}
	roleStr, _ := claims["role"].(string)
	role := models.UserRole(roleStr)
	if !role.Valid() {
		return nil, errors.New("missing or unknown role claim")
	}

	return &Claims{Subject: sub, Role: role}, nil
}
