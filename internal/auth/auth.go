package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mindcare-web/internal/model"
)

var ErrBadToken = errors.New("invalid token")

// Claims mirrors what the backend puts in its access tokens.
type Claims struct {
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken decodes a backend token. With a secret the HS256 signature is
// verified; without one only the payload and expiry are checked and the
// backend stays the authority.
func ParseToken(raw, secret string) (*Claims, error) {
	if raw == "" {
		return nil, ErrBadToken
	}
	c := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, c); err != nil {
			return nil, err
		}
		if c.ExpiresAt != nil && !c.ExpiresAt.After(time.Now()) {
			return nil, jwt.ErrTokenExpired
		}
	} else {
		tok, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
			// block alg confusion
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrBadToken
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
		if err != nil {
			return nil, err
		}
		if !tok.Valid {
			return nil, ErrBadToken
		}
	}
	if c.UserID == "" || !c.Role.Valid() {
		return nil, ErrBadToken
	}
	return c, nil
}

// MakeToken signs claims the way the backend does; used by tests and local tooling.
func MakeToken(uid string, role model.Role, secret string, ttl time.Duration) (string, error) {
	c := Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// HomePath is where a role lands after login or a wrong-role redirect.
func HomePath(r model.Role) string {
	switch r {
	case model.RolePatient:
		return "/patient/dashboard"
	case model.RoleTherapist:
		return "/therapist/dashboard"
	case model.RoleAdmin:
		return "/admin/dashboard"
	}
	return "/"
}
