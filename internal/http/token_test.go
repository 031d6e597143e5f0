package http

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/classroom-booking/internal/application"
)

// signToken signs a token for principal that expires after ttl. A zero ttl omits expiry.
func signToken(secret string, principal application.Principal, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		ID:   principal.UserID,
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
