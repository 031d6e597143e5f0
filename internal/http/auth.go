package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/classroom-booking/internal/application"
	"github.com/example/classroom-booking/internal/booking"
)

var errInvalidToken = errors.New("invalid token")

// Claims is the identity asserted by the token issuer.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens signed with a shared secret.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier builds a verifier. now defaults to time.Now.
func NewTokenVerifier(secret string, now func() time.Time) *TokenVerifier {
	if now == nil {
		now = time.Now
	}
	return &TokenVerifier{secret: []byte(secret), now: now}
}

// Verify parses token and returns the principal it asserts.
func (v *TokenVerifier) Verify(token string) (application.Principal, error) {
	if v == nil || len(v.secret) == 0 {
		return application.Principal{}, fmt.Errorf("%w: verifier not configured", errInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !parsed.Valid {
		return application.Principal{}, errInvalidToken
	}
	if strings.TrimSpace(claims.ID) == "" {
		return application.Principal{}, fmt.Errorf("%w: missing id claim", errInvalidToken)
	}

	return application.Principal{
		UserID: claims.ID,
		Role:   booking.ParseRole(claims.Role),
	}, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
