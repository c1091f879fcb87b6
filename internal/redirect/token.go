// Package redirect issues and verifies the short-lived tokens that gate
// outbound resource links.
//
// Tokens are not single-use: a captured token keeps working for a resource
// until it expires.
package redirect

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the token lifetime.
const DefaultTTL = 2 * time.Hour

var errEmptySecret = errors.New("redirect token secret is required")

// Claims binds a token to one resource.
type Claims struct {
	ResourceID string `json:"rid"`
	jwt.RegisteredClaims
}

// Service signs tokens with HS256.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a Service. A non-positive ttl uses DefaultTTL.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for resourceID expiring TTL from now.
func (s *Service) Issue(resourceID string) (string, error) {
	now := s.now()
	claims := &Claims{
		ResourceID: resourceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign redirect token: %w", err)
	}
	return signed, nil
}

// Verify reports whether token is correctly signed, unexpired and bound to
// resourceID. It never returns an error: every failure is false.
func (s *Service) Verify(token, resourceID string) bool {
	if token == "" || resourceID == "" {
		return false
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}

	claims, ok := parsed.Claims.(*Claims)
	return ok && claims.ResourceID == resourceID
}
