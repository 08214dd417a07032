package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// ErrInvalidSession covers every verification failure. Callers must not
// distinguish between a missing, forged, expired or wrong-role token.
var ErrInvalidSession = errors.New("invalid session")

type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified admin behind a session token.
type Identity struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionIssuer signs and verifies HS256 admin session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for email carrying the admin role.
func (s *SessionIssuer) Issue(email string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := SessionClaims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(strings.TrimSpace(email)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify checks signature, algorithm, expiry and role.
func (s *SessionIssuer) Verify(token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidSession
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Role != RoleAdmin || claims.Email == "" {
		return nil, ErrInvalidSession
	}

	return &Identity{Email: claims.Email, Role: claims.Role, ExpiresAt: claims.ExpiresAt.Time}, nil
}
