package services

import (
	"context"
	"strings"

	"reviewhub_backend/internal/auth"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/pkg/apperrors"
)

// AdminCredentials is the single configured admin account.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// Session is an issued admin session.
type Session struct {
	Token    string
	Identity auth.Identity
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Verify(token string) (*auth.Identity, error)
}

type authService struct {
	creds  AdminCredentials
	issuer *auth.SessionIssuer
}

func NewAuthService(creds AdminCredentials, issuer *auth.SessionIssuer) AuthService {
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	return &authService{creds: creds, issuer: issuer}
}

// Login compares the email case-insensitively and the password against the
// bcrypt hash. Both failures produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.creds.Email == "" || s.creds.PasswordHash == "" {
		return nil, apperrors.ConfigError("admin login", "ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set")
	}

	emailOK := strings.ToLower(strings.TrimSpace(email)) == s.creds.Email
	passwordOK := auth.CheckPasswordHash(password, s.creds.PasswordHash)
	if !emailOK || !passwordOK {
		logger.CtxWarn(ctx, "admin login rejected", "email", email)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, exp, err := s.issuer.Issue(s.creds.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "admin logged in", "email", s.creds.Email)
	return &Session{
		Token:    token,
		Identity: auth.Identity{Email: s.creds.Email, Role: auth.RoleAdmin, ExpiresAt: exp},
	}, nil
}

func (s *authService) Verify(token string) (*auth.Identity, error) {
	id, err := s.issuer.Verify(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return id, nil
}
