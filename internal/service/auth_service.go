package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/config"
	"github.com/spec-kit/estate-service/internal/domain"
	"github.com/spec-kit/estate-service/internal/repository"
	apperrors "github.com/spec-kit/estate-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and the refresh token lifecycle.
// At most one refresh token is valid per user at any instant; rotation relies
// on the repository's conditional update so concurrent refreshes resolve to a
// single winner.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// NewAuthServiceWithTokens builds the service around an existing token
// manager, letting callers share it with the session middleware.
func NewAuthServiceWithTokens(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokenMgr: tokens, bcryptCost: bcryptCost}
}

// Register creates a new account. A duplicate email is a conflict, not an
// internal error.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user with this email exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates by email and password, then issues and persists a fresh
// token pair. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.TokenPair{}, apperrors.NewUnauthenticated("invalid email or password")
		}
		return nil, auth.TokenPair{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.TokenPair{}, apperrors.NewUnauthenticated("invalid email or password")
	}

	pair, err := s.tokenMgr.Issue(user.ID, user.Email)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a presented refresh token for a new pair, rotating the
// stored value. A stale token has no matching row, which covers the
// already-rotated reuse case; losing a concurrent rotation race surfaces the
// same way. A failed refresh never mutates the stored token.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*domain.User, auth.TokenPair, error) {
	if presented == "" {
		return nil, auth.TokenPair{}, apperrors.NewMissingRefreshToken()
	}

	user, err := s.users.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.TokenPair{}, apperrors.NewUnknownRefreshToken()
		}
		return nil, auth.TokenPair{}, err
	}

	pair, err := s.tokenMgr.Issue(user.ID, user.Email)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	if err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.TokenPair{}, apperrors.NewUnknownRefreshToken()
		}
		return nil, auth.TokenPair{}, err
	}
	return user, pair, nil
}

// Logout invalidates the presented refresh token. Unknown or absent tokens
// are ignored; cookie clearing happens at the transport regardless.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	user, err := s.users.GetByRefreshToken(ctx, presented)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return s.users.SetRefreshToken(ctx, user.ID, nil)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
