package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/jwtutil"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// TokenService issues, rotates and revokes token pairs
type TokenService struct {
	jwt       *jwtutil.JWTUtil
	blacklist tokenstore.Blacklist
	users     repository.UserRepository
	publisher events.Publisher
}

// NewTokenService creates a TokenService
func NewTokenService(jwt *jwtutil.JWTUtil, blacklist tokenstore.Blacklist, users repository.UserRepository, publisher events.Publisher) *TokenService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TokenService{jwt: jwt, blacklist: blacklist, users: users, publisher: publisher}
}

// Issue mints a fresh pair for user
func (s *TokenService) Issue(user *model.User) (*jwtutil.TokenPair, error) {
	return s.jwt.GeneratePair(jwtutil.Subject{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
	})
}

// Refresh rotates refreshToken: the presented token is blacklisted and a new
// pair is issued for the same user. A token can be rotated at most once, and
// only while its user is still live and active.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*jwtutil.TokenPair, *jwtutil.UserClaims, error) {
	claims, err := s.consume(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAuthenticationFailed
	}

	pair, err := s.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.FromStdContext(ctx).Info("Refresh token rotated",
		zap.Uint("user_id", user.ID),
		zap.String("jti", claims.ID),
	)
	publish(ctx, s.publisher, events.SubjectTokenRefreshed, events.Event{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
	})
	return pair, claims, nil
}

// Revoke blacklists refreshToken
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) (*jwtutil.UserClaims, error) {
	claims, err := s.consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.SubjectUserLoggedOut, events.Event{
		UserID:   claims.UserID,
		Email:    claims.Email,
		TenantID: claims.TenantID,
	})
	return claims, nil
}

// Authenticate validates an access token presented by a caller
func (s *TokenService) Authenticate(accessToken string) (*jwtutil.UserClaims, error) {
	if accessToken == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := s.jwt.ValidateToken(accessToken, jwtutil.AccessToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// consume validates a refresh token and atomically blacklists its jti.
// Contains turns away already revoked tokens without a write; Add stays the
// arbiter between concurrent callers.
func (s *TokenService) consume(ctx context.Context, refreshToken string) (*jwtutil.UserClaims, error) {
	if refreshToken == "" {
		return nil, &TokenError{Detail: DetailNoRefreshToken}
	}

	claims, err := s.jwt.ValidateToken(refreshToken, jwtutil.RefreshToken)
	if err != nil {
		if errors.Is(err, jwtutil.ErrWrongTokenType) {
			return nil, &TokenError{Detail: DetailTokenWrongType, Err: err}
		}
		return nil, &TokenError{Detail: DetailTokenInvalid, Err: err}
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		return nil, &TokenError{Detail: DetailTokenBlacklisted}
	}

	if err := s.blacklist.Add(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
		if errors.Is(err, tokenstore.ErrAlreadyBlacklisted) {
			return nil, &TokenError{Detail: DetailTokenBlacklisted, Err: err}
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return claims, nil
}
