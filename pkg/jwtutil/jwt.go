package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/suteetoe/tenant-auth-service/pkg/config"
)

// TokenType distinguishes access tokens from refresh tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and expiry
	ErrTokenInvalid = errors.New("token is invalid or expired")
	// ErrWrongTokenType is returned when an access token is used as a refresh token or vice versa
	ErrWrongTokenType = errors.New("token has wrong type")
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	TenantID  *uint     `json:"tenant_id,omitempty"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Subject is the identity a token pair is minted for
type Subject struct {
	UserID   uint
	Email    string
	TenantID *uint
}

// TokenPair is a freshly minted access/refresh pair
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: cfg,
		now:    time.Now,
	}
}

// WithClock replaces the time source, used to exercise expiry
func (j *JWTUtil) WithClock(now func() time.Time) *JWTUtil {
	j.now = now
	return j
}

// AccessLifetime returns the configured access token lifetime
func (j *JWTUtil) AccessLifetime() time.Duration {
	return j.config.AccessTokenLifetime
}

// RefreshLifetime returns the configured refresh token lifetime
func (j *JWTUtil) RefreshLifetime() time.Duration {
	return j.config.RefreshTokenLifetime
}

// GeneratePair mints an access token and a refresh token for subject
func (j *JWTUtil) GeneratePair(subject Subject) (*TokenPair, error) {
	now := j.now()

	access, accessExp, err := j.generate(subject, AccessToken, now, j.config.AccessTokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, refreshExp, err := j.generate(subject, RefreshToken, now, j.config.RefreshTokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (j *JWTUtil) generate(subject Subject, tokenType TokenType, now time.Time, lifetime time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(lifetime)
	claims := UserClaims{
		UserID:    subject.UserID,
		Email:     subject.Email,
		TenantID:  subject.TenantID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.config.Issuer,
			Subject:   fmt.Sprintf("%d", subject.UserID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates and parses the JWT token, requiring the given type
func (j *JWTUtil) ValidateToken(tokenString string, expected TokenType) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(j.config.SigningKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(j.config.Issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expected {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
