// Package auth issues and checks the portal's session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/datadik/portal/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType separates short-lived access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims identify a signed-in account. Access tokens also carry the role
// and, for operators, the school the account manages.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	Role      string    `json:"role,omitempty"`
	NPSN      string    `json:"npsn,omitempty"`
	OrgID     string    `json:"org_id,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// TokenPair is what a successful login or refresh hands back
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// GenerateTokenInput describes the account a pair is issued for
type GenerateTokenInput struct {
	UserID uuid.UUID
	Role   string
	NPSN   string
	OrgID  *uuid.UUID
}

// JWTService signs and verifies HS256 session tokens
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	ttl           map[TokenType]time.Duration
	issuer        string
}

// NewJWTService creates a service from cfg. Refresh tokens share the access
// secret when no refresh secret is set.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.Secret
	}
	return &JWTService{
		accessSecret:  []byte(cfg.Secret),
		refreshSecret: []byte(refresh),
		ttl: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenExpiration,
			TokenTypeRefresh: cfg.RefreshTokenExpiration,
		},
		issuer: cfg.Issuer,
	}
}

func (s *JWTService) secret(kind TokenType) []byte {
	if kind == TokenTypeRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

// GenerateTokenPair issues an access and a refresh token for input. The
// refresh token carries identity only; role and school are reloaded from
// the database when it is redeemed.
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	now := time.Now()

	access := &Claims{UserID: input.UserID.String(), Role: input.Role, NPSN: input.NPSN}
	if input.OrgID != nil && *input.OrgID != uuid.Nil {
		access.OrgID = input.OrgID.String()
	}
	accessToken, accessExp, err := s.sign(access, TokenTypeAccess, now)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.sign(&Claims{UserID: input.UserID.String()}, TokenTypeRefresh, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) sign(claims *Claims, kind TokenType, now time.Time) (string, time.Time, error) {
	expires := now.Add(s.ttl[kind])
	claims.TokenType = kind
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(expires),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret(kind))
	return signed, expires, err
}

// ValidateAccessToken checks an access token and returns its claims
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess)
}

// ValidateRefreshToken checks a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeRefresh)
}

func (s *JWTService) parse(raw string, kind TokenType) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret(kind), nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case !token.Valid:
		return nil, ErrInvalidClaims
	case claims.TokenType != kind:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// GetUserUUID parses the account ID
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetOrgUUID parses the school ID. It is nil for district admins.
func (c *Claims) GetOrgUUID() (*uuid.UUID, error) {
	if c.OrgID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(c.OrgID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GetIssuedAtTime is the issue time, or zero when the claim is missing
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is how long the token stays valid; never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
