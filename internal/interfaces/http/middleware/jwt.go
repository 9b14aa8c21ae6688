package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/datadik/portal/internal/domain/identity"
	"github.com/datadik/portal/internal/infrastructure/auth"
	"github.com/datadik/portal/internal/infrastructure/logger"
	"github.com/datadik/portal/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set once a session is accepted
const (
	JWTClaimsKey      = "jwt_claims"
	JWTUserIDKey      = "jwt_user_id"
	JWTRoleKey        = "jwt_role"
	JWTNPSNKey        = "jwt_npsn"
	JWTOrgIDKey       = "jwt_org_id"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
	SessionCookieName = "datadik_session"
)

var (
	errBadAuthHeader = errors.New("authorization header is not a bearer token")
	errNoSession     = errors.New("no session token")
)

// JWTMiddlewareConfig configures the session guard
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is consulted when set. A failing blacklist lets the
	// request through.
	TokenBlacklist auth.TokenBlacklist
	// CookieName is read when no Authorization header is sent
	CookieName       string
	SkipPaths        []string
	SkipPathPrefixes []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves login, refresh, the health check and the API docs
// open
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService:       jwtService,
		CookieName:       SessionCookieName,
		SkipPaths:        []string{"/health", "/api/auth/login", "/api/auth/refresh"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// JWTAuthMiddleware rejects requests without a valid session
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig is JWTAuthMiddleware with a custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sessions := newSessionReader(cfg.JWTService, cfg.TokenBlacklist, cfg.CookieName, log)

	return func(c *gin.Context) {
		if skipsAuth(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := sessions.read(c.Request.Context(), c.Request)
		if err != nil {
			if cfg.OnError != nil {
				cfg.OnError(c, err)
				return
			}
			log.Warn("Session rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			code, message := authErrorMessage(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
			return
		}

		setClaims(c, claims)
		log.Debug("Session accepted", zap.String("user_id", claims.UserID), zap.String("role", claims.Role))
		c.Next()
	}
}

// OptionalJWTAuthMiddleware attaches the session when one is valid and lets
// anonymous visitors through otherwise
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	sessions := newSessionReader(jwtService, blacklist, SessionCookieName, zap.NewNop())
	return func(c *gin.Context) {
		if claims, err := sessions.read(c.Request.Context(), c.Request); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func skipsAuth(cfg JWTMiddlewareConfig, path string) bool {
	if slices.Contains(cfg.SkipPaths, path) {
		return true
	}
	return slices.ContainsFunc(cfg.SkipPathPrefixes, func(p string) bool { return strings.HasPrefix(path, p) })
}

func authErrorMessage(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Sesi telah berakhir, silakan login kembali."
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.ErrCodeTokenInvalid, "Sesi telah dicabut, silakan login kembali."
	case errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token tidak valid."
	default:
		return dto.ErrCodeUnauthorized, "Silakan login terlebih dahulu."
	}
}

// sessionReader pulls a token from the request and validates it
type sessionReader struct {
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	cookie    string
	logger    *zap.Logger
}

func newSessionReader(jwt *auth.JWTService, blacklist auth.TokenBlacklist, cookie string, log *zap.Logger) *sessionReader {
	if cookie == "" {
		cookie = SessionCookieName
	}
	return &sessionReader{jwt: jwt, blacklist: blacklist, cookie: cookie, logger: log}
}

func (s *sessionReader) read(ctx context.Context, r *http.Request) (*auth.Claims, error) {
	token, err := bearerOrCookie(r, s.cookie)
	if err != nil {
		return nil, err
	}
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if s.blacklist == nil {
		return claims, nil
	}
	revoked, err := auth.IsRevoked(ctx, s.blacklist, claims)
	if err != nil {
		s.logger.Error("Token blacklist unavailable", zap.String("jti", claims.ID), zap.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

// bearerOrCookie prefers the Authorization header; browsers send the
// session cookie instead
func bearerOrCookie(r *http.Request, cookieName string) (string, error) {
	if header := r.Header.Get(AuthHeaderKey); header != "" {
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			return "", errBadAuthHeader
		}
		return token, nil
	}
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", errNoSession
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTRoleKey, claims.Role)
	c.Set(JWTNPSNKey, claims.NPSN)
	c.Set(JWTOrgIDKey, claims.OrgID)

	ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
	if claims.OrgID != "" {
		ctx = logger.WithOrgID(ctx, claims.OrgID)
	}
	c.Request = c.Request.WithContext(ctx)
}

// GetJWTClaims returns the accepted session claims, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string { return c.GetString(JWTUserIDKey) }

func GetJWTRole(c *gin.Context) string { return c.GetString(JWTRoleKey) }

func GetJWTOrgID(c *gin.Context) string { return c.GetString(JWTOrgIDKey) }

// GetPrincipal returns the signed-in account, if any
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return identity.Principal{}, false
	}
	return PrincipalFromClaims(claims)
}

// PrincipalFromClaims converts session claims into a Principal
func PrincipalFromClaims(claims *auth.Claims) (identity.Principal, bool) {
	userID, err := claims.GetUserUUID()
	if err != nil {
		return identity.Principal{}, false
	}
	orgID, err := claims.GetOrgUUID()
	if err != nil {
		return identity.Principal{}, false
	}
	return identity.Principal{
		UserID: userID,
		Role:   identity.Role(claims.Role),
		NPSN:   claims.NPSN,
		OrgID:  orgID,
	}, true
}

// SessionChecker answers whether a request carries a live session. The
// host router uses it to decide where /dashboard and /login go.
type SessionChecker struct {
	sessions *sessionReader
}

// NewSessionChecker creates a session checker. blacklist may be nil.
func NewSessionChecker(jwtService *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *SessionChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionChecker{sessions: newSessionReader(jwtService, blacklist, SessionCookieName, logger)}
}

// HasSession reports whether r carries a valid session
func (s *SessionChecker) HasSession(r *http.Request) bool {
	return s.Claims(r.Context(), r) != nil
}

// Claims returns the validated claims of r, or nil
func (s *SessionChecker) Claims(ctx context.Context, r *http.Request) *auth.Claims {
	if s == nil || s.sessions.jwt == nil {
		return nil
	}
	claims, err := s.sessions.read(ctx, r)
	if err != nil {
		return nil
	}
	return claims
}
