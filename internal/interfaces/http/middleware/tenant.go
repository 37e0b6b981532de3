package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mrp/backend/internal/infrastructure/logger"
	"github.com/mrp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys for the resolved tenant and acting user
const (
	TenantIDKey     = "tenant_id"
	UserIDKey       = "user_id"
	TenantHeaderKey = "X-Tenant-ID"
	UserHeaderKey   = "X-User-ID"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// TenantClaims are the claims this service reads from bearer tokens.
// Tokens are issued by the external identity provider; only the tenant
// and the subject (acting user) matter here.
type TenantClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// TenantAuthConfig holds configuration for the tenant auth middleware
type TenantAuthConfig struct {
	// Secret is the HMAC key used to verify bearer tokens
	Secret string
	// Issuer, when set, must match the token's iss claim
	Issuer string
	// DevTenantID is the fallback tenant for local development when no
	// token or header is present. Leave empty to require identification.
	DevTenantID string
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantAuthConfig returns the default middleware configuration
func DefaultTenantAuthConfig(secret string) TenantAuthConfig {
	return TenantAuthConfig{
		Secret:    secret,
		SkipPaths: []string{"/health", "/healthz", "/ready", "/metrics", "/swagger"},
	}
}

// TenantAuth resolves the tenant and acting user for every request.
// Resolution order: JWT tenant_id claim > X-Tenant-ID header > configured
// dev fallback. The acting user comes from the JWT subject or the X-User-ID
// header. Requests without any tenant identification are rejected with 401.
func TenantAuth(cfg TenantAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var tenantID, userID, method string

		// Priority 1: bearer token claims
		if header := c.GetHeader(AuthHeaderKey); strings.HasPrefix(header, BearerPrefix) {
			claims, err := parseTenantClaims(strings.TrimPrefix(header, BearerPrefix), cfg)
			if err != nil {
				respondUnauthorized(c, "Invalid or expired token")
				return
			}
			tenantID = claims.TenantID
			userID = claims.Subject
			method = "jwt"
		}

		// Priority 2: X-Tenant-ID header
		if tenantID == "" {
			if headerTenantID := c.GetHeader(TenantHeaderKey); headerTenantID != "" {
				tenantID = headerTenantID
				method = "header"
			}
		}

		// Priority 3: dev fallback
		if tenantID == "" && cfg.DevTenantID != "" {
			tenantID = cfg.DevTenantID
			method = "dev_default"
		}

		if tenantID == "" {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}

		if userID == "" {
			userID = c.GetHeader(UserHeaderKey)
		}
		if userID != "" {
			if _, err := uuid.Parse(userID); err != nil {
				respondUnauthorized(c, "Invalid user ID format")
				return
			}
			c.Set(UserIDKey, userID)
		}

		c.Set(TenantIDKey, tenantID)

		// Propagate to the request context for the service layer
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithTenantID(ctx, log, tenantID)
		if userID != "" {
			ctx, _ = logger.WithUserID(ctx, log, userID)
		}
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Tenant identified",
				zap.String("tenant_id", tenantID),
				zap.String("method", method),
			)
		}

		c.Next()
	}
}

// parseTenantClaims verifies the token signature and extracts the claims
func parseTenantClaims(tokenString string, cfg TenantAuthConfig) (*TenantClaims, error) {
	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TenantID == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return claims, nil
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(
		http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, requestID),
	)
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// MustGetTenantUUID retrieves the tenant ID as UUID or panics if not found.
// Use this only in handlers where the middleware is guaranteed to have run.
func MustGetTenantUUID(c *gin.Context) uuid.UUID {
	tenantUUID, err := GetTenantUUID(c)
	if err != nil || tenantUUID == uuid.Nil {
		panic("valid tenant_id not found in context")
	}
	return tenantUUID
}

// GetUserID retrieves the acting user ID from gin.Context
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		if uid, ok := userID.(string); ok {
			return uid
		}
	}
	return ""
}

// GetUserUUID retrieves the acting user ID as UUID from gin.Context
func GetUserUUID(c *gin.Context) (uuid.UUID, error) {
	userID := GetUserID(c)
	if userID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(userID)
}
