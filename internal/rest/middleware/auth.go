package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/types"
)

const (
	headerAuthorization = "Authorization"
	headerAPIKey        = "X-API-Key"
)

type accountClaims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

func (c *accountClaims) accountID() string {
	if c.AccountID != "" {
		return c.AccountID
	}
	return c.Subject
}

// AuthenticateMiddleware resolves the calling account from a Bearer
// token and stores it in the request context. Every authenticated route
// downstream reads types.GetAccountID rather than trusting request
// bodies.
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(headerAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &accountClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Auth.Secret), nil
		})
		if err != nil || !token.Valid {
			logger.Debugw("failed to validate token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		accountID := claims.accountID()
		if accountID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		ctx := types.SetAccountID(c.Request.Context(), accountID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminAuthMiddleware guards administrative and cron routes with the
// configured API key.
func AdminAuthMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(headerAPIKey)
		if cfg.Auth.AdminAPIKey == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Auth.AdminAPIKey)) != 1 {
			logger.Debugw("invalid admin api key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		ctx := types.SetAdmin(c.Request.Context(), true)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
