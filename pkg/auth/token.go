package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"ascend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	userIDKey = "user_id"
	adminKey  = "admin"
)

// TokenAuth validates HS256 bearer tokens issued by the session service.
// Token issuance lives outside this backend; only verification happens here.
type TokenAuth struct {
	secret    []byte
	debugMode bool
}

func NewTokenAuth(secret string, debugMode bool) *TokenAuth {
	return &TokenAuth{
		secret:    []byte(secret),
		debugMode: debugMode,
	}
}

// Middleware extracts and verifies the bearer token, putting the user id
// into the gin context. In debug mode signature errors are ignored so local
// clients can use unsigned test tokens.
func (t *TokenAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		})
		if err != nil || !token.Valid {
			if !t.debugMode {
				log.Info("invalid bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			token, _, err = jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
			if err != nil {
				log.Info("unparsable bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			log.Error("unexpected claims type in token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, ok := claims[userIDKey].(float64)
		if !ok {
			log.Info("token missing user_id claim")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, int64(userID))
		if isAdmin, ok := claims[adminKey].(bool); ok && isAdmin {
			c.Set(adminKey, true)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id set by Middleware.
func UserID(c *gin.Context) (int64, error) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, fmt.Errorf("no authenticated user in context")
	}
	id, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected user id type in context")
	}
	return id, nil
}

// IsAdmin reports whether Middleware saw the admin claim on the token.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(adminKey)
}

// IssueToken signs a token for a user id. Used by tests and local tooling;
// production tokens come from the session service.
func (t *TokenAuth) IssueToken(userID int64, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		userIDKey: userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// IssueAdminToken signs a token carrying the admin claim, which lets the
// holder act on any user's routes.
func (t *TokenAuth) IssueAdminToken(userID int64, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		userIDKey: userID,
		adminKey:  true,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}
