package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/store"
)

// userCtxKey is the Gin context key used to store the authenticated user ID.
const userCtxKey = "user_id"

// ErrSessionExpired is returned when a session token is past its expiry.
var ErrSessionExpired = errors.New("session expired")

// NewToken generates an opaque bearer session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// Middleware resolves the bearer token to a user and stores the user ID in
// the request context. Expired sessions are deleted on sight.
func Middleware(st store.UserStore, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, expiresAt, err := st.GetSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if clock().After(expiresAt) {
			_ = st.DeleteSession(c.Request.Context(), token)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrSessionExpired.Error()})
			return
		}

		c.Set(userCtxKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID from the request context.
func UserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(userCtxKey)
	id, _ := v.(uuid.UUID)
	return id
}

// SetUserID seeds the context for handlers outside the middleware (tests).
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(userCtxKey, id)
}
