package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/models"
	"github.com/qrpass/checkin-service/internal/store"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterAuthRoutes registers the unauthenticated account endpoints.
//
// POST /api/auth/signup
// POST /api/auth/login
func RegisterAuthRoutes(r gin.IRoutes, st store.UserStore, sessionTTL time.Duration) {
	r.POST("/api/auth/signup", func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		switch {
		case len(req.Username) < 4 || len(req.Username) > 80:
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 4-80 characters"})
			return
		case !strings.Contains(req.Email, "@"):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		case len(req.Password) < 6:
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
			return
		}

		user := models.User{
			ID:           uuid.New(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}
		if err := st.CreateUser(c.Request.Context(), user); err != nil {
			storeError(c, err, "user not found")
			return
		}

		token, err := startSession(c, st, user.ID, sessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		c.JSON(http.StatusCreated, sessionResponse{Token: token, User: user})
	})

	r.POST("/api/auth/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		user, err := st.GetUserByEmail(c.Request.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			// Same response for unknown email and wrong password.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := startSession(c, st, user.ID, sessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		c.JSON(http.StatusOK, sessionResponse{Token: token, User: user})
	})
}

// RegisterLogoutRoute revokes the caller's session. Registered behind the
// auth middleware.
func RegisterLogoutRoute(r gin.IRoutes, st store.UserStore) {
	r.POST("/api/auth/logout", func(c *gin.Context) {
		if token := auth.BearerToken(c); token != "" {
			_ = st.DeleteSession(c.Request.Context(), token)
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	})
}

func startSession(c *gin.Context, st store.UserStore, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := auth.NewToken()
	if err != nil {
		return "", err
	}
	if err := st.CreateSession(c.Request.Context(), token, userID, time.Now().UTC().Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}
