package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/qrpass/checkin-service/internal/auth"
	"github.com/qrpass/checkin-service/internal/config"
	"github.com/qrpass/checkin-service/internal/handlers"
	"github.com/qrpass/checkin-service/internal/store"
)

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready, signup/login, scanner lookups, check-in,
// stats and QR images.
// Authenticated: party and guest management.
func NewRouter(cfg config.Config, st store.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Scanner stations and guests hit these without a session.
	handlers.RegisterAuthRoutes(r, st, cfg.SessionTTL)
	handlers.RegisterCheckInRoute(r, st)
	handlers.RegisterStatsRoute(r, st)
	handlers.RegisterScannerRoutes(r, st)

	// Auth group resolves the session token to a user.
	authGroup := r.Group("/")
	authGroup.Use(auth.Middleware(st, time.Now))

	handlers.RegisterLogoutRoute(authGroup, st)
	handlers.RegisterPartyRoutes(authGroup, st)
	handlers.RegisterGuestRoutes(authGroup, st)
	handlers.RegisterToggleRoute(authGroup, st)
	handlers.RegisterExportRoute(authGroup, st)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.DefaultConfig()
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	allowAll := false
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}
