package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-comments-api/internal/config"
	"github.com/portfolio-comments-api/internal/metrics"
	"github.com/portfolio-comments-api/internal/ratelimit"
	"github.com/portfolio-comments-api/internal/service"
	"github.com/portfolio-comments-api/pkg/logger"
	"github.com/rs/zerolog"
)

// adminUserKey is the gin context key holding the authenticated admin user
const adminUserKey = "admin_user"

// NewRouter creates and configures the Gin router.
// ipLimiter throttles every request to /api/comments per client IP; nil disables it.
// m may be nil, in which case /metrics is not mounted.
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics, ipLimiter ratelimit.Limiter) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	reactionHandler := NewReactionHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	adminHandler := NewAdminHandler(services, log)
	adminPage := NewAdminPage(cfg.Server.AdminPagePath, log)

	// Health check
	router.GET("/health", healthCheck(services.Health, log))
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	router.GET("/admin", adminPage.Serve)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/reactions", reactionHandler.GetReactions)
		apiGroup.POST("/reactions", reactionHandler.IncrementReaction)

		comments := apiGroup.Group("/comments")
		if ipLimiter != nil {
			comments.Use(rateLimitMiddleware(ipLimiter, log))
		}
		{
			comments.GET("", commentHandler.ListComments)
			comments.POST("", commentHandler.SubmitComment)
		}

		apiGroup.GET("/verify-email", commentHandler.VerifyEmail)

		admin := apiGroup.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)
			admin.POST("/logout", adminHandler.Logout)

			authed := admin.Group("")
			authed.Use(adminAuthMiddleware(services.Auth, log))
			{
				authed.POST("/change-password", adminHandler.ChangePassword)
				authed.POST("/rotate-password", adminHandler.RotatePassword)
				authed.GET("/comments", adminHandler.AllComments)
				authed.POST("/comments/:id/approve", adminHandler.Approve)
				authed.DELETE("/comments/:id", adminHandler.Delete)
				authed.POST("/import-comments", adminHandler.ImportComments)
				authed.GET("/import-audit", adminHandler.ImportAudit)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(probe func() error, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if probe != nil {
			if err := probe(); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": codeServerError,
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// rateLimitMiddleware rejects clients over their request budget with 429
func rateLimitMiddleware(limiter ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			log.Warn().Str("client_ip", ip).Str("path", c.Request.URL.Path).Msg("Client rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": codeRateLimited})
			return
		}
		c.Next()
	}
}

// adminAuthMiddleware requires a live admin session and stores its user in the context
func adminAuthMiddleware(auth service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.CheckToken(c.Request.Context(), bearerToken(c))
		if err != nil {
			log.Debug().Str("path", c.Request.URL.Path).Msg("Admin request without a valid session")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": codeUnauthorized})
			return
		}
		c.Set(adminUserKey, user)
		c.Next()
	}
}

// bearerToken reads the admin token from the Authorization header or the token query parameter
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}
