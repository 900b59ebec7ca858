package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
	"codegram-backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxRole     = "role"
	tokenCookie = "token"
)

// tokenFromRequest prefers the Authorization header and falls back to the cookie.
func tokenFromRequest(c *gin.Context) string {
	if token := utils.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	token, err := c.Cookie(tokenCookie)
	if err != nil {
		return ""
	}
	return token
}

// authenticate stores the session claims on the context when the token is valid.
func authenticate(c *gin.Context, secret string) bool {
	token := tokenFromRequest(c)
	if token == "" {
		return false
	}
	claims, err := utils.ValidateJWT(token, utils.PurposeSession, secret)
	if err != nil {
		return false
	}
	c.Set(ctxUserID, claims.UID)
	c.Set(ctxRole, claims.Role)
	return true
}

func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", errors.New("user ID not found in token")
	}
	return userID.(string), nil
}

// ========== API ==========

// AuthMiddleware rejects API requests without a valid session token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Необхідна авторизація"})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when possible and never rejects.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, secret)
		c.Next()
	}
}

// RoleMiddleware checks the role stored on the profile, not the one in the
// token, so demotions apply immediately. Must run after AuthMiddleware.
func RoleMiddleware(profiles domain.ProfileUsecase, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := hasRole(c, profiles, roles)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(err)})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.UserMessage(domain.ErrForbidden)})
			return
		}
		c.Next()
	}
}

func hasRole(c *gin.Context, profiles domain.ProfileUsecase, roles []domain.Role) (bool, error) {
	uid, err := getUserID(c)
	if err != nil {
		return false, nil
	}
	user, err := profiles.LoadUserProfile(c.Request.Context(), uid)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	for _, r := range roles {
		if user.Role == r {
			return true, nil
		}
	}
	return false, nil
}

// ========== PAGE GATES ==========

// WebAuthMiddleware sends guests to the login page.
func WebAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, secret) {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GuestOnly keeps signed-in users away from login and registration pages.
func GuestOnly(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, secret) {
			c.Redirect(http.StatusSeeOther, "/profile")
			c.Abort()
			return
		}
		c.Next()
	}
}

// WebRoleMiddleware sends guests to /login and users without a listed role to /.
func WebRoleMiddleware(secret string, profiles domain.ProfileUsecase, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, secret) {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		ok, err := hasRole(c, profiles, roles)
		if err != nil || !ok {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// EnrollmentRequired lets only enrolled users open lesson pages; others are
// sent back to the course page. Must run after WebAuthMiddleware.
func EnrollmentRequired(enrollments domain.EnrollmentUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID := c.Param("courseId")
		uid, err := getUserID(c)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		check, err := enrollments.CheckEnrollment(c.Request.Context(), uid, courseID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(err)})
			return
		}
		if !check.IsEnrolled {
			c.Redirect(http.StatusSeeOther, "/courses/"+courseID)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ========== AMBIENT ==========

// CORS lets the frontend origin call the API with its session cookie.
func CORS(origins ...string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestTimeout bounds the request context.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", kv...)
		default:
			log.Debug("HTTP request", kv...)
		}
	}
}
