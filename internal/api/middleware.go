package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/service"
)

const (
	sessionCookie = "session"
	actorKey      = "actor"
)

// AuthMiddleware returns a Gin middleware for authentication. The JWT comes
// from the Authorization header or the session cookie.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}

		// Parse the JWT token
		jwtSecret := c.MustGet("jwtSecret").([]byte)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		// Extract claims from the token
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			abortUnauthorized(c, "Invalid user ID in token")
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set("userId", userID)
		c.Set(actorKey, models.Actor{UserID: userID, Email: email, Role: role})
		c.Next()
	}
}

// AdminOnly sends signed-in users without the admin role to the
// unauthorized page. The role is read from the stored user, not the token, so
// a demotion applies to tokens issued before it.
func (h *Handler) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		user, err := h.service.GetUser(c.Request.Context(), actor.UserID)
		if err != nil && !errors.Is(err, service.ErrNotFound) {
			h.respondError(c, err)
			c.Abort()
			return
		}
		if user == nil || !user.IsAdmin() {
			c.Redirect(http.StatusSeeOther, "/unauthorized")
			c.Abort()
			return
		}

		actor.Role = user.Role
		c.Set(actorKey, actor)
		c.Next()
	}
}

// CORS allows the configured front-end origins to call the API with credentials
func CORS(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	return cors.New(corsConfig)
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}

func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}
