package handler

import (
	"net/http"
	"strings"

	"blog-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityKey   = "identity"
	claimsKey     = "claims"
	accessUUIDKey = "access_uuid"
)

// IdentityMiddleware resolves the bearer token into a models.Identity.
// No Authorization header means Anonymous; a bad or revoked token is a 401.
func (h *Handler) IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(identityKey, models.Identity(models.Anonymous{}))
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrTokenMalformed)
			return
		}

		identity, claims, err := h.auth.ResolveIdentity(c.Request.Context(), parts[1])
		if err != nil {
			zap.L().Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, err)
			return
		}
		tokenVerificationsTotal.WithLabelValues("access", "success").Inc()

		c.Set(identityKey, identity)
		if claims != nil {
			c.Set(claimsKey, claims)
			c.Set(accessUUIDKey, claims.ID)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without an active user. Runs after IdentityMiddleware.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.IsAuthenticated(identityFrom(c)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:     models.ErrCodeLoginRequired,
				Message:  msgLoginRequired,
				Redirect: loginPath,
			})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Anonymous{}
}

func claimsFrom(c *gin.Context) *models.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*models.Claims); ok {
			return claims
		}
	}
	return nil
}
