package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const contextAdminIDKey = "admin_id"

// AdminRequired authenticates admin endpoints with a bearer JWT signed
// by the shared admin secret. The token must carry role=admin.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AdminJWTSecret == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(raw, "Bearer ") {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		raw = strings.TrimPrefix(raw, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnauthorized
			}
			return []byte(s.cfg.AdminJWTSecret), nil
		})
		if err != nil || !token.Valid {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			AbortWithError(c, ErrForbidden)
			return
		}
		if sub, _ := claims["sub"].(string); sub != "" {
			c.Set(contextAdminIDKey, sub)
		}
		c.Next()
	}
}

func (s *Server) adminID(c *gin.Context) snowflake.ID {
	raw := strings.TrimSpace(c.GetString(contextAdminIDKey))
	if raw == "" {
		return 0
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0
	}
	return id
}

// UsageRateLimit throttles the usage endpoint per account. Redis being
// unreachable fails open: quota enforcement still guards correctness.
func (s *Server) UsageRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.usageLimiter.Enabled() {
			c.Next()
			return
		}

		accountID, err := parseID(c.Param("id"))
		if err != nil {
			c.Next()
			return
		}

		res, err := s.usageLimiter.AllowAccount(c.Request.Context(), accountID)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			s.metrics.RecordRateLimitDenied()
			c.Header("Retry-After", res.RetryAfter.String())
			c.AbortWithStatusJSON(429, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many usage requests",
			}})
			return
		}
		c.Next()
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return id, nil
}
