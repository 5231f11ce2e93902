package user

import (
	"strings"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/logger"
	"github.com/SlpAus/macro-tracker-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey 与请求日志读取的键一致
	UserIDKey = logger.UserIDKey
	claimsKey = "sessionClaims"
)

// RequireUser 从 Authorization: Bearer 头或会话Cookie中读取令牌，
// 校验通过后把用户ID放入gin上下文，否则以401中止请求。
func RequireUser(svc *Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c, cookieName)
		if raw == "" {
			apperror.Respond(c, apperror.Unauthorized("Unauthorized"))
			return
		}

		claims, err := svc.Verify(c.Request.Context(), raw)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil {
			return v
		}
	}
	return ""
}

// CurrentUserID 返回当前请求的用户ID，未登录时返回 Unauthorized
func CurrentUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserIDKey); id != "" {
		return id, nil
	}
	return "", apperror.Unauthorized("Unauthorized")
}

func currentClaims(c *gin.Context) *token.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}
