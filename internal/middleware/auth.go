package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/fetchhub/internal/auth"
)

const (
	userIDKey = "user_id"
	adminKey  = "admin"
)

// Authenticator 解析 bearer 令牌
type Authenticator interface {
	ParseToken(token string) (*auth.Claims, error)
}

// Auth 鉴权中间件
//
// authn 为 nil 时为单用户模式：所有请求都以 defaultUserID 的管理员身份执行。
func Auth(authn Authenticator, defaultUserID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authn == nil {
			c.Set(userIDKey, defaultUserID)
			c.Set(adminKey, true)
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := authn.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(adminKey, claims.Admin)
		c.Next()
	}
}

// RequireAdmin 仅允许管理员访问
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(adminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}

// UserID 当前调用者 ID
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// bearerToken 从 Authorization 头读取令牌；SSE 客户端无法设置请求头，允许 access_token 查询参数
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("access_token")
}
