package user

import (
	"net/http"
	"strings"

	"github.com/SlpAus/anon-voting-backend/pkg/token"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey 是存入Gin上下文的已认证用户ID的键名
	UserIDKey = "userID"
	// UserRoleKey 是存入Gin上下文的用户角色的键名
	UserRoleKey = "userRole"
)

// RequireAuth 校验 "Authorization: Bearer <token>" 头。
// 验证通过后将用户ID和角色放入Gin上下文；否则以401中断请求。
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少认证令牌", "code": "UNAUTHORIZED"})
			return
		}

		claims, err := token.ValidateSessionToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证令牌无效或已过期", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin 在RequireAuth之后使用，只放行admin角色。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserRoleKey) != string(RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限", "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}
