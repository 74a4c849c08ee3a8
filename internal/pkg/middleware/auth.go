package middleware

import (
	"net/http"
	"strings"

	"payment-service/pkg/response"
	"payment-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// AuthMiddleware JWT认证中间件
// 核心逻辑不接触凭证，所有鉴权都在这一层完成
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireGrant 校验访问授权的中间件
// 例如 initiate 接口要求 payment-service-access 授权
func RequireGrant(grant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(claimsKey)
		if !exists {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		claims, ok := val.(*utils.Claims)
		if !ok || !claims.HasGrant(grant) {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Missing required access grant")
			c.Abort()
			return
		}

		c.Next()
	}
}
