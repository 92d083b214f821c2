package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/models"
	"github.com/langchou/wattgazer/internal/service"
)

// Context keys
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// JWTAuth 要求 Bearer 令牌，校验通过后把 user_id 和 email 放入上下文
func JWTAuth(authService *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Invalid token", http.StatusUnauthorized))
			c.Abort()
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug("JWT validation failed", zap.Error(err), zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Invalid token", http.StatusUnauthorized))
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Subject)
		c.Next()
	}
}

// UserID 从上下文取当前用户 ID
func UserID(c *gin.Context) int64 {
	return c.GetInt64(CtxUserID)
}

// Email 从上下文取当前用户邮箱
func Email(c *gin.Context) string {
	return c.GetString(CtxEmail)
}

// InternalOnly 仅允许带内部标记头的服务间调用
func InternalOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Internal-Request") != "true" {
			c.JSON(http.StatusForbidden, models.ErrorResponse("Internal endpoint", http.StatusForbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}
