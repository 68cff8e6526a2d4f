package middleware

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		// 下载链接可以通过 query 携带 token
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// AdminChecker 校验当前用户是否为管理员
type AdminChecker interface {
	RequireAdmin(userID uint) error
}

// AdminMiddleware 管理员邮箱白名单校验，需放在 AuthMiddleware 之后
func AdminMiddleware(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		err := checker.RequireAdmin(claims.UserID)
		switch {
		case err == nil:
			c.Next()
			return
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(c, "user not found")
		case errors.Is(err, util.ErrPermissionDenied):
			util.ForbiddenWithMessage(c, "admin access required")
		default:
			util.LogInternalError(c, err)
		}
		c.Abort()
	}
}
