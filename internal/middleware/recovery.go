// Package middleware は BFF 共通の Gin ミドルウェアを提供します。
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/snippet-bff/internal/envelope"
)

// Recovery はパニックからの回復を行うミドルウェアを返す。
// パニック発生時はログを出力し、失敗のエンベロープで500を返す。
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextKeyRequestID),
					"panic", r,
					zap.StackSkip("stack", 2),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, envelope.Fail("internal server error"))
			}
		}()
		c.Next()
	}
}
