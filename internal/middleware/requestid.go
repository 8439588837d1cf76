package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/snippet-bff/internal/upstream"
)

const (
	// HeaderRequestID はリクエストIDを運ぶヘッダー名です。
	HeaderRequestID = "X-Request-Id"
	// ContextKeyRequestID は gin.Context にリクエストIDを保存するキーです。
	ContextKeyRequestID = "requestID"

	maxRequestIDLength = 128
)

// RequestID はリクエストごとにIDを割り当てるミドルウェアを返します。
// クライアントが妥当なIDを送ってきた場合はそれを引き継ぎ、上流呼び出しにも伝搬させます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(upstream.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
