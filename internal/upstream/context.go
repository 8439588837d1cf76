package upstream

import "context"

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// WithRequestID はコンテキストにリクエストIDを設定します。
// 上流呼び出し時に X-Request-Id ヘッダーとして伝播されます。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext はコンテキストのリクエストIDを返します。
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyRequestID).(string)
	return id, ok && id != ""
}
