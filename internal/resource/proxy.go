// Package resource は上流 API のリソース（コードスニペット）の本文を転送します。
// セッションには一切触れません。
package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/snippet-bff/internal/envelope"
)

const (
	resourcePath = "/api/code/"
	textPlain    = "text/plain; charset=utf-8"
)

// Upstream は上流 API からの認証なしの取得を表します。upstream.Client が実装します。
// エンベロープでない 2xx の本文も成功として受け取ります。
type Upstream interface {
	Fetch(ctx context.Context, path string) envelope.Outcome
}

// Result はリソース取得の結果です。
// Raw が true の場合は Body を ContentType で返し、それ以外は Envelope を JSON で返します。
type Result struct {
	Status      int
	Raw         bool
	ContentType string
	Body        []byte
	Envelope    envelope.Envelope
}

// Proxy はリソースの取得を上流に委譲します。
type Proxy struct {
	upstream Upstream
}

// NewProxy は Proxy を作成します。
func NewProxy(up Upstream) *Proxy {
	return &Proxy{upstream: up}
}

// Fetch は slug のリソースを認証なしで取得します。
func (p *Proxy) Fetch(ctx context.Context, slug string) Result {
	if strings.TrimSpace(slug) == "" {
		return jsonResult(http.StatusBadRequest, envelope.Fail("resource identifier is required"))
	}

	outcome := p.upstream.Fetch(ctx, resourcePath+url.PathEscape(slug))
	if outcome.Kind != envelope.KindSuccess {
		return jsonResult(envelope.Normalize(outcome))
	}

	env, ok := envelope.Parse(outcome.Body)
	if !ok {
		// エンベロープ以外の本文はそのまま返す
		contentType := outcome.ContentType
		if contentType == "" {
			contentType = detect(outcome.Body)
		}
		return Result{Status: outcome.Status, Raw: true, ContentType: contentType, Body: outcome.Body}
	}
	if !env.Success {
		return jsonResult(outcome.Status, env)
	}

	content, ok := contentOf(env.Data)
	if !ok {
		return jsonResult(outcome.Status, env)
	}
	return Result{Status: outcome.Status, Raw: true, ContentType: detect(content), Body: content}
}

func jsonResult(status int, env envelope.Envelope) Result {
	return Result{Status: status, Envelope: env}
}

// contentOf は {code, content} 形式の data から content を取り出します。
func contentOf(data json.RawMessage) ([]byte, bool) {
	var payload struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Content == nil {
		return nil, false
	}
	return []byte(*payload.Content), true
}

// detect は本文の Content-Type を判定します。テキストは種類を問わず text/plain とします。
func detect(body []byte) string {
	if len(body) == 0 {
		return textPlain
	}
	detected := mimetype.Detect(body)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return textPlain
		}
	}
	return detected.String()
}

// Handler は GET /code/:slug/raw のハンドラーを返します。
func Handler(p *Proxy) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := p.Fetch(c.Request.Context(), c.Param("slug"))
		if !result.Raw {
			c.JSON(result.Status, result.Envelope)
			return
		}
		c.Header("X-Content-Type-Options", "nosniff")
		c.Data(result.Status, result.ContentType, result.Body)
	}
}
