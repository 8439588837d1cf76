// Package upstream は上流 API サーバーを呼び出すクライアントを提供します。
//
// すべての呼び出し結果は envelope.Outcome の3種別（成功・上流エラー・通信失敗）の
// いずれかに分類され、呼び出し側が生のエラーを調べ直す必要はありません。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/snippet-bff/internal/envelope"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodyBytes を超えるレスポンスは不正とみなします。
	maxBodyBytes = 10 << 20

	headerRequestID = "X-Request-Id"
	acceptRaw       = "application/json, */*;q=0.8"
)

// Observer は上流呼び出しの結果を受け取ります（メトリクス用）。
type Observer interface {
	ObserveUpstream(method string, kind envelope.Kind, elapsed time.Duration)
}

// Client は上流 API の HTTP クライアントです。
type Client struct {
	httpClient *http.Client
	baseURL    string
	observer   Observer
	logger     *zap.SugaredLogger
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithTimeout は通信タイムアウトを設定します。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient は内部で使用する http.Client を差し替えます。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver は呼び出し結果の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New は上流クライアントを作成します。
// baseURL には上流のベースURL（例: "http://localhost:5000"）を指定します。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do は上流にリクエストを送信し、結果を分類して返します。
// token が空でなければ Bearer 認証ヘッダーを付与します。body が nil の場合は本文を送りません。
// 2xx の本文がエンベロープでなければ通信失敗として扱います。
func (c *Client) Do(ctx context.Context, method, path string, body any, token string) envelope.Outcome {
	return c.observe(ctx, method, path, body, token, false)
}

// Fetch は認証なしの GET でリソースを取得します。
// Do と異なり、2xx の本文がエンベロープでなくても成功とし、生の本文を Outcome.Body で返します。
func (c *Client) Fetch(ctx context.Context, path string) envelope.Outcome {
	return c.observe(ctx, http.MethodGet, path, nil, "", true)
}

func (c *Client) observe(ctx context.Context, method, path string, body any, token string, raw bool) envelope.Outcome {
	start := time.Now()
	outcome := c.do(ctx, method, path, body, token, raw)
	if c.observer != nil {
		c.observer.ObserveUpstream(method, outcome.Kind, time.Since(start))
	}
	if outcome.Kind == envelope.KindTransportFailure {
		c.logger.Warnw("upstream transport failure",
			"method", method,
			"path", path,
			"error", outcome.Reason,
		)
	}
	return outcome
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, raw bool) envelope.Outcome {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return envelope.TransportFailed(fmt.Errorf("failed to encode request body: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return envelope.TransportFailed(fmt.Errorf("failed to build upstream request: %w", err))
	}
	if raw {
		req.Header.Set("Accept", acceptRaw)
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID, ok := RequestIDFromContext(ctx); ok {
		req.Header.Set(headerRequestID, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope.TransportFailed(fmt.Errorf("upstream request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return envelope.TransportFailed(fmt.Errorf("failed to read upstream response: %w", err))
	}
	if len(respBody) > maxBodyBytes {
		return envelope.TransportFailed(errors.New("upstream response too large"))
	}

	outcome, err := classify(resp.StatusCode, respBody, raw)
	if err != nil {
		return envelope.TransportFailed(err)
	}
	outcome.ContentType = resp.Header.Get("Content-Type")
	outcome.Body = respBody
	return outcome
}

// classify はステータスコードで成功と上流エラーを振り分けます。
// raw が false の場合、エンベロープでない 2xx の本文は不正な応答です。
func classify(status int, body []byte, raw bool) (envelope.Outcome, error) {
	success := status >= 200 && status < 300

	env, ok := envelope.Parse(body)
	if !ok {
		switch {
		case len(bytes.TrimSpace(body)) == 0:
			env = envelope.Wrap(success, status, nil)
		case success && !raw:
			return envelope.Outcome{}, fmt.Errorf("malformed upstream response (status %d)", status)
		case success:
			// 本文は Outcome.Body でのみ参照します。
			env = envelope.New(true, nil, "")
		default:
			env = envelope.Wrap(false, status, body)
		}
	}
	if !env.Success && env.Message == "" {
		env.Message = envelope.UnknownErrorMessage(status)
	}

	if success {
		return envelope.Succeeded(status, env), nil
	}
	return envelope.UpstreamFailed(status, env), nil
}
