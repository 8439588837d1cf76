// Package auth はセッションと上流 API のアクセストークンを橋渡しします。
//
// ログイン・登録で得たトークンをセッションに保存し、以降の上流呼び出しに付与します。
// セッションの変更は session.TokenStore を通してのみ行います。
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/yourusername/snippet-bff/internal/envelope"
	"github.com/yourusername/snippet-bff/internal/session"
)

// 上流 API のエンドポイント
const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	logoutPath   = "/api/auth/logout"
	userPath     = "/api/auth/user"
)

// クライアントに返す固定メッセージ
const (
	MessageMissingFields = "Fill out all fields!"
	MessageNotLoggedIn   = "Not logged in"
	MessageSessionSave   = "failed to save session"
)

// Upstream は上流 API の呼び出しを表します。upstream.Client が実装します。
type Upstream interface {
	Do(ctx context.Context, method, path string, body any, token string) envelope.Outcome
}

// EvictionRecorder は無効になったトークンの削除を記録します。
type EvictionRecorder interface {
	TokenEvicted()
}

// Credentials はログイン・登録の入力です。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Bridge はログイン・登録・ログアウト・ユーザー取得の各フローをまとめた構造体です。
// リクエスト間で状態を持たないため、並行して呼び出せます。
type Bridge struct {
	upstream  Upstream
	tokens    *session.TokenStore
	logger    *zap.SugaredLogger
	evictions EvictionRecorder
}

// NewBridge は Bridge を作成します。evictions は nil でも構いません。
func NewBridge(up Upstream, tokens *session.TokenStore, logger *zap.SugaredLogger, evictions EvictionRecorder) *Bridge {
	if tokens == nil {
		tokens = session.NewTokenStore()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bridge{
		upstream:  up,
		tokens:    tokens,
		logger:    logger,
		evictions: evictions,
	}
}

// Login は上流にログインし、成功した場合はトークンをセッションに保存します。
func (b *Bridge) Login(ctx context.Context, h session.Handle, creds Credentials) (int, envelope.Envelope) {
	err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required),
		validation.Field(&creds.Password, validation.Required),
	)
	if err != nil {
		return http.StatusBadRequest, envelope.Fail(MessageMissingFields)
	}

	outcome := b.upstream.Do(ctx, http.MethodPost, loginPath, loginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	}, "")
	return b.establish(h, "login", outcome)
}

// Register は上流にユーザーを登録し、成功した場合はトークンをセッションに保存します。
func (b *Bridge) Register(ctx context.Context, h session.Handle, creds Credentials) (int, envelope.Envelope) {
	err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required),
		validation.Field(&creds.Password, validation.Required),
		validation.Field(&creds.Username, validation.Required),
	)
	if err != nil {
		return http.StatusBadRequest, envelope.Fail(MessageMissingFields)
	}

	outcome := b.upstream.Do(ctx, http.MethodPost, registerPath, registerRequest(creds), "")
	return b.establish(h, "register", outcome)
}

// Logout は保存済みのトークンで上流からログアウトし、トークンを削除します。
// 上流がエラーを返した場合も削除しますが、通信失敗時はセッションを変更しません。
func (b *Bridge) Logout(ctx context.Context, h session.Handle) (int, envelope.Envelope) {
	token, ok := b.tokens.Get(h)
	if !ok {
		return http.StatusUnauthorized, envelope.Fail(MessageNotLoggedIn)
	}

	outcome := b.upstream.Do(ctx, http.MethodDelete, logoutPath, nil, token)
	if outcome.Kind == envelope.KindTransportFailure {
		return envelope.Normalize(outcome)
	}

	if err := b.tokens.Clear(h); err != nil {
		b.logger.Errorw("failed to clear token on logout", "error", err)
		return http.StatusInternalServerError, envelope.Fail(MessageSessionSave)
	}
	return envelope.Normalize(outcome)
}

// CurrentUser は保存済みのトークンでログイン中のユーザーを取得します。
// トークンが無い場合は認証なしで呼び出します。上流が 401 を返した場合はトークンを削除します。
func (b *Bridge) CurrentUser(ctx context.Context, h session.Handle) (int, envelope.Envelope) {
	token, hadToken := b.tokens.Get(h)

	outcome := b.upstream.Do(ctx, http.MethodGet, userPath, nil, token)
	if outcome.Kind == envelope.KindUpstreamError && outcome.Status == http.StatusUnauthorized {
		if err := b.tokens.Clear(h); err != nil {
			// 上流の応答はそのまま返す
			b.logger.Errorw("failed to evict rejected token", "error", err)
		} else if hadToken && b.evictions != nil {
			b.evictions.TokenEvicted()
		}
	}
	return envelope.Normalize(outcome)
}

// LoggedIn はセッションにトークンが保存されているかを返します。
func (b *Bridge) LoggedIn(h session.Handle) bool {
	_, ok := b.tokens.Get(h)
	return ok
}

// establish はログイン・登録の結果からトークンを取り出して保存します。
func (b *Bridge) establish(h session.Handle, op string, outcome envelope.Outcome) (int, envelope.Envelope) {
	status, env := envelope.Normalize(outcome)
	if outcome.Kind != envelope.KindSuccess || !env.Success {
		return status, env
	}

	token := tokenFrom(env.Data)
	if token == "" {
		b.logger.Warnw("upstream reported success without a token", "operation", op)
		return http.StatusOK, env
	}
	if err := b.tokens.Set(h, token); err != nil {
		b.logger.Errorw("failed to store token", "operation", op, "error", err)
		return http.StatusInternalServerError, envelope.Fail(MessageSessionSave)
	}
	return http.StatusOK, env
}

func tokenFrom(data json.RawMessage) string {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Token
}
