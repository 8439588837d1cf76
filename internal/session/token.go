// Package session はリクエストごとのセッションに保存するアクセストークンの読み書きを提供します。
//
// セッション状態の変更は TokenStore の Get/Set/Clear だけを通して行います。
package session

import "fmt"

// DefaultTokenKey はアクセストークンを保存するセッション属性名です。
const DefaultTokenKey = "accessToken"

// Handle はリクエストに紐づくセッションです。
// gin-contrib/sessions の sessions.Session はこのインターフェースを満たします。
type Handle interface {
	Get(key any) any
	Set(key any, val any)
	Delete(key any)
	Save() error
}

// TokenStore はセッション上の単一のアクセストークンを扱います。
type TokenStore struct {
	key string
}

// NewTokenStore は DefaultTokenKey を使う TokenStore を作成します。
func NewTokenStore() *TokenStore {
	return &TokenStore{key: DefaultTokenKey}
}

// Get は保存されているトークンを返します。空文字列は未保存とみなします。
func (s *TokenStore) Get(h Handle) (string, bool) {
	if h == nil {
		return "", false
	}
	token, ok := h.Get(s.key).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Set はトークンを保存し、セッションを永続化します。
func (s *TokenStore) Set(h Handle, token string) error {
	if h == nil {
		return fmt.Errorf("session is nil")
	}
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	h.Set(s.key, token)
	if err := h.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear はトークンを削除します。未保存の場合は何もしません。
func (s *TokenStore) Clear(h Handle) error {
	if h == nil {
		return nil
	}
	if h.Get(s.key) == nil {
		return nil
	}
	h.Delete(s.key)
	if err := h.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
