package sessionstore

import (
	"github.com/gin-contrib/sessions"
	gsessions "github.com/gorilla/sessions"
)

// CookieStore はセッションの値を暗号化して Cookie に直接保存します。
type CookieStore struct {
	*gsessions.CookieStore
}

var _ sessions.Store = (*CookieStore)(nil)

// NewCookieStore は CookieStore を作成します。
func NewCookieStore(keyPairs ...[]byte) *CookieStore {
	return &CookieStore{CookieStore: gsessions.NewCookieStore(keyPairs...)}
}

// Options は Cookie の属性を設定します。
// 署名の有効期限も MaxAge に合わせます。
func (s *CookieStore) Options(opts sessions.Options) {
	s.CookieStore.Options = opts.ToGorillaOptions()
	if opts.MaxAge > 0 {
		s.CookieStore.MaxAge(opts.MaxAge)
	}
}
