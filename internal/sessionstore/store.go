// Package sessionstore は gin-contrib/sessions 用のセッションストアを設定から組み立てます。
package sessionstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/snippet-bff/internal/config"
)

// SessionCookieName はセッションCookieの名前です。
const SessionCookieName = "bff_session"

const pingTimeout = 5 * time.Second

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New は cfg.SessionStore に応じたストアを作成し、Cookie 属性を設定します。
// 返される io.Closer はシャットダウン時に呼び出してください。
func New(ctx context.Context, cfg *config.Config) (sessions.Store, io.Closer, error) {
	hashKey, blockKey, err := DeriveKeys(cfg.SessionSecret)
	if err != nil {
		return nil, nil, err
	}

	var (
		store  sessions.Store
		closer io.Closer = nopCloser{}
	)

	switch cfg.SessionStore {
	case config.SessionStoreFile:
		fs, err := NewFilesystemStore(cfg.SessionDir, hashKey, blockKey)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case config.SessionStoreRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = NewRedisStore(rdb, hashKey, blockKey)
		closer = rdb
	case config.SessionStoreCookie:
		store = NewCookieStore(hashKey, blockKey)
	default:
		return nil, nil, fmt.Errorf("unknown session store: %q", cfg.SessionStore)
	}

	store.Options(CookieOptions(cfg))
	return store, closer, nil
}

// CookieOptions はセッションCookieの属性を返します。
func CookieOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.CookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == "release",
		SameSite: http.SameSiteLaxMode,
	}
}
