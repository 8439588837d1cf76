// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
)

// セッションストアの種類
const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreCookie = "cookie"
)

// DevSessionSecret は開発モードでのみ許可されるセッション秘密鍵です。
const DevSessionSecret = "nevergonnagiveyouup"

// DefaultEnvFile は起動時に読み込む .env ファイル名です。
const DefaultEnvFile = ".env.local"

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// 上流 API 設定
	APIURL          string        // 上流 API のベースURL
	UpstreamTimeout time.Duration // 上流呼び出しのタイムアウト

	// サーバー設定
	Port     string // BFF のポート番号
	GinMode  string // Ginの実行モード (debug, release, test)
	LogLevel string // ログレベル (debug, info, warn, error)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret string // セッション署名用の秘密鍵
	SessionStore  string // file, redis, cookie
	SessionDir    string // file ストアの保存先
	RedisURL      string // redis ストアの接続URL
	CookieMaxAge  int    // セッションCookieの有効期間（秒）
}

// Load は環境変数から設定を読み込みます。
// envFile が存在する場合はそこから読み込みます（空の場合は .env.local）。
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	loadEnvFile(envFile)

	ginMode := getEnv("GIN_MODE", "debug")
	config := &Config{
		// 上流 API 設定
		APIURL:          strings.TrimRight(getEnv("API_URL", "http://localhost:5000"), "/"),
		UpstreamTimeout: time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,

		// サーバー設定
		Port:     getEnv("PORT", "3000"),
		GinMode:  ginMode,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		// セッション設定
		SessionSecret: getEnv("SESSION_SECRET", getEnv("SECRET", "")),
		SessionStore:  getEnv("SESSION_STORE", defaultSessionStore(ginMode)),
		SessionDir:    getEnv("SESSION_DIR", ".sessions"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/2"),
		CookieMaxAge:  getEnvAsInt("COOKIE_MAX_AGE", 31536000),
	}

	// 開発時のみ既定の秘密鍵を許可する
	if config.SessionSecret == "" && config.GinMode != "release" {
		config.SessionSecret = DevSessionSecret
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile(name string) {
	if err := godotenv.Load(name); err == nil {
		return
	}
	if filepath.IsAbs(name) {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, name))
}

func defaultSessionStore(ginMode string) string {
	if ginMode == "release" {
		return SessionStoreRedis
	}
	return SessionStoreFile
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required, is.URL),
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.GinMode, validation.In("debug", "release", "test")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.SessionSecret, validation.Required),
		validation.Field(&c.SessionStore, validation.Required,
			validation.In(SessionStoreFile, SessionStoreRedis, SessionStoreCookie)),
		validation.Field(&c.CookieMaxAge, validation.Required, validation.Min(1)),
		validation.Field(&c.UpstreamTimeout, validation.Required, validation.Min(time.Second)),
	)
	if err != nil {
		return err
	}

	if c.SessionStore == SessionStoreFile && c.SessionDir == "" {
		return errors.New("SESSION_DIR is required for the file session store")
	}
	if c.SessionStore == SessionStoreRedis && c.RedisURL == "" {
		return errors.New("REDIS_URL is required for the redis session store")
	}

	// 本番環境では開発用の秘密鍵を使わせない
	if c.GinMode == "release" && c.SessionSecret == DevSessionSecret {
		return errors.New("SESSION_SECRET must be changed in release mode")
	}
	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
