package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionExpire          time.Duration // 非主使用者セッションのアイドルタイムアウト
	SessionCleanupInterval time.Duration // バックグラウンド掃除の実行間隔

	// Cookie
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string // "none" | "lax" | "strict"

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitLogin   int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionExpire = time.Duration(getEnvInt("SESSION_EXPIRE_TIME", 1800)) * time.Second
	cfg.SessionCleanupInterval = time.Duration(getEnvInt("SESSION_CLEANUP_INTERVAL", 600)) * time.Second
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", true)
	cfg.CookieSameSite = strings.ToLower(getEnvString("COOKIE_SAMESITE", "none"))
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	switch cfg.CookieSameSite {
	case "none", "lax", "strict":
	default:
		return nil, fmt.Errorf("invalid COOKIE_SAMESITE value: %q", cfg.CookieSameSite)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
