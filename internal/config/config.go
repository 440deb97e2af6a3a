package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
// 进程启动时构造一次，按值传入各层，避免包级可变状态
type AppConfig struct {
	ListenAddr   string
	Port         string
	DatabasePath string
	GinMode      string

	TokenSecret string
	TokenTTL    time.Duration

	CookieName   string
	CookiePath   string
	CookieDomain string
	CookieSecure bool

	WgerBaseURL string
	WgerTimeout time.Duration
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "fitlog.db"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	tokenSecret := strings.TrimSpace(os.Getenv("TOKEN_SECRET"))
	if tokenSecret == "" {
		tokenSecret = "fitlog-dev-secret"
	}

	tokenTTL := 12 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL_HOURS")); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			tokenTTL = time.Duration(hours) * time.Hour
		}
	}

	cookieName := strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME"))
	if cookieName == "" {
		cookieName = "session"
	}

	cookiePath := strings.TrimSpace(os.Getenv("SESSION_COOKIE_PATH"))
	if cookiePath == "" {
		cookiePath = "/"
	}

	cookieDomain := strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN"))

	cookieSecure := false
	if raw := strings.TrimSpace(os.Getenv("SESSION_COOKIE_SECURE")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			cookieSecure = parsed
		}
	}

	wgerBaseURL := strings.TrimSpace(os.Getenv("WGER_BASE_URL"))
	if wgerBaseURL == "" {
		wgerBaseURL = "https://wger.de/api/v2"
	}

	wgerTimeout := 10 * time.Second
	if raw := strings.TrimSpace(os.Getenv("WGER_TIMEOUT_SECONDS")); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			wgerTimeout = time.Duration(seconds) * time.Second
		}
	}

	return AppConfig{
		ListenAddr:   listenAddr,
		Port:         port,
		DatabasePath: databasePath,
		GinMode:      ginMode,
		TokenSecret:  tokenSecret,
		TokenTTL:     tokenTTL,
		CookieName:   cookieName,
		CookiePath:   cookiePath,
		CookieDomain: cookieDomain,
		CookieSecure: cookieSecure,
		WgerBaseURL:  wgerBaseURL,
		WgerTimeout:  wgerTimeout,
	}
}
