package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	GinMode           string
	JWTSecret         string
	JWTIssuer         string
	CORSAllowOrigins  []string
	RateLimitWindow   time.Duration
	RateLimitMax      int
	StatsCacheTTL     time.Duration
	ExposeErrorDetail bool
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
		databasePath = "devtrack.db"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = "devtrack-dev-secret"
	}

	jwtIssuer := strings.TrimSpace(os.Getenv("JWT_ISSUER"))

	corsOrigins := splitAndTrim(os.Getenv("CORS_ALLOW_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	rateWindow := parseDuration(os.Getenv("RATE_LIMIT_WINDOW"), time.Minute)
	rateMax := parseInt(os.Getenv("RATE_LIMIT_MAX"), 120)

	statsTTL := parseDuration(os.Getenv("STATS_CACHE_TTL"), time.Minute)

	exposeErrors := strings.EqualFold(strings.TrimSpace(os.Getenv("EXPOSE_ERROR_DETAIL")), "true")

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		GinMode:           ginMode,
		JWTSecret:         jwtSecret,
		JWTIssuer:         jwtIssuer,
		CORSAllowOrigins:  corsOrigins,
		RateLimitWindow:   rateWindow,
		RateLimitMax:      rateMax,
		StatsCacheTTL:     statsTTL,
		ExposeErrorDetail: exposeErrors,
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
