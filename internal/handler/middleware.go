package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devtrack/internal/config"
	"github.com/devtrack/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// AuthRequired 校验 Bearer 令牌并解析出当前用户。
// 令牌由外部身份提供方签发，这里只做 HMAC 验签与声明提取；
// 首次出现的 subject 会被惰性建档。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			respondError(c, http.StatusUnauthorized, CodeUnauth, "缺少访问令牌")
			c.Abort()
			return
		}

		parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
		if a.jwtIssuer != "" {
			parserOpts = append(parserOpts, jwt.WithIssuer(a.jwtIssuer))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.jwtSecret), nil
		}, parserOpts...)
		if err != nil || !token.Valid {
			respondError(c, http.StatusUnauthorized, CodeUnauth, "无效的访问令牌")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondError(c, http.StatusUnauthorized, CodeUnauth, "无效的令牌声明")
			c.Abort()
			return
		}

		subject, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		name, _ := claims["name"].(string)

		user, err := a.users.EnsureUser(subject, email, name)
		if err != nil {
			respondError(c, http.StatusUnauthorized, CodeUnauth, "无法识别的身份")
			c.Abort()
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// RequestLog 为每个请求生成 request id 并输出结构化访问日志。
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// RateLimit 以令牌桶限流，窗口与阈值来自配置。
// 限流键优先取 Bearer 令牌，未认证请求退化为按客户端 IP；
// 闲置的桶靠缓存过期自动回收。
func RateLimit(cfg config.AppConfig) gin.HandlerFunc {
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimitMax
	if maxRequests <= 0 {
		maxRequests = 120
	}

	limit := rate.Every(window / time.Duration(maxRequests))
	buckets := gocache.New(10*window, 20*window)

	return func(c *gin.Context) {
		key := extractBearerToken(c)
		if key == "" {
			key = c.ClientIP()
		}

		var limiter *rate.Limiter
		if cached, found := buckets.Get(key); found {
			limiter = cached.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(limit, maxRequests)
			buckets.Set(key, limiter, gocache.DefaultExpiration)
		}

		if !limiter.Allow() {
			respondError(c, http.StatusTooManyRequests, CodeRateLimit, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
