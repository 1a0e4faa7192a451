package gateway

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// TabHeader carries the tab id on requests and responses.
	TabHeader = "X-Tab-ID"

	tabKey       = "tab_id"
	tabCookieAge = 30 * 24 * 60 * 60
)

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("tab_id", c.GetString(tabKey)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", append(fields, zap.String("errors", c.Errors.String()))...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Recovered from panic",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	wildcard := len(origins) == 0 || allowed["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", strings.Join([]string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", TabHeader,
		}, ", "))
		c.Header("Access-Control-Expose-Headers", TabHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware applies one limiter to the whole gateway. A
// non-positive limit disables it.
func rateLimitMiddleware(limit float64, burst int, logger *zap.Logger) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = max(1, int(math.Ceil(limit)))
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "1s",
			})
			return
		}
		c.Next()
	}
}

// tabMiddleware resolves the tab id from the header, then the cookie, and
// issues a new one when neither holds a valid uuid. The cookie is shared by
// every browser tab of a profile, so views keeping one cart per tab echo the
// issued X-Tab-ID from their own storage. An empty cookie name disables the
// fallback.
func tabMiddleware(cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TabHeader)
		if id == "" && cookie != "" {
			id, _ = c.Cookie(cookie)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			if cookie != "" {
				c.SetCookie(cookie, id, tabCookieAge, "/", "", false, true)
			}
		}
		c.Set(tabKey, id)
		c.Header(TabHeader, id)
		c.Next()
	}
}
