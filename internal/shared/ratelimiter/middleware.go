package ratelimiter

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_backend/internal/api"
)

// SubjectParser extracts the subject user ID from a bearer token.
// Following Go convention: interfaces are defined by the consumer.
type SubjectParser interface {
	ParseToken(token string) (uint, error)
}

// Middleware returns a Gin middleware enforcing the fixed-window limit on
// every route. The key is the authenticated user ID when the bearer token
// parses, otherwise the caller's network origin.
func Middleware(limiter Limiter, parser SubjectParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := identityKey(c, parser)

		blocked, retryAfter, err := limiter.TooManyAttempts(c.Request.Context(), key)
		if err != nil {
			// カウンタストア障害時はフェイルオープン（リクエストは通す）
			slog.Warn("rate limiter check failed", "error", err, "key", key)
			c.Next()
			return
		}
		if blocked {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				api.Fail(fmt.Sprintf("Too many requests. Please try again in %d seconds.", seconds)))
			return
		}

		if err := limiter.Hit(c.Request.Context(), key); err != nil {
			slog.Warn("rate limiter hit failed", "error", err, "key", key)
		}
		c.Next()
	}
}

// identityKey はトークンのsubjectが解決できればユーザーID、できなければ
// クライアントIPをキーとして返します。認証ミドルウェアより前に走るため、
// ここではトークンの構造検証のみを行います。
func identityKey(c *gin.Context, parser SubjectParser) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if userID, err := parser.ParseToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
			return fmt.Sprintf("user:%d", userID)
		}
	}
	return "ip:" + c.ClientIP()
}
